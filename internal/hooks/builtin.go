package hooks

import (
	"context"
	"errors"
	"html"
	"strings"

	"github.com/matheus3301/quill/internal/domain"
	"github.com/microcosm-cc/bluemonday"
)

// ErrEmptyAfterStrip rejects posts that were nothing but markup.
var ErrEmptyAfterStrip = errors.New("message is empty after removing HTML")

// StripHTML returns a message hook that removes HTML tags from the text.
// Posts with attachments may end up with an empty message.
func StripHTML() MessageHook {
	policy := bluemonday.StrictPolicy()
	return func(_ context.Context, post *domain.Post) (*domain.Post, error) {
		if !strings.ContainsRune(post.Message, '<') {
			return nil, nil
		}
		stripped := html.UnescapeString(policy.Sanitize(post.Message))
		if strings.TrimSpace(stripped) == "" && len(post.FileIDs) == 0 {
			return nil, ErrEmptyAfterStrip
		}
		out := *post
		out.Message = stripped
		return &out, nil
	}
}

// Aliases returns a slash hook that rewrites command triggers. An alias
// that maps to an empty string swallows the command.
func Aliases(aliases map[string]string) SlashHook {
	return func(_ context.Context, message string, args *domain.CommandArgs) (string, *domain.CommandArgs, error) {
		trigger, rest, _ := strings.Cut(message, " ")
		target, ok := aliases[strings.ToLower(trigger)]
		if !ok {
			return message, args, nil
		}
		if target == "" {
			return "", nil, nil
		}
		if !strings.HasPrefix(target, "/") {
			target = "/" + target
		}
		if rest == "" {
			return target, args, nil
		}
		return target + " " + rest, args, nil
	}
}
