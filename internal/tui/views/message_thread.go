package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/quill/internal/composer"
	"github.com/matheus3301/quill/internal/domain"
	"github.com/matheus3301/quill/internal/tui/ui"
	"github.com/rivo/tview"
)

const composerHeight = 5

// MessageThread displays a channel's posts above its composer.
type MessageThread struct {
	*tview.Flex
	theme    *ui.Theme
	posts    *tview.TextView
	files    *FileStrip
	composer *ComposerView
	notice   *tview.TextView
	channel  *domain.Channel
	// ephemeral is a local-only notice, cleared on the next render that
	// carries an error.
	ephemeral string
}

// NewMessageThread creates a new message thread view.
func NewMessageThread(theme *ui.Theme) *MessageThread {
	posts := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	posts.SetBorder(true)
	posts.SetBorderColor(theme.BorderColor)
	posts.SetBackgroundColor(theme.BgColor)
	posts.SetTextColor(theme.FgColor)
	posts.SetTitle(" Posts ")
	posts.SetTitleColor(theme.TitleColor)

	notice := tview.NewTextView().SetDynamicColors(true)
	notice.SetBackgroundColor(theme.BgColor)

	files := NewFileStrip(theme)
	cv := NewComposerView(theme)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(posts, 0, 1, true).
		AddItem(files, 0, 0, false).
		AddItem(cv, composerHeight, 0, false).
		AddItem(notice, 1, 0, false)

	return &MessageThread{
		Flex:     flex,
		theme:    theme,
		posts:    posts,
		files:    files,
		composer: cv,
		notice:   notice,
	}
}

// Name implements ui.Component.
func (mt *MessageThread) Name() string {
	if mt.channel != nil {
		return mt.channel.Title()
	}
	return "Posts"
}

// Hints implements ui.Component.
func (mt *MessageThread) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "i", Description: "Compose"},
		{Key: "d", Description: "Details"},
		{Key: "x", Description: "Drop file"},
		{Key: "Esc", Description: "Back"},
		{Key: ":", Description: "Command"},
		{Key: "?", Description: "Help"},
	}
}

// SetChannel sets the channel on display.
func (mt *MessageThread) SetChannel(ch *domain.Channel) {
	mt.channel = ch
	mt.ephemeral = ""
	title := " Posts "
	if ch != nil {
		title = fmt.Sprintf(" %s ", display(ch.Title()))
		if ch.Header != "" {
			title = fmt.Sprintf(" %s | %s ", display(ch.Title()), display(firstLine(ch.Header, 60)))
		}
	}
	mt.posts.SetTitle(title)
}

// Channel returns the channel on display, or nil.
func (mt *MessageThread) Channel() *domain.Channel {
	return mt.channel
}

// Update renders posts, given newest first. names resolves user IDs.
func (mt *MessageThread) Update(posts []*domain.Post, names func(userID string) string) {
	mt.posts.Clear()
	_, _ = fmt.Fprint(mt.posts, renderPosts(posts, names, mt.theme))
	mt.posts.ScrollToEnd()
}

// ScrollToEnd scrolls the post list to the newest post.
func (mt *MessageThread) ScrollToEnd() {
	mt.posts.ScrollToEnd()
}

// Render updates the composer, file strip and notice line from snap.
func (mt *MessageThread) Render(snap composer.Snapshot) {
	mt.composer.Render(snap)
	mt.files.Render(snap)
	if mt.files.Len() > 0 {
		mt.ResizeItem(mt.files, 1, 0)
	} else {
		mt.ResizeItem(mt.files, 0, 0)
	}

	mt.notice.Clear()
	errColor := ui.ColorName(mt.theme.FlashErrColor)
	switch {
	case snap.PostError != "":
		_, _ = fmt.Fprintf(mt.notice, " [%s]%s[-]", errColor, tview.Escape(snap.PostError))
	case snap.ServerError != nil:
		msg := snap.ServerError.Error()
		if snap.ServerError.InvalidSlash {
			msg += " (press Enter again to send it as a message)"
		}
		_, _ = fmt.Fprintf(mt.notice, " [%s]%s[-]", errColor, tview.Escape(msg))
	case mt.ephemeral != "":
		_, _ = fmt.Fprintf(mt.notice, " [%s]%s[-]", ui.ColorName(mt.theme.FlashInfoColor), display(firstLine(mt.ephemeral, 200)))
	}
}

// ShowEphemeral shows a local-only notice under the composer.
func (mt *MessageThread) ShowEphemeral(text string) {
	mt.ephemeral = text
	mt.notice.Clear()
	_, _ = fmt.Fprintf(mt.notice, " [%s]%s[-]", ui.ColorName(mt.theme.FlashInfoColor), display(firstLine(text, 200)))
}

// Posts returns the post list (for focus management).
func (mt *MessageThread) Posts() *tview.TextView {
	return mt.posts
}

// Composer returns the composer input (for focus management).
func (mt *MessageThread) Composer() *ComposerView {
	return mt.composer
}

// Files returns the attachment strip.
func (mt *MessageThread) Files() *FileStrip {
	return mt.files
}

func renderPosts(posts []*domain.Post, names func(string) string, theme *ui.Theme) string {
	muted := ui.ColorName(theme.MutedColor)
	var b strings.Builder
	for i := len(posts) - 1; i >= 0; i-- {
		p := posts[i]
		if p.IsSystem() {
			fmt.Fprintf(&b, "[%s::i]%s %s[-:-:-]\n\n", muted, formatTimestamp(p.CreateAt), display(p.Message))
			continue
		}
		author := p.UserID
		if names != nil {
			author = names(p.UserID)
		}
		fmt.Fprintf(&b, "[::b]%s[-:-:-] [%s]%s[-]%s\n", display(author), muted, formatTimestamp(p.CreateAt), postMarkers(p, theme))
		if p.RootID != "" {
			fmt.Fprintf(&b, "[%s]↳ reply[-] ", muted)
		}
		body := p.Message
		if n := len(p.FileIDs); n > 0 {
			if body != "" {
				body += "\n"
			}
			body += fmt.Sprintf("📎 %d file(s)", n)
		}
		fmt.Fprintf(&b, "%s\n\n", display(body))
	}
	return b.String()
}

func postMarkers(p *domain.Post, theme *ui.Theme) string {
	var m string
	if p.EditAt > 0 {
		m += fmt.Sprintf(" [%s](edited)[-]", ui.ColorName(theme.MutedColor))
	}
	switch p.Status {
	case domain.PostStatusPending, domain.PostStatusSending:
		m += fmt.Sprintf(" [%s](sending)[-]", ui.ColorName(theme.PendingColor))
	case domain.PostStatusFailed:
		m += fmt.Sprintf(" [%s](failed)[-]", ui.ColorName(theme.FailedColor))
	}
	return m
}
