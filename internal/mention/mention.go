// Package mention finds channel-wide and group mentions in message text.
package mention

import (
	"regexp"
	"slices"
	"strings"
)

var (
	codeBlock  = regexp.MustCompile("(?s)```.*?```")
	inlineCode = regexp.MustCompile("`[^`\n]*`")
	special    = regexp.MustCompile(`(?i)\B@(all|channel|here)\b`)
	handle     = regexp.MustCompile(`\B@([A-Za-z0-9][A-Za-z0-9._-]*[A-Za-z0-9_]|[A-Za-z0-9])`)
)

// stripCode removes fenced and inline code, where mentions do not notify.
func stripCode(text string) string {
	text = codeBlock.ReplaceAllString(text, " ")
	return inlineCode.ReplaceAllString(text, " ")
}

// Special returns the distinct channel-wide mentions in text ("@all",
// "@channel", "@here"), lowercased, in order of first appearance.
func Special(text string) []string {
	var out []string
	for _, m := range special.FindAllStringSubmatch(stripCode(text), -1) {
		name := "@" + strings.ToLower(m[1])
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

// HasSpecial reports whether text contains a channel-wide mention.
func HasSpecial(text string) bool {
	return special.MatchString(stripCode(text))
}

// Groups returns the allowed group names mentioned in text, with the "@"
// prefix, in order of first appearance. Matching is case-insensitive.
func Groups(text string, allowed []string) []string {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, g := range allowed {
		set[strings.ToLower(strings.TrimPrefix(g, "@"))] = struct{}{}
	}

	var out []string
	for _, m := range handle.FindAllStringSubmatch(stripCode(text), -1) {
		name := strings.ToLower(m[1])
		if _, ok := set[name]; !ok {
			continue
		}
		if at := "@" + name; !slices.Contains(out, at) {
			out = append(out, at)
		}
	}
	return out
}
