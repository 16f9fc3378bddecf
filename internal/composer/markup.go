package composer

import "strings"

// Markup is a formatting shortcut.
type Markup int

const (
	MarkupBold Markup = iota + 1
	MarkupItalic
	MarkupLink
)

const linkPlaceholder = "url"

// ApplyMarkup wraps the selection in Markdown, or unwraps it when it is
// already wrapped. Links become [text](url) with "url" selected.
// Offsets are bytes and are clamped to the text.
func ApplyMarkup(text string, sel Selection, m Markup) (string, Selection) {
	sel = clamp(text, sel)
	before, selected, after := text[:sel.Start], text[sel.Start:sel.End], text[sel.End:]

	if m == MarkupLink {
		out := before + "[" + selected + "](" + linkPlaceholder + ")" + after
		start := len(before) + len(selected) + 3
		return out, Selection{Start: start, End: start + len(linkPlaceholder)}
	}

	delim := "**"
	if m == MarkupItalic {
		delim = "*"
	}
	if wrapped(before, after, delim, m) {
		out := before[:len(before)-len(delim)] + selected + after[len(delim):]
		start := sel.Start - len(delim)
		return out, Selection{Start: start, End: start + len(selected)}
	}
	out := before + delim + selected + delim + after
	start := sel.Start + len(delim)
	return out, Selection{Start: start, End: start + len(selected)}
}

// wrapped reports whether the selection is already surrounded by delim.
// A single asterisk only counts when it is not part of a bold pair, or is
// the italic half of "***".
func wrapped(before, after, delim string, m Markup) bool {
	if !strings.HasSuffix(before, delim) || !strings.HasPrefix(after, delim) {
		return false
	}
	if m != MarkupItalic {
		return true
	}
	bold := strings.HasSuffix(before, "**") && strings.HasPrefix(after, "**")
	triple := strings.HasSuffix(before, "***") && strings.HasPrefix(after, "***")
	return !bold || triple
}

func clamp(text string, sel Selection) Selection {
	n := len(text)
	sel.Start = min(max(sel.Start, 0), n)
	sel.End = min(max(sel.End, 0), n)
	if sel.End < sel.Start {
		sel.Start, sel.End = sel.End, sel.Start
	}
	return sel
}
