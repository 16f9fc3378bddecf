package views

import (
	"fmt"

	"github.com/matheus3301/quill/internal/domain"
	"github.com/matheus3301/quill/internal/tui/ui"
	"github.com/rivo/tview"
)

// ChannelInfo displays details about a channel.
type ChannelInfo struct {
	*tview.TextView
	theme   *ui.Theme
	channel *domain.Channel
}

// NewChannelInfo creates a new channel info view.
func NewChannelInfo(theme *ui.Theme) *ChannelInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Channel Details ")
	tv.SetTitleColor(theme.TitleColor)

	return &ChannelInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Name implements ui.Component.
func (ci *ChannelInfo) Name() string { return "Details" }

// Hints implements ui.Component.
func (ci *ChannelInfo) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "h", Description: "Edit header"},
		{Key: "p", Description: "Edit purpose"},
		{Key: "Esc", Description: "Back"},
		{Key: ":", Description: "Command"},
	}
}

// Channel returns the channel on display, or nil.
func (ci *ChannelInfo) Channel() *domain.Channel {
	return ci.channel
}

// Update renders channel details.
func (ci *ChannelInfo) Update(ch *domain.Channel) {
	ci.channel = ch
	ci.Clear()
	if ch == nil {
		return
	}

	fg := ui.ColorName(ci.theme.FgColor)
	ct := ui.ColorName(ci.theme.CounterColor)

	rows := []struct{ label, value string }{
		{"Name", ch.Title()},
		{"ID", ch.ID},
		{"Type", channelKind(ch.Type)},
		{"Members", fmt.Sprintf("%d", ch.MemberCount)},
		{"Last post", orDash(formatTimestamp(ch.LastPostAt))},
		{"Header", orDash(ch.Header)},
		{"Purpose", orDash(ch.Purpose)},
	}
	_, _ = fmt.Fprintln(ci)
	for _, r := range rows {
		_, _ = fmt.Fprintf(ci, " [%s::b]%-10s[-:-:-] [%s]%s[-]\n", fg, r.label+":", ct, display(r.value))
	}
	ci.SetTitle(fmt.Sprintf(" %s Details ", display(ch.Title())))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
