package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/quill/internal/domain"
	"github.com/matheus3301/quill/internal/tui/ui"
	"github.com/rivo/tview"
)

// ChannelList is the main channel table.
type ChannelList struct {
	*tview.Table
	theme    *ui.Theme
	channels []*domain.Channel
	hasDraft func(channelID string) bool
	filter   string
}

// NewChannelList creates a new channel list table.
func NewChannelList(theme *ui.Theme) *ChannelList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(" Channels ")
	table.SetTitleColor(theme.TitleColor)

	return &ChannelList{
		Table:    table,
		theme:    theme,
		hasDraft: func(string) bool { return false },
	}
}

// Name implements ui.Component.
func (cl *ChannelList) Name() string { return "Channels" }

// Hints implements ui.Component.
func (cl *ChannelList) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "/", Description: "Filter"},
		{Key: ":", Description: "Command"},
		{Key: "s", Description: "Search"},
		{Key: "?", Description: "Help"},
		{Key: "q", Description: "Quit"},
		{Key: "1-9", Description: "Jump", Numeric: true},
	}
}

// Update refreshes the list. hasDraft marks channels with a stored draft.
func (cl *ChannelList) Update(channels []*domain.Channel, hasDraft func(channelID string) bool) {
	cl.channels = channels
	if hasDraft != nil {
		cl.hasDraft = hasDraft
	}
	cl.render()
}

// SetFilter sets the active filter text and re-renders.
func (cl *ChannelList) SetFilter(filter string) {
	cl.filter = filter
	cl.render()
}

// ClearFilter clears the active filter.
func (cl *ChannelList) ClearFilter() {
	cl.filter = ""
	cl.render()
}

// Filter returns the active filter text.
func (cl *ChannelList) Filter() string {
	return cl.filter
}

func (cl *ChannelList) visible() []*domain.Channel {
	if cl.filter == "" {
		return cl.channels
	}
	var out []*domain.Channel
	for _, ch := range cl.channels {
		if containsFold(ch.Title(), cl.filter) || containsFold(ch.Header, cl.filter) {
			out = append(out, ch)
		}
	}
	return out
}

func (cl *ChannelList) render() {
	cl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" NAME", 2},
		{" HEADER", 3},
		{" TYPE", 0},
		{" MEMBERS", 0},
		{" LAST", 0},
		{" ", 0},
	}
	for col, h := range headers {
		cell := tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetBackgroundColor(cl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp)
		cl.SetCell(0, col, cell)
	}

	rows := cl.visible()
	for i, ch := range rows {
		row := i + 1
		marker := ""
		if cl.hasDraft(ch.ID) {
			marker = "✎"
		}
		cl.SetCell(row, 0, tview.NewTableCell(" "+display(ch.Title())).SetExpansion(2).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 1, tview.NewTableCell(" "+display(firstLine(ch.Header, 60))).SetExpansion(3).SetTextColor(cl.theme.MutedColor))
		cl.SetCell(row, 2, tview.NewTableCell(" "+channelKind(ch.Type)).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 3, tview.NewTableCell(fmt.Sprintf(" %d", ch.MemberCount)).SetTextColor(cl.theme.FgColor).SetAlign(tview.AlignRight))
		cl.SetCell(row, 4, tview.NewTableCell(" "+formatTimestamp(ch.LastPostAt)).SetTextColor(cl.theme.FgColor).SetAlign(tview.AlignRight))
		cl.SetCell(row, 5, tview.NewTableCell(" "+marker).SetTextColor(cl.theme.DraftColor))
	}

	if cl.filter != "" {
		cl.SetTitle(fmt.Sprintf(" Channels (%d/%d) filter: %s ", len(rows), len(cl.channels), tview.Escape(cl.filter)))
	} else {
		cl.SetTitle(fmt.Sprintf(" Channels (%d) ", len(cl.channels)))
	}
}

// SelectedChannel returns the highlighted channel, or nil.
func (cl *ChannelList) SelectedChannel() *domain.Channel {
	row, _ := cl.GetSelection()
	return cl.ChannelByIndex(row)
}

// ChannelByIndex returns the Nth visible channel (1-based), or nil.
func (cl *ChannelList) ChannelByIndex(n int) *domain.Channel {
	rows := cl.visible()
	if n < 1 || n > len(rows) {
		return nil
	}
	return rows[n-1]
}
