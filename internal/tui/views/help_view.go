package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/quill/internal/tui/ui"
	"github.com/rivo/tview"
)

// HelpView displays the key and command reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	hv.render()
	return hv
}

// Name implements ui.Component.
func (hv *HelpView) Name() string { return "Help" }

// Hints implements ui.Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

type helpEntry struct{ key, desc string }

var helpSections = []struct {
	title   string
	entries []helpEntry
}{
	{"Global", []helpEntry{
		{":", "Command mode"},
		{"/", "Filter channels"},
		{"?", "Help"},
		{"Esc", "Back"},
		{"q", "Quit"},
		{"Ctrl-C", "Quit immediately"},
	}},
	{"Channels", []helpEntry{
		{"Enter", "Open channel"},
		{"1-9", "Jump to Nth channel"},
		{"s", "Search posts"},
		{"j/k", "Move"},
	}},
	{"Thread", []helpEntry{
		{"i", "Focus composer"},
		{"d", "Channel details"},
		{"x", "Remove first attachment"},
	}},
	{"Composer", []helpEntry{
		{"Enter", "Send (newline inside ``` or with ctrl_send)"},
		{"Ctrl-Enter", "Always send"},
		{"Shift/Alt-Enter", "Newline"},
		{"Up", "Edit your last post (empty message)"},
		{"Shift-Up", "Reply to the latest post (empty message)"},
		{"Ctrl-Up/Down", "Message history"},
		{"Ctrl-B / Ctrl-I", "Bold / italic"},
		{"Alt-K", "Link"},
		{"Esc", "Leave composer"},
	}},
	{"Commands", []helpEntry{
		{":channel <name>", "Open a channel"},
		{":search <query>", "Search posts"},
		{":attach <path>...", "Upload files to the open channel"},
		{":remove <n>", "Drop attachment n"},
		{":status <status>", "Set your status"},
		{":header / :purpose", "Edit the channel setting"},
		{":info", "Channel details"},
		{":sync start|stop", "Control sync"},
		{":logout", "Unlink this device"},
		{":q", "Quit"},
	}},
}

func (hv *HelpView) render() {
	kc := ui.ColorName(hv.theme.MenuKeyColor)
	var b strings.Builder
	for _, sec := range helpSections {
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", sec.title)
		for _, e := range sec.entries {
			fmt.Fprintf(&b, "  [%s]%-20s[-:-:-] %s\n", kc, tview.Escape(e.key), tview.Escape(e.desc))
		}
	}
	_, _ = fmt.Fprint(hv, b.String())
}
