package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/quill/internal/composer"
	"github.com/matheus3301/quill/internal/tui/ui"
	"github.com/rivo/tview"
)

// NotifyAllText is the confirmation asked before notifying a whole channel.
func NotifyAllText(p composer.NotifyAllPrompt) string {
	mentions := strings.Join(p.Mentions, " and ")
	if mentions == "" {
		mentions = "@all"
	}
	if p.TimezoneCount > 0 {
		return fmt.Sprintf("By using %s you are about to send notifications to %d people in %d timezones. Are you sure you want to do this?",
			mentions, p.MemberCount, p.TimezoneCount)
	}
	return fmt.Sprintf("By using %s you are about to send notifications to %d people. Are you sure you want to do this?",
		mentions, p.MemberCount)
}

// ResetStatusText is the question asked when an out-of-office user runs
// a status command.
func ResetStatusText(newStatus string) string {
	return fmt.Sprintf("Your status is set to \"Out of Office\". Would you like to change it to %q?", newStatus)
}

// NewConfirm builds a yes/no modal. done receives true for the first button.
func NewConfirm(theme *ui.Theme, text, yes, no string, done func(ok bool)) *tview.Modal {
	m := tview.NewModal().
		SetText(text).
		AddButtons([]string{yes, no}).
		SetDoneFunc(func(index int, _ string) {
			done(index == 0)
		})
	m.SetBackgroundColor(theme.BgColor)
	m.SetTextColor(theme.FgColor)
	m.SetBorderColor(theme.PromptBorderColor)
	m.SetButtonBackgroundColor(theme.TableCursorBg)
	m.SetButtonTextColor(theme.TableCursorFg)
	return m
}

// NewTextDialog builds a form editing one text value. save receives the
// new text; cancel runs on Esc or Cancel.
func NewTextDialog(theme *ui.Theme, title, label, value string, save func(text string), cancel func()) *tview.Form {
	form := tview.NewForm()
	form.AddTextArea(label, value, 0, 4, 0, nil)
	form.AddButton("Save", func() {
		item, ok := form.GetFormItem(0).(*tview.TextArea)
		if !ok {
			return
		}
		save(strings.TrimSpace(item.GetText()))
	})
	form.AddButton("Cancel", cancel)
	form.SetCancelFunc(cancel)
	form.SetBorder(true)
	form.SetTitle(" " + tview.Escape(title) + " ")
	form.SetTitleColor(theme.TitleColor)
	form.SetBorderColor(theme.PromptBorderColor)
	form.SetBackgroundColor(theme.BgColor)
	form.SetFieldBackgroundColor(theme.BgColor)
	form.SetFieldTextColor(theme.FgColor)
	form.SetLabelColor(theme.MenuKeyColor)
	form.SetButtonBackgroundColor(theme.TableCursorBg)
	form.SetButtonTextColor(theme.TableCursorFg)
	return form
}

// Centered wraps p in a flex that keeps it at width by height in the
// middle of the screen.
func Centered(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 0, true).
			AddItem(nil, 0, 1, false), width, 0, true).
		AddItem(nil, 0, 1, false)
}
