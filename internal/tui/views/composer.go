package views

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/quill/internal/composer"
	"github.com/matheus3301/quill/internal/tui/keys"
	"github.com/matheus3301/quill/internal/tui/ui"
	"github.com/rivo/tview"
)

// ComposerView is the multi-line message input. Key presses the composer
// engine has a rule for are routed to it; everything else edits the text.
type ComposerView struct {
	*tview.TextArea
	theme     *ui.Theme
	engine    *composer.Composer
	channelID string
	// syncing is set while the view replaces its own text, so the change
	// is not echoed back to the engine.
	syncing  bool
	onAction func(composer.Action)
	onEscape func()
}

// NewComposerView creates an unbound composer input.
func NewComposerView(theme *ui.Theme) *ComposerView {
	ta := tview.NewTextArea().
		SetPlaceholder("Write a message. Enter sends, Shift-Enter adds a line.")
	ta.SetBorder(true)
	ta.SetBorderColor(theme.BorderColor)
	ta.SetBackgroundColor(theme.BgColor)
	ta.SetTextStyle(tcell.StyleDefault.Foreground(theme.FgColor).Background(theme.BgColor))
	ta.SetPlaceholderStyle(tcell.StyleDefault.Foreground(theme.MutedColor).Background(theme.BgColor))
	ta.SetTitleColor(theme.TitleColor)
	ta.SetTitleAlign(tview.AlignLeft)

	cv := &ComposerView{TextArea: ta, theme: theme}
	ta.SetInputCapture(cv.capture)
	ta.SetChangedFunc(cv.changed)
	return cv
}

// Bind connects the view to the engine.
func (cv *ComposerView) Bind(engine *composer.Composer) {
	cv.engine = engine
}

// SetOnAction sets the handler for actions that need the network, such
// as submit or history recall. It runs on the UI goroutine.
func (cv *ComposerView) SetOnAction(fn func(composer.Action)) {
	cv.onAction = fn
}

// SetOnEscape sets the handler for leaving the composer.
func (cv *ComposerView) SetOnEscape(fn func()) {
	cv.onEscape = fn
}

// Selection returns the current selection in bytes.
func (cv *ComposerView) Selection() composer.Selection {
	_, start, end := cv.GetSelection()
	return composer.Selection{Start: start, End: end}
}

// ShowText replaces the text for channelID. Updates for another channel
// and unchanged text are ignored.
func (cv *ComposerView) ShowText(channelID, text string) {
	if channelID != cv.channelID {
		return
	}
	cv.setText(text)
}

// Load switches the view to a channel's stored message.
func (cv *ComposerView) Load(channelID, text string) {
	cv.channelID = channelID
	cv.setText(text)
}

func (cv *ComposerView) setText(text string) {
	if cv.GetText() == text {
		return
	}
	cv.syncing = true
	cv.SetText(text, true)
	cv.syncing = false
}

func (cv *ComposerView) changed() {
	if cv.syncing || cv.engine == nil {
		return
	}
	_, start, _ := cv.GetSelection()
	_ = cv.engine.SetMessage(cv.GetText(), start)
}

func (cv *ComposerView) capture(ev *tcell.EventKey) *tcell.EventKey {
	if ev.Key() == tcell.KeyEscape {
		if cv.onEscape != nil {
			cv.onEscape()
		}
		return nil
	}
	if cv.engine == nil {
		return ev
	}
	ke, ok := keys.ComposerEvent(ev)
	if !ok {
		return ev
	}
	action, ok := cv.engine.Dispatch(ke)
	if !ok {
		return ev
	}

	switch action {
	case composer.ActionNewline:
		sel := cv.Selection()
		cv.Replace(sel.Start, sel.End, "\n")
	case composer.ActionBold, composer.ActionItalic, composer.ActionLink:
		sel, err := cv.engine.Perform(context.Background(), action, cv.Selection())
		if err != nil {
			return nil
		}
		cv.setText(cv.engine.Snapshot().Message)
		cv.Select(sel.Start, sel.End)
	default:
		if cv.onAction != nil {
			cv.onAction(action)
		}
	}
	return nil
}

// Render updates the frame from snap.
func (cv *ComposerView) Render(snap composer.Snapshot) {
	switch {
	case snap.Highlight:
		cv.SetBorderColor(cv.theme.HighlightBg)
	case snap.ServerError != nil || snap.PostError != "":
		cv.SetBorderColor(cv.theme.FlashErrColor)
	default:
		cv.SetBorderColor(cv.theme.BorderColor)
	}
	cv.SetTitle(composerTitle(snap))
}

func composerTitle(snap composer.Snapshot) string {
	switch {
	case snap.Submitting:
		return " Sending... "
	case snap.ReplyTo != "":
		return fmt.Sprintf(" Reply to %s (Esc to leave) ", tview.Escape(snap.ReplyTo))
	case snap.State == composer.Editing:
		return " Compose (draft) "
	}
	return " Compose "
}
