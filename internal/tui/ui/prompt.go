package ui

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// PromptMode selects what a prompt line means.
type PromptMode int

const (
	// PromptCommand runs a ":" client command such as :attach or :status.
	PromptCommand PromptMode = iota
	// PromptFilter narrows the channel list.
	PromptFilter
)

var promptLabels = map[PromptMode]struct{ label, title string }{
	PromptCommand: {":", " Command "},
	PromptFilter:  {"/", " Filter channels "},
}

// promptHistoryCap bounds the recall list kept per mode.
const promptHistoryCap = 50

// Prompt is the one-line input for client commands and filters. Up and
// Down recall earlier entries of the active mode.
type Prompt struct {
	*tview.InputField
	theme    *Theme
	mode     PromptMode
	history  map[PromptMode][]string
	cursor   int
	onSubmit func(mode PromptMode, text string)
	onCancel func()
}

func NewPrompt(theme *Theme) *Prompt {
	input := tview.NewInputField()
	input.SetBorder(true)
	input.SetBorderColor(theme.PromptBorderColor)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	p := &Prompt{
		InputField: input,
		theme:      theme,
		history:    make(map[PromptMode][]string),
	}
	input.SetDoneFunc(p.done)
	input.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		switch ev.Key() {
		case tcell.KeyUp:
			p.Recall(-1)
			return nil
		case tcell.KeyDown:
			p.Recall(1)
			return nil
		}
		return ev
	})
	return p
}

func (p *Prompt) done(key tcell.Key) {
	switch key {
	case tcell.KeyEnter:
		text := strings.TrimSpace(p.GetText())
		p.SetText("")
		if text == "" {
			return
		}
		p.remember(text)
		if p.onSubmit != nil {
			p.onSubmit(p.mode, text)
		}
	case tcell.KeyEscape:
		p.SetText("")
		if p.onCancel != nil {
			p.onCancel()
		}
	}
}

func (p *Prompt) remember(text string) {
	h := p.history[p.mode]
	if n := len(h); n > 0 && h[n-1] == text {
		return
	}
	h = append(h, text)
	if len(h) > promptHistoryCap {
		h = h[len(h)-promptHistoryCap:]
	}
	p.history[p.mode] = h
}

// Recall moves through the active mode's history by delta and shows the
// entry. Moving past the newest entry empties the line.
func (p *Prompt) Recall(delta int) {
	h := p.history[p.mode]
	next := p.cursor + delta
	if next < 0 || next > len(h) {
		return
	}
	p.cursor = next
	if next == len(h) {
		p.SetText("")
		return
	}
	p.SetText(h[next])
}

func (p *Prompt) SetOnSubmit(fn func(mode PromptMode, text string)) { p.onSubmit = fn }

func (p *Prompt) SetOnCancel(fn func()) { p.onCancel = fn }

// Activate clears the line and switches it to mode.
func (p *Prompt) Activate(mode PromptMode) {
	p.mode = mode
	p.cursor = len(p.history[mode])
	p.SetText("")
	l := promptLabels[mode]
	p.SetLabel(l.label)
	p.SetTitle(l.title)
}

func (p *Prompt) Mode() PromptMode { return p.mode }
