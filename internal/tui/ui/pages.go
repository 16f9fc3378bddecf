package ui

import (
	"slices"

	"github.com/rivo/tview"
)

// Pages keeps the app's page stack on top of tview.Pages. The bottom
// entry is the root page and always stays on the stack.
type Pages struct {
	*tview.Pages
	stack    []string
	onChange func(stack []string)
}

func NewPages() *Pages {
	return &Pages{Pages: tview.NewPages()}
}

// SetOnChange registers fn to receive a copy of the stack after every
// change.
func (p *Pages) SetOnChange(fn func(stack []string)) {
	p.onChange = fn
}

// Push shows name on top of the stack. Pushing the page already on top
// does nothing.
func (p *Pages) Push(name string) {
	top := p.Current()
	if top == name {
		return
	}
	if top != "" {
		p.HidePage(top)
	}
	p.stack = append(p.stack, name)
	p.show(name)
}

// Pop drops the top page and returns its name. At the root it returns ""
// and leaves the stack alone.
func (p *Pages) Pop() string {
	if len(p.stack) < 2 {
		return ""
	}
	top := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	p.HidePage(top)
	p.show(p.Current())
	return top
}

// Reset makes name the only page on the stack.
func (p *Pages) Reset(name string) {
	for _, n := range p.stack {
		p.HidePage(n)
	}
	p.stack = append(p.stack[:0], name)
	p.show(name)
}

// Current is the top page, or "" before the first Reset.
func (p *Pages) Current() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1]
}

func (p *Pages) Stack() []string { return slices.Clone(p.stack) }

func (p *Pages) Depth() int { return len(p.stack) }

func (p *Pages) show(name string) {
	p.ShowPage(name)
	p.SendToFront(name)
	if p.onChange != nil {
		p.onChange(p.Stack())
	}
}
