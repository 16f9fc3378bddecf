package keys

import (
	"sort"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/quill/internal/composer"
)

// Action represents a keybinding action.
type Action struct {
	Key         tcell.Key
	Rune        rune
	Description string
	Handler     func()
	Visible     bool
}

// Matches returns true if the event matches this action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

// Registry holds keybindings organized by scope.
type Registry struct {
	Global map[string]*Action
	Views  map[string]map[string]*Action
}

// NewRegistry creates a new keybinding registry.
func NewRegistry() *Registry {
	return &Registry{
		Global: make(map[string]*Action),
		Views:  make(map[string]map[string]*Action),
	}
}

// AddGlobal registers a global keybinding.
func (r *Registry) AddGlobal(name string, action *Action) {
	r.Global[name] = action
}

// AddView registers a view-specific keybinding.
func (r *Registry) AddView(view, name string, action *Action) {
	if r.Views[view] == nil {
		r.Views[view] = make(map[string]*Action)
	}
	r.Views[view][name] = action
}

// Hints returns visible keybinding descriptions for a given view, view
// bindings first, each group sorted.
func (r *Registry) Hints(view string) []string {
	var hints []string
	if viewBindings, ok := r.Views[view]; ok {
		hints = append(hints, visible(viewBindings)...)
	}
	return append(hints, visible(r.Global)...)
}

func visible(actions map[string]*Action) []string {
	var out []string
	for _, a := range actions {
		if a.Visible {
			out = append(out, a.Description)
		}
	}
	sort.Strings(out)
	return out
}

// HandleEvent dispatches a key event to matching action in the given view.
// Returns true if a handler matched.
func (r *Registry) HandleEvent(view string, ev *tcell.EventKey) bool {
	// Check view-specific bindings first.
	if viewBindings, ok := r.Views[view]; ok {
		for _, a := range viewBindings {
			if a.Matches(ev) {
				a.Handler()
				return true
			}
		}
	}
	// Check global bindings.
	for _, a := range r.Global {
		if a.Matches(ev) {
			a.Handler()
			return true
		}
	}
	return false
}

// ComposerEvent translates a terminal key press into the composer's key
// model. ok is false for keys the composer has no rule for.
func ComposerEvent(ev *tcell.EventKey) (e composer.KeyEvent, ok bool) {
	mods := ev.Modifiers()
	e.Ctrl = mods&tcell.ModCtrl != 0
	e.Alt = mods&tcell.ModAlt != 0
	e.Shift = mods&tcell.ModShift != 0

	switch ev.Key() {
	case tcell.KeyEnter:
		e.Key = composer.KeyEnter
	case tcell.KeyUp:
		e.Key = composer.KeyUp
	case tcell.KeyDown:
		e.Key = composer.KeyDown
	case tcell.KeyRune:
		e.Key = composer.KeyRune
		e.Rune = ev.Rune()
	case tcell.KeyCtrlB:
		e.Key, e.Rune, e.Ctrl = composer.KeyRune, 'b', true
	case tcell.KeyCtrlI:
		// Ctrl-I and Tab share a code; only the modified form is italic.
		if !e.Ctrl {
			return e, false
		}
		e.Key, e.Rune = composer.KeyRune, 'i'
	default:
		return e, false
	}
	return e, true
}
