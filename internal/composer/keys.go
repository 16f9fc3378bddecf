package composer

import (
	"context"
	"strings"
	"unicode"

	"github.com/matheus3301/quill/internal/domain"
)

// Key is a named key. Printable keys use KeyRune.
type Key int

const (
	KeyRune Key = iota
	KeyEnter
	KeyUp
	KeyDown
)

// KeyEvent is a key press, independent of the terminal library.
type KeyEvent struct {
	Key   Key
	Rune  rune
	Ctrl  bool
	Alt   bool
	Shift bool
}

func (e KeyEvent) plain() bool { return !e.Ctrl && !e.Alt && !e.Shift }

func (e KeyEvent) is(r rune) bool {
	return e.Key == KeyRune && unicode.ToLower(e.Rune) == r
}

// Action is what a key press asks the composer to do.
type Action int

const (
	ActionNone Action = iota
	ActionNewline
	ActionSubmit
	ActionForceSubmit
	ActionEditLast
	ActionReplyLatest
	ActionHistoryBack
	ActionHistoryForward
	ActionBold
	ActionItalic
	ActionLink
)

// keyState is what rules may look at.
type keyState struct {
	ctrlSend bool
	message  string
	// recalled is the text the last history recall filled in.
	recalled string
}

// historyFree reports whether history keys may replace the message: it is
// empty or still exactly what a recall put there.
func (s keyState) historyFree() bool {
	return s.message == "" || s.message == s.recalled
}

type keyRule struct {
	name   string
	match  func(e KeyEvent, s keyState) bool
	action Action
}

// keyRules is evaluated in order; the first match wins.
var keyRules = []keyRule{
	{"newline-modifier", func(e KeyEvent, s keyState) bool {
		return e.Key == KeyEnter && !e.Ctrl && (e.Shift || e.Alt)
	}, ActionNewline},
	{"force-submit", func(e KeyEvent, s keyState) bool {
		return e.Key == KeyEnter && e.Ctrl && !e.Alt && !e.Shift
	}, ActionForceSubmit},
	{"newline-ctrl-send", func(e KeyEvent, s keyState) bool {
		return e.Key == KeyEnter && e.plain() && s.ctrlSend
	}, ActionNewline},
	{"newline-code-fence", func(e KeyEvent, s keyState) bool {
		return e.Key == KeyEnter && e.plain() && openCodeFence(s.message)
	}, ActionNewline},
	{"submit", func(e KeyEvent, s keyState) bool {
		return e.Key == KeyEnter && e.plain()
	}, ActionSubmit},
	{"edit-last", func(e KeyEvent, s keyState) bool {
		return e.Key == KeyUp && e.plain() && s.message == ""
	}, ActionEditLast},
	{"reply-latest", func(e KeyEvent, s keyState) bool {
		return e.Key == KeyUp && e.Shift && !e.Ctrl && !e.Alt && s.message == ""
	}, ActionReplyLatest},
	{"history-back", func(e KeyEvent, s keyState) bool {
		return e.Key == KeyUp && e.Ctrl && !e.Alt && !e.Shift && s.historyFree()
	}, ActionHistoryBack},
	{"history-forward", func(e KeyEvent, s keyState) bool {
		return e.Key == KeyDown && e.Ctrl && !e.Alt && !e.Shift && s.historyFree()
	}, ActionHistoryForward},
	{"bold", func(e KeyEvent, s keyState) bool {
		return e.is('b') && (e.Ctrl || e.Alt) && !e.Shift
	}, ActionBold},
	{"italic", func(e KeyEvent, s keyState) bool {
		return e.is('i') && (e.Ctrl || e.Alt) && !e.Shift
	}, ActionItalic},
	{"link", func(e KeyEvent, s keyState) bool {
		return e.is('k') && e.Alt && !e.Shift
	}, ActionLink},
}

// openCodeFence reports whether text ends inside a ``` block.
func openCodeFence(text string) bool {
	return strings.Count(text, "```")%2 == 1
}

// Dispatch maps a key press to an action using the rule table.
func (c *Composer) Dispatch(e KeyEvent) (Action, bool) {
	c.mu.Lock()
	s := keyState{ctrlSend: c.cfg.CtrlSend}
	if c.channel != nil {
		s.message = c.draftLocked(c.channel.ID).Message
		s.recalled = c.recalled[c.channel.ID]
	}
	c.mu.Unlock()

	for _, r := range keyRules {
		if r.match(e, s) {
			return r.action, true
		}
	}
	return ActionNone, false
}

// Selection is a byte range in the message.
type Selection struct {
	Start, End int
}

// Perform runs action. Markup actions rewrite the message around sel and
// return the new selection; other actions return sel unchanged.
func (c *Composer) Perform(ctx context.Context, action Action, sel Selection) (Selection, error) {
	switch action {
	case ActionSubmit, ActionForceSubmit:
		_, err := c.Submit(ctx)
		return sel, err
	case ActionEditLast:
		return sel, c.editLast(ctx)
	case ActionReplyLatest:
		return sel, c.replyLatest(ctx)
	case ActionHistoryBack:
		return sel, c.recall(ctx, c.deps.History.MoveHistoryBack)
	case ActionHistoryForward:
		return sel, c.recall(ctx, c.deps.History.MoveHistoryForward)
	case ActionBold, ActionItalic, ActionLink:
		return c.markup(action, sel)
	}
	return sel, nil
}

func (c *Composer) editLast(ctx context.Context) error {
	c.mu.Lock()
	ch, user := c.channel, c.user
	c.mu.Unlock()
	if ch == nil || user == nil {
		return ErrNotReady
	}
	p, err := c.deps.Posts.LatestOwnPost(ctx, ch.ID, user.ID)
	if err != nil || p == nil {
		return err
	}
	c.deps.View.EditPost(p)
	return nil
}

func (c *Composer) replyLatest(ctx context.Context) error {
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()
	if ch == nil {
		return ErrNotReady
	}
	p, err := c.deps.Posts.LatestRepliablePost(ctx, ch.ID)
	if err != nil || p == nil {
		return err
	}
	c.SetReplyTo(p.ID)
	c.deps.View.ReplyTo(p)
	return nil
}

// recall moves the post-history cursor and fills the message from it. The
// filled text is not persisted until the user edits it. Text the user typed
// since the last recall is never replaced.
func (c *Composer) recall(ctx context.Context, move func(context.Context, domain.HistoryKind) error) error {
	c.mu.Lock()
	if c.channel == nil {
		c.mu.Unlock()
		return ErrNotReady
	}
	id := c.channel.ID
	free := c.historyFreeLocked(id)
	c.mu.Unlock()
	if !free {
		return nil
	}

	if err := move(ctx, domain.HistoryPost); err != nil {
		return err
	}
	text, err := c.deps.History.CurrentHistory(ctx, domain.HistoryPost)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if !c.historyFreeLocked(id) {
		c.mu.Unlock()
		return nil
	}
	show := c.setMessageLocked(id, text)
	c.recalled[id] = text
	c.mu.Unlock()
	if show {
		c.deps.View.SetMessage(id, text)
	}
	c.deps.View.Refresh()
	return nil
}

func (c *Composer) historyFreeLocked(channelID string) bool {
	return keyState{
		message:  c.draftLocked(channelID).Message,
		recalled: c.recalled[channelID],
	}.historyFree()
}

func (c *Composer) markup(action Action, sel Selection) (Selection, error) {
	c.mu.Lock()
	if c.channel == nil {
		c.mu.Unlock()
		return sel, ErrNotReady
	}
	id := c.channel.ID
	text := c.draftLocked(id).Message
	c.mu.Unlock()

	var out string
	switch action {
	case ActionBold:
		out, sel = ApplyMarkup(text, sel, MarkupBold)
	case ActionItalic:
		out, sel = ApplyMarkup(text, sel, MarkupItalic)
	default:
		out, sel = ApplyMarkup(text, sel, MarkupLink)
	}
	if out == text {
		return sel, nil
	}

	c.mu.Lock()
	d := c.draftLocked(id)
	d.Message = out
	d.Caret = sel.End
	delete(c.recalled, id)
	c.postError = c.lengthError(out)
	c.mu.Unlock()
	c.deps.View.SetMessage(id, out)
	c.schedule(id)
	return sel, nil
}
