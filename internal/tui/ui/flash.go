package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/rivo/tview"
	"k8s.io/utils/clock"
)

// FlashLevel is the severity of a status-line notice.
type FlashLevel int

const (
	FlashInfo FlashLevel = iota
	FlashWarn
	FlashErr
)

// flashTTL is how long a notice of each level stays on the status line.
var flashTTL = [...]time.Duration{
	FlashInfo: 5 * time.Second,
	FlashWarn: 8 * time.Second,
	FlashErr:  10 * time.Second,
}

// FlashMessage is one notice. Repeats counts identical notices posted
// while it was still showing, so a burst of upload failures reads as one
// line instead of flickering.
type FlashMessage struct {
	Text    string
	Level   FlashLevel
	Repeats int
	Expires time.Time
}

// FlashModel holds the current status-line notice.
type FlashModel struct {
	clock   clock.PassiveClock
	mu      sync.RWMutex
	current FlashMessage
	watchCh chan FlashMessage
}

// NewFlashModel creates a flash model on the real clock.
func NewFlashModel() *FlashModel {
	return NewFlashModelWithClock(clock.RealClock{})
}

// NewFlashModelWithClock creates a flash model whose expiry follows clk.
func NewFlashModelWithClock(clk clock.PassiveClock) *FlashModel {
	return &FlashModel{
		clock:   clk,
		watchCh: make(chan FlashMessage, 8),
	}
}

func (f *FlashModel) Info(msg string) { f.post(msg, FlashInfo) }

func (f *FlashModel) Warn(msg string) { f.post(msg, FlashWarn) }

func (f *FlashModel) Err(err error) { f.post(err.Error(), FlashErr) }

// Errf posts an error notice prefixed with what was being attempted.
func (f *FlashModel) Errf(prefix string, err error) {
	f.post(prefix+": "+err.Error(), FlashErr)
}

func (f *FlashModel) post(text string, level FlashLevel) {
	now := f.clock.Now()
	f.mu.Lock()
	fm := FlashMessage{Text: text, Level: level}
	if cur := f.current; cur.Text == text && cur.Level == level && now.Before(cur.Expires) {
		fm.Repeats = cur.Repeats + 1
	}
	fm.Expires = now.Add(flashTTL[level])
	f.current = fm
	f.mu.Unlock()

	select {
	case f.watchCh <- fm:
	default:
	}
}

// Clear drops the current notice.
func (f *FlashModel) Clear() {
	f.mu.Lock()
	f.current = FlashMessage{}
	f.mu.Unlock()
}

// Get returns the live notice text, or "" once it expired.
func (f *FlashModel) Get() string {
	if m := f.GetMessage(); m != nil {
		return m.Text
	}
	return ""
}

// GetMessage returns the live notice, or nil once it expired.
func (f *FlashModel) GetMessage() *FlashMessage {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.current.Text == "" || !f.clock.Now().Before(f.current.Expires) {
		return nil
	}
	m := f.current
	return &m
}

// Watch delivers every posted notice. Slow readers miss notices rather
// than block the poster.
func (f *FlashModel) Watch() <-chan FlashMessage {
	return f.watchCh
}

// FlashBar renders the current notice under the main view.
type FlashBar struct {
	*tview.TextView
	theme *Theme
}

func NewFlashBar(theme *Theme) *FlashBar {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	return &FlashBar{TextView: tv, theme: theme}
}

// Update redraws the bar; a nil message blanks it.
func (fb *FlashBar) Update(msg *FlashMessage) {
	fb.Clear()
	if msg == nil {
		return
	}
	color := fb.theme.FlashInfoColor
	switch msg.Level {
	case FlashWarn:
		color = fb.theme.FlashWarnColor
	case FlashErr:
		color = fb.theme.FlashErrColor
	}
	text := tview.Escape(msg.Text)
	if msg.Repeats > 0 {
		text = fmt.Sprintf("%s [%s](x%d)", text, colorName(fb.theme.MutedColor), msg.Repeats+1)
	}
	_, _ = fmt.Fprintf(fb, " [%s]%s[-]", colorName(color), text)
}
