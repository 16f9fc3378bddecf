package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/rivo/tview"
)

// StatusBar displays persistent session, sync and composer status.
type StatusBar struct {
	*tview.TextView
	session  string
	state    string
	syncing  bool
	composer string
	uploads  int
	now      func() time.Time
}

// NewStatusBar creates a new status bar.
func NewStatusBar() *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv, now: time.Now}
}

// SetSession updates the session name display.
func (sb *StatusBar) SetSession(name string) {
	sb.session = name
	sb.render()
}

// SetState updates the daemon state display.
func (sb *StatusBar) SetState(state string, syncing bool) {
	sb.state = state
	sb.syncing = syncing
	sb.render()
}

// SetComposer updates the composer state and upload count.
func (sb *StatusBar) SetComposer(state string, uploads int) {
	sb.composer = state
	sb.uploads = uploads
	sb.render()
}

// Tick redraws the clock.
func (sb *StatusBar) Tick() {
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()
	_, _ = fmt.Fprint(sb, sb.line())
}

func (sb *StatusBar) line() string {
	parts := []string{fmt.Sprintf(" [::b]%s[-:-:-]", tview.Escape(sb.session))}

	state := strings.ToLower(sb.state)
	if state == "" {
		state = "-"
	}
	if sb.syncing {
		state += " [green]~[-]"
	}
	parts = append(parts, state)

	if sb.composer != "" && sb.composer != "idle" {
		c := sb.composer
		if sb.uploads > 0 {
			c += fmt.Sprintf(" (%d uploading)", sb.uploads)
		}
		parts = append(parts, c)
	} else if sb.uploads > 0 {
		parts = append(parts, fmt.Sprintf("%d uploading", sb.uploads))
	}

	parts = append(parts, sb.now().Format("15:04"))
	return strings.Join(parts, " | ")
}
