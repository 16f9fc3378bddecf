package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// maxCrumbs is how many trailing crumbs are drawn; older ones collapse
// into an ellipsis.
const maxCrumbs = 4

// Crumbs shows the page stack as a trail, the active page last.
type Crumbs struct {
	*tview.TextView
	theme *Theme
}

func NewCrumbs(theme *Theme) *Crumbs {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	return &Crumbs{TextView: tv, theme: theme}
}

// Update redraws the trail. Names may be channel names and are escaped.
func (c *Crumbs) Update(names []string) {
	c.Clear()
	if len(names) == 0 {
		return
	}
	var b strings.Builder
	if len(names) > maxCrumbs {
		fmt.Fprintf(&b, "[%s] … [-]", colorName(c.theme.CrumbInactiveFg))
		names = names[len(names)-maxCrumbs:]
	}
	last := len(names) - 1
	for i, name := range names {
		fg, bg, attr := c.theme.CrumbInactiveFg, c.theme.CrumbInactiveBg, ""
		if i == last {
			fg, bg, attr = c.theme.CrumbActiveFg, c.theme.CrumbActiveBg, "b"
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "[%s:%s:%s] %s [-:-:-]", colorName(fg), colorName(bg), attr, tview.Escape(name))
	}
	_, _ = fmt.Fprint(c, b.String())
}

// colorName returns the tview tag for c: its name when tcell knows one,
// otherwise a hex triplet.
func colorName(c tcell.Color) string {
	for name, val := range tcell.ColorNames {
		if val == c {
			return name
		}
	}
	return fmt.Sprintf("#%06x", c.Hex())
}
