package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// Menu displays keyboard shortcut hints in a vertical list.
type Menu struct {
	*tview.TextView
	theme *Theme
}

// NewMenu creates a new menu hint bar.
func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 2, 0)

	return &Menu{
		TextView: tv,
		theme:    theme,
	}
}

// menuRows is the header height; longer hint lists wrap into columns.
const menuRows = 6

// Update renders menu hints column by column, menuRows per column.
func (m *Menu) Update(hints []MenuHint) {
	m.Clear()

	keyColor := colorName(m.theme.MenuKeyColor)
	numColor := colorName(m.theme.NumericKeyColor)

	cells := make([]string, len(hints))
	for i, h := range hints {
		kc := keyColor
		if h.Numeric {
			kc = numColor
		}
		cells[i] = fmt.Sprintf("[%s::b]%-9s[-:-:-] %-14s", kc, "<"+h.Key+">", h.Description)
	}
	for row := 0; row < menuRows && row < len(cells); row++ {
		for i := row; i < len(cells); i += menuRows {
			_, _ = fmt.Fprint(m, cells[i])
		}
		_, _ = fmt.Fprint(m, "\n")
	}
}
