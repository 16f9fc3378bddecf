package views

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/matheus3301/quill/internal/tui/ui"
	"github.com/rivo/tview"
)

// AuthView walks the user through QR pairing.
type AuthView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewAuthView creates a new auth view.
func NewAuthView(theme *ui.Theme) *AuthView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Pair Device ")
	tv.SetTitleColor(theme.TitleColor)

	return &AuthView{
		TextView: tv,
		theme:    theme,
	}
}

// Name implements ui.Component.
func (av *AuthView) Name() string { return "Pairing" }

// Hints implements ui.Component.
func (av *AuthView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "r", Description: "Retry"},
		{Key: "Esc", Description: "Back"},
	}
}

// ShowQR renders a pairing code as a scannable block.
func (av *AuthView) ShowQR(content string) {
	av.Clear()
	av.SetBorderColor(av.theme.BorderColor)
	_, _ = fmt.Fprintf(av, "\n  Link this device: open the app on your phone and scan the code.\n\n%s\n  [::d]Waiting for the phone...", renderQR(content))
}

// ShowMessage displays a status line.
func (av *AuthView) ShowMessage(msg string) {
	av.Clear()
	av.SetBorderColor(av.theme.BorderColor)
	_, _ = fmt.Fprintf(av, "\n\n%s", tview.Escape(msg))
}

// ShowFailure displays a pairing failure with a retry hint.
func (av *AuthView) ShowFailure(msg string) {
	av.Clear()
	av.SetBorderColor(av.theme.FlashErrColor)
	_, _ = fmt.Fprintf(av, "\n\n[%s]%s[-]\n\n[::d]Press r to request a new code.",
		ui.ColorName(av.theme.FlashErrColor), tview.Escape(msg))
}

// renderQR draws content as a QR code, two modules per cell using
// half-block characters.
func renderQR(content string) string {
	qr, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return "  (cannot draw code: " + tview.Escape(err.Error()) + ")"
	}

	bitmap := qr.Bitmap()
	rows := len(bitmap)
	cols := 0
	if rows > 0 {
		cols = len(bitmap[0])
	}

	var sb strings.Builder

	for y := 0; y < rows; y += 2 {
		sb.WriteString("  ")
		for x := 0; x < cols; x++ {
			top := bitmap[y][x]
			bot := false
			if y+1 < rows {
				bot = bitmap[y+1][x]
			}
			switch {
			case top && bot:
				sb.WriteRune('\u2588') // █
			case top && !bot:
				sb.WriteRune('\u2580') // ▀
			case !top && bot:
				sb.WriteRune('\u2584') // ▄
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}

	return sb.String()
}
