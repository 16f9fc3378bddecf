package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/quill/internal/composer"
	"github.com/matheus3301/quill/internal/media"
	"github.com/matheus3301/quill/internal/tui/ui"
	"github.com/rivo/tview"
)

type attachment struct {
	id    string
	label string
	busy  bool
}

// FileStrip lists the draft's attachments, uploaded files first, then
// uploads in progress. Entries are numbered from 1 for :remove.
type FileStrip struct {
	*tview.TextView
	theme   *ui.Theme
	entries []attachment
}

// NewFileStrip creates an empty file strip.
func NewFileStrip(theme *ui.Theme) *FileStrip {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	return &FileStrip{TextView: tv, theme: theme}
}

// Render shows the attachments of snap.
func (fs *FileStrip) Render(snap composer.Snapshot) {
	fs.entries = attachments(snap)
	fs.Clear()
	if len(fs.entries) == 0 {
		return
	}
	muted := ui.ColorName(fs.theme.MutedColor)
	pending := ui.ColorName(fs.theme.PendingColor)
	parts := make([]string, 0, len(fs.entries))
	for i, e := range fs.entries {
		color := ui.ColorName(fs.theme.FgColor)
		if e.busy {
			color = pending
		}
		parts = append(parts, fmt.Sprintf("[%s]%d[-] [%s]%s[-]", muted, i+1, color, display(e.label)))
	}
	_, _ = fmt.Fprint(fs, " 📎 "+strings.Join(parts, "  "))
}

// Len returns the number of entries shown.
func (fs *FileStrip) Len() int {
	return len(fs.entries)
}

// IDAt returns the file or upload ID of entry n (1-based).
func (fs *FileStrip) IDAt(n int) (string, bool) {
	if n < 1 || n > len(fs.entries) {
		return "", false
	}
	return fs.entries[n-1].id, true
}

// Uploaded reports whether entry n is a finished upload.
func (fs *FileStrip) Uploaded(n int) bool {
	return n >= 1 && n <= len(fs.entries) && !fs.entries[n-1].busy
}

func attachments(snap composer.Snapshot) []attachment {
	out := make([]attachment, 0, len(snap.FileInfos)+len(snap.Uploads))
	for _, f := range snap.FileInfos {
		label := f.Name
		if dim := media.Dimensions(f.Width, f.Height); dim != "" {
			label += " " + dim
		}
		label += " " + media.HumanSize(f.Size)
		if media.IsSmall(f.Width, f.Height) {
			label += " (small)"
		}
		out = append(out, attachment{id: f.ID, label: label})
	}
	for _, u := range snap.Uploads {
		out = append(out, attachment{id: u.ClientID, label: fmt.Sprintf("uploading %d%%", u.Percent), busy: true})
	}
	return out
}
