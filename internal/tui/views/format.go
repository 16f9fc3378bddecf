package views

import (
	"strings"
	"time"

	"github.com/matheus3301/quill/internal/domain"
)

func formatTimestamp(ms int64) string {
	if ms == 0 {
		return ""
	}
	t := time.UnixMilli(ms)
	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("01/02")
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func channelKind(t domain.ChannelType) string {
	switch t {
	case domain.ChannelOpen:
		return "PUBLIC"
	case domain.ChannelPrivate:
		return "PRIVATE"
	case domain.ChannelDirect:
		return "DM"
	case domain.ChannelGroup:
		return "GROUP"
	}
	return string(t)
}

// firstLine returns the first line of s, cut to max runes.
func firstLine(s string, max int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + " …"
	}
	r := []rune(s)
	if len(r) > max {
		return string(r[:max-1]) + "…"
	}
	return s
}
