package views

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheus3301/quill/internal/composer"
	"github.com/matheus3301/quill/internal/domain"
	"github.com/matheus3301/quill/internal/tui/ui"
)

func TestSanitizeForTerminal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"skin tone", "\U0001F44D\U0001F3FD", "\U0001F44D"},
		{"zwj", "a\u200db", "ab"},
		{"variation selector", "\u2764\ufe0f", "\u2764"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeForTerminal(tt.in))
		})
	}
}

func TestDisplayEscapesTags(t *testing.T) {
	assert.Equal(t, "[red[]x", display("[red]x"))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "short", firstLine("short", 10))
	assert.Equal(t, "one …", firstLine("one\ntwo", 10))
	assert.Equal(t, "abcd…", firstLine("abcdefgh", 5))
}

func TestFormatTimestamp(t *testing.T) {
	assert.Empty(t, formatTimestamp(0))
	now := time.Now()
	assert.Equal(t, now.Format("15:04"), formatTimestamp(now.UnixMilli()))
	old := now.AddDate(-1, 0, 0)
	assert.Equal(t, old.Format("01/02"), formatTimestamp(old.UnixMilli()))
}

func TestChannelKind(t *testing.T) {
	assert.Equal(t, "PUBLIC", channelKind(domain.ChannelOpen))
	assert.Equal(t, "DM", channelKind(domain.ChannelDirect))
	assert.Equal(t, "GROUP", channelKind(domain.ChannelGroup))
}

func TestNotifyAllText(t *testing.T) {
	got := NotifyAllText(composer.NotifyAllPrompt{Mentions: []string{"@all"}, MemberCount: 9})
	assert.Equal(t, "By using @all you are about to send notifications to 9 people. Are you sure you want to do this?", got)

	got = NotifyAllText(composer.NotifyAllPrompt{Mentions: []string{"@here", "@channel"}, MemberCount: 20, TimezoneCount: 3})
	assert.Contains(t, got, "@here and @channel")
	assert.Contains(t, got, "20 people in 3 timezones")
}

func TestResetStatusText(t *testing.T) {
	assert.Equal(t, `Your status is set to "Out of Office". Would you like to change it to "online"?`, ResetStatusText("online"))
}

func TestFileStrip(t *testing.T) {
	fs := NewFileStrip(ui.DefaultTheme())
	fs.Render(composer.Snapshot{
		FileInfos: []domain.FileInfo{
			{ID: "f1", Name: "notes.txt", Size: 5},
			{ID: "f2", Name: "icon.png", Size: 2048, Width: 16, Height: 16},
		},
		Uploads: []composer.Upload{{ClientID: "c1", Percent: 40}},
	})

	require.Equal(t, 3, fs.Len())
	id, ok := fs.IDAt(3)
	require.True(t, ok)
	assert.Equal(t, "c1", id)
	assert.True(t, fs.Uploaded(1))
	assert.False(t, fs.Uploaded(3))
	_, ok = fs.IDAt(4)
	assert.False(t, ok)

	text := fs.GetText(true)
	assert.Contains(t, text, "notes.txt 5B")
	assert.Contains(t, text, "icon.png 16 × 16 2.0KB (small)")
	assert.Contains(t, text, "uploading 40%")

	fs.Render(composer.Snapshot{})
	assert.Zero(t, fs.Len())
}

func TestRenderPostsOldestFirst(t *testing.T) {
	posts := []*domain.Post{
		{ID: "p2", UserID: "u2", Message: "second", Status: domain.PostStatusFailed, CreateAt: 2},
		{ID: "p1", UserID: "u1", Message: "first", EditAt: 5, CreateAt: 1},
		{ID: "p0", Type: domain.SystemPostPrefix + "join", Message: "u1 joined", CreateAt: 0},
	}
	names := func(id string) string { return strings.ToUpper(id) }
	out := renderPosts(posts, names, ui.DefaultTheme())

	first := strings.Index(out, "first")
	second := strings.Index(out, "second")
	join := strings.Index(out, "u1 joined")
	require.True(t, join >= 0 && first > join && second > first, out)
	assert.Contains(t, out, "U1")
	assert.Contains(t, out, "(edited)")
	assert.Contains(t, out, "(failed)")
	assert.NotContains(t, out, "(sending)")
}

func TestComposerTitle(t *testing.T) {
	assert.Equal(t, " Compose ", composerTitle(composer.Snapshot{}))
	assert.Equal(t, " Sending... ", composerTitle(composer.Snapshot{Submitting: true, State: composer.Submitting}))
	assert.Equal(t, " Compose (draft) ", composerTitle(composer.Snapshot{State: composer.Editing}))
}

func TestStatusBarLine(t *testing.T) {
	sb := NewStatusBar()
	sb.now = func() time.Time { return time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC) }
	sb.session = "work"
	sb.state = "SYNCING"
	sb.syncing = true
	sb.composer = "editing"
	sb.uploads = 2
	assert.Equal(t, " [::b]work[-:-:-] | syncing [green]~[-] | editing (2 uploading) | 09:30", sb.line())
}
