package composer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheus3301/quill/internal/domain"
)

var (
	enter     = KeyEvent{Key: KeyEnter}
	up        = KeyEvent{Key: KeyUp}
	ctrlUp    = KeyEvent{Key: KeyUp, Ctrl: true}
	ctrlDown  = KeyEvent{Key: KeyDown, Ctrl: true}
	ctrlEnter = KeyEvent{Key: KeyEnter, Ctrl: true}
)

func TestDispatch(t *testing.T) {
	tests := []struct {
		name     string
		ctrlSend bool
		message  string
		event    KeyEvent
		want     Action
	}{
		{"enter submits", false, "hi", enter, ActionSubmit},
		{"shift enter", false, "hi", KeyEvent{Key: KeyEnter, Shift: true}, ActionNewline},
		{"alt enter", false, "hi", KeyEvent{Key: KeyEnter, Alt: true}, ActionNewline},
		{"ctrl enter", false, "hi", ctrlEnter, ActionForceSubmit},
		{"ctrl send enter", true, "hi", enter, ActionNewline},
		{"ctrl send ctrl enter", true, "hi", ctrlEnter, ActionForceSubmit},
		{"open fence", false, "```go\nfmt.Println()", enter, ActionNewline},
		{"open fence forced", false, "```go\nfmt.Println()", ctrlEnter, ActionForceSubmit},
		{"closed fence", false, "```go\nx\n```", enter, ActionSubmit},
		{"up on empty", false, "", up, ActionEditLast},
		{"shift up on empty", false, "", KeyEvent{Key: KeyUp, Shift: true}, ActionReplyLatest},
		{"ctrl up", false, "", ctrlUp, ActionHistoryBack},
		{"ctrl down", false, "", ctrlDown, ActionHistoryForward},
		{"ctrl b", false, "x", KeyEvent{Key: KeyRune, Rune: 'b', Ctrl: true}, ActionBold},
		{"alt i", false, "x", KeyEvent{Key: KeyRune, Rune: 'i', Alt: true}, ActionItalic},
		{"alt k", false, "x", KeyEvent{Key: KeyRune, Rune: 'k', Alt: true}, ActionLink},
		{"plain rune", false, "x", KeyEvent{Key: KeyRune, Rune: 'b'}, ActionNone},
		{"up while typing", false, "x", up, ActionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, func(c *Config) { c.CtrlSend = tt.ctrlSend })
			f.typeMessage(t, tt.message)

			got, ok := f.c.Dispatch(tt.event)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want != ActionNone, ok)
		})
	}
}

func TestHistoryKeysNeedEmptyDraft(t *testing.T) {
	f := newFixture(t)
	f.typeMessage(t, "draft in progress")
	f.settle(t, "town-square", 1)

	_, ok := f.c.Dispatch(ctrlUp)
	assert.False(t, ok)
}

func TestHistoryRecall(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.history.Add("first"))
	require.NoError(t, f.history.Add("second"))
	ctx := context.Background()

	step := func(e KeyEvent) string {
		t.Helper()
		action, ok := f.c.Dispatch(e)
		require.True(t, ok, "history keys stay active while the message is empty or recalled")
		_, err := f.c.Perform(ctx, action, Selection{})
		require.NoError(t, err)
		return f.c.Snapshot().Message
	}

	assert.Equal(t, "second", step(ctrlUp))
	assert.Equal(t, "first", step(ctrlUp))
	assert.Equal(t, "first", step(ctrlUp), "stops at the oldest entry")
	assert.Equal(t, "second", step(ctrlDown))
	assert.Equal(t, "", step(ctrlDown))
	assert.Equal(t, 0, f.drafts.count("town-square"), "recalled text is not persisted")
}

func TestHistoryKeysKeepUnsavedText(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.history.Add("old entry"))
	f.typeMessage(t, "half-written thought")

	_, ok := f.c.Dispatch(ctrlUp)
	assert.False(t, ok, "typed text is live before the debounced write lands")

	_, err := f.c.Perform(context.Background(), ActionHistoryBack, Selection{})
	require.NoError(t, err)
	assert.Equal(t, "half-written thought", f.c.Snapshot().Message)
	assert.Equal(t, "", f.history.Current(domain.HistoryPost), "cursor did not move")
}

func TestEditingRecalledTextEndsRecall(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.history.Add("old entry"))

	action, ok := f.c.Dispatch(ctrlUp)
	require.True(t, ok)
	_, err := f.c.Perform(context.Background(), action, Selection{})
	require.NoError(t, err)
	require.Equal(t, "old entry", f.c.Snapshot().Message)

	f.typeMessage(t, "old entry, amended")
	_, ok = f.c.Dispatch(ctrlDown)
	assert.False(t, ok)
}

func TestEditLastAndReply(t *testing.T) {
	f := newFixture(t)
	f.posts.own = &domain.Post{ID: "mine", Message: "tpyo"}
	f.posts.latest = &domain.Post{ID: "theirs", Message: "lunch?"}
	ctx := context.Background()

	_, err := f.c.Perform(ctx, ActionEditLast, Selection{})
	require.NoError(t, err)
	require.Len(t, f.view.edited, 1)
	assert.Equal(t, "mine", f.view.edited[0].ID)

	_, err = f.c.Perform(ctx, ActionReplyLatest, Selection{})
	require.NoError(t, err)
	require.Len(t, f.view.replies, 1)
	assert.Equal(t, "theirs", f.c.Snapshot().ReplyTo)
}

func TestPerformMarkup(t *testing.T) {
	f := newFixture(t)
	f.typeMessage(t, "make bold")

	sel, err := f.c.Perform(context.Background(), ActionBold, Selection{Start: 5, End: 9})
	require.NoError(t, err)
	assert.Equal(t, Selection{Start: 7, End: 11}, sel)
	assert.Equal(t, "make **bold**", f.c.Snapshot().Message)
	assert.Equal(t, "make **bold**", f.view.messages["town-square"])

	f.settle(t, "town-square", 1)
	d, _ := f.drafts.last("town-square")
	assert.Equal(t, "make **bold**", d.Message)
}

func TestApplyMarkup(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		sel     Selection
		markup  Markup
		want    string
		wantSel Selection
	}{
		{"bold", "hello", Selection{0, 5}, MarkupBold, "**hello**", Selection{2, 7}},
		{"unbold", "**hello**", Selection{2, 7}, MarkupBold, "hello", Selection{0, 5}},
		{"italic", "hi", Selection{0, 2}, MarkupItalic, "*hi*", Selection{1, 3}},
		{"italic inside bold", "**hi**", Selection{2, 4}, MarkupItalic, "***hi***", Selection{3, 5}},
		{"unitalic inside bold", "***hi***", Selection{3, 5}, MarkupItalic, "**hi**", Selection{2, 4}},
		{"empty selection", "ab", Selection{1, 1}, MarkupBold, "a****b", Selection{3, 3}},
		{"link", "see docs", Selection{4, 8}, MarkupLink, "see [docs](url)", Selection{11, 14}},
		{"empty link", "", Selection{0, 0}, MarkupLink, "[](url)", Selection{3, 6}},
		{"out of range", "ab", Selection{5, -1}, MarkupBold, "**ab**", Selection{2, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, sel := ApplyMarkup(tt.text, tt.sel, tt.markup)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantSel, sel)
		})
	}
}
