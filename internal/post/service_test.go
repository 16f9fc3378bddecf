package post

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matheus3301/quill/internal/bus"
	"github.com/matheus3301/quill/internal/domain"
	"github.com/matheus3301/quill/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testService(t *testing.T, maxLen int) (*Service, *store.DB, *bus.Bus) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	_, err = db.Migrate()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	b := bus.New()
	s := NewService(db, b, maxLen, zap.NewNop())
	s.now = func() time.Time { return time.UnixMilli(5000) }
	return s, db, b
}

func TestPendingID(t *testing.T) {
	assert.Equal(t, "u1:1234", PendingID("u1", time.UnixMilli(1234)))
}

func TestCreateQueuesPost(t *testing.T) {
	s, db, b := testService(t, 100)
	events, unsub := b.Subscribe("post.", 4)
	defer unsub()

	f := &store.StoredFile{FileInfo: domain.FileInfo{Name: "a.png", ChannelID: "c1"}}
	require.NoError(t, db.InsertFile(f))

	p, err := s.Create(context.Background(), &domain.Post{ChannelID: "c1", UserID: "u1", Message: "hi", FileIDs: []string{f.ID}})
	require.NoError(t, err)
	assert.Equal(t, "u1:5000", p.ID)
	assert.Equal(t, p.ID, p.PendingPostID)
	assert.Equal(t, domain.PostStatusPending, p.Status)

	stored, err := db.GetPost(p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.ID}, stored.FileIDs)

	pending, err := db.PendingOutbox(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, store.OutboxPost, pending[0].Kind)

	evt := <-events
	assert.Equal(t, bus.KindPostCreated, evt.Kind)
	assert.Equal(t, bus.PostRef{ChannelID: "c1", PostID: p.ID}, evt.Payload)
}

func TestCreateIsIdempotentOnPendingID(t *testing.T) {
	s, db, _ := testService(t, 100)
	ctx := context.Background()

	_, err := s.Create(ctx, &domain.Post{ChannelID: "c1", UserID: "u1", PendingPostID: "u1:1", Message: "once"})
	require.NoError(t, err)
	again, err := s.Create(ctx, &domain.Post{ChannelID: "c1", UserID: "u1", PendingPostID: "u1:1", Message: "twice"})
	require.NoError(t, err)
	assert.Equal(t, "once", again.Message)

	pending, _ := db.PendingOutbox(10)
	assert.Len(t, pending, 1)
}

func TestCreateValidation(t *testing.T) {
	s, _, _ := testService(t, 5)
	ctx := context.Background()

	_, err := s.Create(ctx, &domain.Post{ChannelID: "c1", UserID: "u1"})
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = s.Create(ctx, &domain.Post{ChannelID: "c1", UserID: "u1", Message: strings.Repeat("é", 6)})
	assert.ErrorIs(t, err, ErrTooLong)

	_, err = s.Create(ctx, &domain.Post{ChannelID: "c1", UserID: "u1", Message: strings.Repeat("é", 5)})
	assert.NoError(t, err)
}

func TestCreateLocal(t *testing.T) {
	s, db, _ := testService(t, 100)
	p := &domain.Post{ChannelID: "c1", Type: "system_header_change", Message: "header changed"}
	require.NoError(t, s.CreateLocal(p))
	assert.NotEmpty(t, p.ID)

	pending, _ := db.PendingOutbox(10)
	assert.Empty(t, pending, "local posts are never delivered")
}

func TestEdit(t *testing.T) {
	s, db, b := testService(t, 100)
	require.NoError(t, db.UpsertPost(&domain.Post{ID: "p1", ChannelID: "c1", UserID: "u1", Message: "old", Status: domain.PostStatusSent, CreateAt: 1}))
	events, unsub := b.Subscribe("post.", 4)
	defer unsub()

	_, err := s.Edit(context.Background(), "p1", "u2", "hijack")
	assert.ErrorIs(t, err, ErrNotOwn)

	edited, err := s.Edit(context.Background(), "p1", "u1", "new")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), edited.EditAt)

	stored, _ := db.GetPost("p1")
	assert.Equal(t, "new", stored.Message)
	assert.Equal(t, bus.KindPostEdited, (<-events).Kind)

	_, err = s.Edit(context.Background(), "missing", "u1", "x")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestReact(t *testing.T) {
	s, db, _ := testService(t, 100)
	require.NoError(t, db.UpsertPost(&domain.Post{ID: "p1", ChannelID: "c1", UserID: "u2", Message: "hi", CreateAt: 1}))
	ctx := context.Background()

	require.NoError(t, s.React(ctx, domain.Reaction{PostID: "p1", UserID: "u1", EmojiName: "smile"}, true))
	require.NoError(t, s.React(ctx, domain.Reaction{PostID: "p1", UserID: "u1", EmojiName: "tada"}, true))
	reactions, _ := db.ListReactions("p1")
	require.Len(t, reactions, 1, "a new reaction replaces the user's previous one")
	assert.Equal(t, "tada", reactions[0].EmojiName)

	require.NoError(t, s.React(ctx, domain.Reaction{PostID: "p1", UserID: "u1", EmojiName: "tada"}, false))
	reactions, _ = db.ListReactions("p1")
	assert.Empty(t, reactions)

	pending, _ := db.PendingOutbox(10)
	assert.Len(t, pending, 3)

	err := s.React(ctx, domain.Reaction{PostID: "missing", UserID: "u1", EmojiName: "x"}, true)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
