package outbox

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/quill/internal/bus"
	"github.com/matheus3301/quill/internal/config"
	"github.com/matheus3301/quill/internal/domain"
	"github.com/matheus3301/quill/internal/emoji"
	"github.com/matheus3301/quill/internal/post"
	"github.com/matheus3301/quill/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockTransport records calls and returns configurable results.
type mockTransport struct {
	mu        sync.Mutex
	texts     []textCall
	media     []mediaCall
	edits     []editCall
	reactions []reactionCall
	err       error
	next      int
}

type textCall struct {
	Channel, Text string
	Quote         *domain.Post
}

type mediaCall struct {
	Channel, Name, Caption string
}

type editCall struct {
	Channel, ServerID, Text string
}

type reactionCall struct {
	Channel, PostID, Emoji string
}

func (m *mockTransport) serverID() string {
	m.next++
	return "SRV" + string(rune('0'+m.next))
}

func (m *mockTransport) SendText(_ context.Context, channelID, text string, quote *domain.Post) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, textCall{channelID, text, quote})
	if m.err != nil {
		return "", m.err
	}
	return m.serverID(), nil
}

func (m *mockTransport) SendMedia(_ context.Context, channelID string, f *store.StoredFile, caption string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.media = append(m.media, mediaCall{channelID, f.Name, caption})
	if m.err != nil {
		return "", m.err
	}
	return m.serverID(), nil
}

func (m *mockTransport) EditText(_ context.Context, channelID, serverID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits = append(m.edits, editCall{channelID, serverID, text})
	return m.err
}

func (m *mockTransport) SendReaction(_ context.Context, channelID string, target *domain.Post, e string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reactions = append(m.reactions, reactionCall{channelID, target.ID, e})
	return m.err
}

type gate struct {
	mu     sync.Mutex
	online bool
}

func (g *gate) Online() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.online
}

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	_, err = db.Migrate()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type harness struct {
	db        *store.DB
	bus       *bus.Bus
	posts     *post.Service
	transport *mockTransport
	gate      *gate
	sender    *Sender
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		db:        testDB(t),
		bus:       bus.New(),
		transport: &mockTransport{},
		gate:      &gate{online: true},
	}
	logger := zap.NewNop()
	h.posts = post.NewService(h.db, h.bus, 1000, logger)
	cfg := config.Outbox{PollInterval: 10 * time.Millisecond, SendsPerSec: 1000, Burst: 100}
	h.sender = NewSender(h.db, h.transport, h.bus, h.gate, emoji.NewSet(), cfg, logger)
	return h
}

func (h *harness) create(t *testing.T, p *domain.Post) *domain.Post {
	t.Helper()
	created, err := h.posts.Create(context.Background(), p)
	require.NoError(t, err)
	return created
}

func TestSenderDeliversPost(t *testing.T) {
	h := newHarness(t)
	acks, unsub := h.bus.Subscribe(bus.KindPostSendAck, 10)
	defer unsub()

	p := h.create(t, &domain.Post{ChannelID: "chat@s", UserID: "me", Message: "hello", CreateAt: 1000})
	h.sender.processPending(context.Background())

	require.Len(t, h.transport.texts, 1)
	assert.Equal(t, textCall{Channel: "chat@s", Text: "hello"}, h.transport.texts[0])

	pending, err := h.db.PendingOutbox(10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = h.db.GetPost(p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound, "pending ID is replaced by the server ID")
	sent, err := h.db.GetPost("SRV1")
	require.NoError(t, err)
	assert.Equal(t, domain.PostStatusSent, sent.Status)

	select {
	case evt := <-acks:
		assert.Equal(t, bus.SendAck{ChannelID: "chat@s", PendingPostID: "me:1000", PostID: "SRV1"}, evt.Payload)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for send_ack event")
	}
}

func TestSenderHandlesFailure(t *testing.T) {
	h := newHarness(t)
	h.transport.err = errors.New("network error")
	failures, unsub := h.bus.Subscribe(bus.KindPostFailed, 10)
	defer unsub()

	p := h.create(t, &domain.Post{ChannelID: "chat@s", UserID: "me", Message: "hello"})
	h.sender.processPending(context.Background())

	select {
	case evt := <-failures:
		failure, ok := evt.Payload.(bus.SendFailure)
		require.True(t, ok)
		assert.Equal(t, p.ID, failure.PostID)
		assert.Equal(t, "network error", failure.Error)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for send_failed event")
	}

	stored, err := h.db.GetPost(p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PostStatusFailed, stored.Status)

	pending, err := h.db.PendingOutbox(10)
	require.NoError(t, err)
	assert.Empty(t, pending, "failed entries are not retried automatically")
}

// TestSenderMarksSending checks that the post is shown as sending before
// the transport returns.
func TestSenderMarksSending(t *testing.T) {
	h := newHarness(t)
	upserts, unsub := h.bus.Subscribe(bus.KindPostUpserted, 10)
	defer unsub()

	p := h.create(t, &domain.Post{ChannelID: "chat@s", UserID: "me", Message: "optimistic"})
	h.transport.mu.Lock()
	go h.sender.processPending(context.Background())

	select {
	case <-upserts:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for post.upserted event")
	}
	stored, err := h.db.GetPost(p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PostStatusSending, stored.Status)
	h.transport.mu.Unlock()

	require.Eventually(t, func() bool {
		_, err := h.db.GetPost("SRV1")
		return err == nil
	}, time.Second, 5*time.Millisecond)
}

func TestSenderWaitsWhileOffline(t *testing.T) {
	h := newHarness(t)
	h.gate.online = false

	h.create(t, &domain.Post{ChannelID: "chat@s", UserID: "me", Message: "later"})
	h.sender.processPending(context.Background())
	assert.Empty(t, h.transport.texts)

	pending, err := h.db.PendingOutbox(10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestSenderAttachments(t *testing.T) {
	h := newHarness(t)
	for _, name := range []string{"a.png", "b.pdf"} {
		require.NoError(t, h.db.InsertFile(&store.StoredFile{
			FileInfo: domain.FileInfo{ID: name, ChannelID: "chat@s", Name: name},
			Path:     filepath.Join(t.TempDir(), name),
		}))
	}

	h.create(t, &domain.Post{ChannelID: "chat@s", UserID: "me", Message: "look", FileIDs: []string{"a.png", "b.pdf"}})
	h.sender.processPending(context.Background())

	assert.Empty(t, h.transport.texts)
	assert.Equal(t, []mediaCall{
		{Channel: "chat@s", Name: "a.png", Caption: "look"},
		{Channel: "chat@s", Name: "b.pdf"},
	}, h.transport.media)
	_, err := h.db.GetPost("SRV1")
	assert.NoError(t, err, "the post takes the first media ID")
}

func TestSenderReactionOnPendingPost(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	p := h.create(t, &domain.Post{ChannelID: "chat@s", UserID: "me", Message: "ship it"})
	require.NoError(t, h.posts.React(ctx, domain.Reaction{PostID: p.ID, UserID: "me", EmojiName: "+1"}, true))
	require.NoError(t, h.posts.React(ctx, domain.Reaction{PostID: p.ID, UserID: "me", EmojiName: "+1"}, false))

	h.sender.processPending(ctx)

	assert.Equal(t, []reactionCall{
		{Channel: "chat@s", PostID: "SRV1", Emoji: "👍"},
		{Channel: "chat@s", PostID: "SRV1", Emoji: ""},
	}, h.transport.reactions)
}

func TestSenderEditAndQuote(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.create(t, &domain.Post{ChannelID: "chat@s", UserID: "me", Message: "tpyo", CreateAt: 1})
	h.sender.processPending(ctx)

	_, err := h.posts.Edit(ctx, "SRV1", "me", "typo")
	require.NoError(t, err)
	h.create(t, &domain.Post{ChannelID: "chat@s", UserID: "me", Message: "fixed", RootID: "SRV1", CreateAt: 2})
	h.sender.processPending(ctx)

	assert.Equal(t, []editCall{{Channel: "chat@s", ServerID: "SRV1", Text: "typo"}}, h.transport.edits)
	require.Len(t, h.transport.texts, 2)
	require.NotNil(t, h.transport.texts[1].Quote)
	assert.Equal(t, "SRV1", h.transport.texts[1].Quote.ID)
}

func TestSenderLoopRequeuesInterrupted(t *testing.T) {
	h := newHarness(t)
	p := h.create(t, &domain.Post{ChannelID: "chat@s", UserID: "me", Message: "crashed mid-send"})
	require.NoError(t, h.db.MarkOutboxSending(p.PendingPostID))

	h.sender.Start(context.Background())
	defer h.sender.Stop()

	require.Eventually(t, func() bool {
		h.transport.mu.Lock()
		defer h.transport.mu.Unlock()
		return len(h.transport.texts) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
