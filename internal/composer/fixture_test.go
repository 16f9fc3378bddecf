package composer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/matheus3301/quill/internal/domain"
	"github.com/matheus3301/quill/internal/emoji"
	"github.com/matheus3301/quill/internal/history"
	"github.com/matheus3301/quill/internal/hooks"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type draftWrite struct {
	key   string
	draft *domain.Draft
}

type fakeDrafts struct {
	mu     sync.Mutex
	writes []draftWrite
}

func (f *fakeDrafts) SetDraft(_ context.Context, key string, d *domain.Draft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, draftWrite{key, d.Clone()})
	return nil
}

func (f *fakeDrafts) count(channelID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, w := range f.writes {
		if w.key == domain.DraftKey(channelID) {
			n++
		}
	}
	return n
}

// last returns the newest write for channelID; ok is false if none.
func (f *fakeDrafts) last(channelID string) (*domain.Draft, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.writes) - 1; i >= 0; i-- {
		if f.writes[i].key == domain.DraftKey(channelID) {
			return f.writes[i].draft, true
		}
	}
	return nil, false
}

type fakePosts struct {
	mu        sync.Mutex
	created   []*domain.Post
	added     []domain.Reaction
	removed   []domain.Reaction
	latest    *domain.Post
	own       *domain.Post
	createErr error
	gate      chan struct{}
}

func (f *fakePosts) CreatePost(_ context.Context, p *domain.Post) (*domain.Post, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, p)
	return p, nil
}

func (f *fakePosts) AddReaction(_ context.Context, r domain.Reaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, r)
	return nil
}

func (f *fakePosts) RemoveReaction(_ context.Context, r domain.Reaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, r)
	return nil
}

func (f *fakePosts) LatestRepliablePost(context.Context, string) (*domain.Post, error) {
	return f.latest, nil
}

func (f *fakePosts) LatestOwnPost(context.Context, string, string) (*domain.Post, error) {
	return f.own, nil
}

func (f *fakePosts) posts() []*domain.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*domain.Post(nil), f.created...)
}

type fakeCommands struct {
	mu    sync.Mutex
	calls []string
	args  []domain.CommandArgs
	resp  *domain.CommandResponse
	err   error
}

func (f *fakeCommands) ExecuteCommand(_ context.Context, text string, args domain.CommandArgs) (*domain.CommandResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, text)
	f.args = append(f.args, args)
	return f.resp, f.err
}

// logHistory adapts the in-process history log.
type logHistory struct{ log *history.Log }

func (h logHistory) AddHistory(_ context.Context, text string) error { return h.log.Add(text) }

func (h logHistory) MoveHistoryBack(_ context.Context, k domain.HistoryKind) error {
	h.log.MoveBack(k)
	return nil
}

func (h logHistory) MoveHistoryForward(_ context.Context, k domain.HistoryKind) error {
	h.log.MoveForward(k)
	return nil
}

func (h logHistory) CurrentHistory(_ context.Context, k domain.HistoryKind) (string, error) {
	return h.log.Current(k), nil
}

type fakeChannels struct{ zones []string }

func (f fakeChannels) ChannelTimezones(context.Context, string) ([]string, error) {
	return f.zones, nil
}

type fakeTutorial struct {
	mu      sync.Mutex
	pending bool
}

func (f *fakeTutorial) FirstPostPending(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

func (f *fakeTutorial) CompleteFirstPost(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = false
	return nil
}

type fakeUploads struct {
	mu        sync.Mutex
	cancelled []string
}

func (f *fakeUploads) Start(context.Context, string, []string) []string { return nil }

func (f *fakeUploads) Cancel(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, id)
	return true
}

type fakeView struct {
	nopView
	mu        sync.Mutex
	messages  map[string]string
	prompts   []NotifyAllPrompt
	statuses  []string
	settings  []Setting
	edited    []*domain.Post
	replies   []*domain.Post
	ephemeral []string
	scrolled  int
}

func (v *fakeView) SetMessage(channelID, text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.messages[channelID] = text
}

func (v *fakeView) ScrollToBottom(string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrolled++
}

func (v *fakeView) ConfirmNotifyAll(p NotifyAllPrompt) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.prompts = append(v.prompts, p)
}

func (v *fakeView) PromptResetStatus(s string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.statuses = append(v.statuses, s)
}

func (v *fakeView) OpenChannelSettings(s Setting, _ *domain.Channel) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.settings = append(v.settings, s)
}

func (v *fakeView) EditPost(p *domain.Post) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.edited = append(v.edited, p)
}

func (v *fakeView) ReplyTo(p *domain.Post) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.replies = append(v.replies, p)
}

func (v *fakeView) ShowEphemeral(_, text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ephemeral = append(v.ephemeral, text)
}

type fixture struct {
	c        *Composer
	clock    *testingclock.FakeClock
	drafts   *fakeDrafts
	posts    *fakePosts
	commands *fakeCommands
	hooks    *hooks.Registry
	history  *history.Log
	tutorial *fakeTutorial
	uploads  *fakeUploads
	view     *fakeView
}

var (
	townSquare = &domain.Channel{ID: "town-square", Name: "town-square", Type: domain.ChannelOpen, MemberCount: 3}
	offTopic   = &domain.Channel{ID: "off-topic", Name: "off-topic", Type: domain.ChannelOpen, MemberCount: 3}
	alice      = &domain.User{ID: "u1", Username: "alice", Status: domain.StatusOnline, CanMentionChannel: true, CanMentionGroups: true}
)

func testConfig() Config {
	return Config{
		DraftDebounce:        500 * time.Millisecond,
		InlineErrorFlash:     time.Second,
		MaxMessageLength:     100,
		NotifyAllThreshold:   5,
		ConfirmNotifyAll:     true,
		TimezonesEnabled:     true,
		Locale:               "en",
		AllowedGroupMentions: []string{"devs"},
	}
}

func newFixture(t *testing.T, mutate ...func(*Config)) *fixture {
	t.Helper()
	cfg := testConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	clk := testingclock.NewFakeClock(epoch)
	log, err := history.New(nil, 10, clk)
	require.NoError(t, err)

	f := &fixture{
		clock:    clk,
		drafts:   &fakeDrafts{},
		posts:    &fakePosts{},
		commands: &fakeCommands{},
		hooks:    hooks.NewRegistry(zap.NewNop()),
		history:  log,
		tutorial: &fakeTutorial{},
		uploads:  &fakeUploads{},
		view:     &fakeView{messages: make(map[string]string)},
	}
	f.c = New(cfg, Deps{
		Drafts:   f.drafts,
		Commands: f.commands,
		Posts:    f.posts,
		History:  logHistory{log},
		Hooks:    f.hooks,
		Channels: fakeChannels{zones: []string{"UTC", "America/Fortaleza", "Europe/Lisbon"}},
		Emoji:    emoji.NewSet("partyparrot"),
		Tutorial: f.tutorial,
		View:     f.view,
	}, f.clock, zap.NewNop())
	f.c.SetUploads(f.uploads)
	f.c.SetUser(alice)
	f.c.SwitchChannel(context.Background(), townSquare, nil)
	return f
}

// typeMessage sets the message as if typed, caret at the end.
func (f *fixture) typeMessage(t *testing.T, text string) {
	t.Helper()
	require.NoError(t, f.c.SetMessage(text, len(text)))
}

func (f *fixture) submit(t *testing.T) (Outcome, error) {
	t.Helper()
	return f.c.Submit(context.Background())
}

// settle advances past the debounce and waits for the write to land.
func (f *fixture) settle(t *testing.T, channelID string, writes int) {
	t.Helper()
	f.clock.Step(500 * time.Millisecond)
	require.Eventually(t, func() bool { return f.drafts.count(channelID) == writes },
		time.Second, 5*time.Millisecond)
}
