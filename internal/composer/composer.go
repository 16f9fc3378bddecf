// Package composer is the message composer engine: it owns per-channel
// drafts, persists them with a debounce, tracks attachment uploads, and
// turns a submitted draft into a post, a slash command, or a reaction.
//
// A Composer is safe for concurrent use. Collaborators are always called
// without the internal lock held, so they may call back into the Composer.
package composer

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/matheus3301/quill/internal/config"
	"github.com/matheus3301/quill/internal/domain"
)

// ErrNotReady is returned when no channel or user has been set yet.
var ErrNotReady = errors.New("composer: no active channel")

// ServerError is a failed submission or upload kept in view state.
// SubmittedMessage binds it to the text that produced it.
type ServerError struct {
	Err              error
	SubmittedMessage string
	// InvalidSlash marks an unknown slash command. Resubmitting the same
	// text then sends it as a plain message.
	InvalidSlash bool
}

func (e *ServerError) Error() string { return e.Err.Error() }

func (e *ServerError) Unwrap() error { return e.Err }

// DraftStore persists drafts under their storage key. A nil draft deletes.
type DraftStore interface {
	SetDraft(ctx context.Context, key string, d *domain.Draft) error
}

// CommandExecutor runs slash commands. Failures are *domain.CommandError
// when the command itself refused.
type CommandExecutor interface {
	ExecuteCommand(ctx context.Context, text string, args domain.CommandArgs) (*domain.CommandResponse, error)
}

// PostService creates posts and reactions and answers post lookups.
// Lookups return nil, nil when nothing matches.
type PostService interface {
	CreatePost(ctx context.Context, p *domain.Post) (*domain.Post, error)
	AddReaction(ctx context.Context, r domain.Reaction) error
	RemoveReaction(ctx context.Context, r domain.Reaction) error
	LatestRepliablePost(ctx context.Context, channelID string) (*domain.Post, error)
	LatestOwnPost(ctx context.Context, channelID, userID string) (*domain.Post, error)
}

// HistoryLog is the submitted-message history.
type HistoryLog interface {
	AddHistory(ctx context.Context, text string) error
	MoveHistoryBack(ctx context.Context, kind domain.HistoryKind) error
	MoveHistoryForward(ctx context.Context, kind domain.HistoryKind) error
	CurrentHistory(ctx context.Context, kind domain.HistoryKind) (string, error)
}

// Hooks runs pre-post hooks. A slash hook returning "" and nil args has
// consumed the command.
type Hooks interface {
	MessageWillBePosted(ctx context.Context, p *domain.Post) (*domain.Post, error)
	SlashCommandWillBePosted(ctx context.Context, message string, args *domain.CommandArgs) (string, *domain.CommandArgs, error)
}

// ChannelInfo answers channel membership questions.
type ChannelInfo interface {
	ChannelTimezones(ctx context.Context, channelID string) ([]string, error)
}

// EmojiSet reports whether an emoji name is known.
type EmojiSet interface {
	Has(name string) bool
}

// Tutorial tracks the first-post tip.
type Tutorial interface {
	FirstPostPending(ctx context.Context) bool
	CompleteFirstPost(ctx context.Context) error
}

// Uploads starts and cancels attachment uploads. Progress comes back
// through the Composer's upload.Listener methods.
type Uploads interface {
	Start(ctx context.Context, channelID string, paths []string) []string
	Cancel(clientID string) bool
}

// Deps are the Composer's collaborators. Tutorial and View may be nil.
type Deps struct {
	Drafts   DraftStore
	Commands CommandExecutor
	Posts    PostService
	History  HistoryLog
	Hooks    Hooks
	Channels ChannelInfo
	Emoji    EmojiSet
	Tutorial Tutorial
	View     View
}

// Config tunes composer behavior.
type Config struct {
	DraftDebounce        time.Duration
	InlineErrorFlash     time.Duration
	MaxMessageLength     int
	NotifyAllThreshold   int
	ConfirmNotifyAll     bool
	TimezonesEnabled     bool
	Locale               string
	CtrlSend             bool
	AllowedGroupMentions []string
}

// ConfigFrom maps the [composer] config section.
func ConfigFrom(c config.Composer) Config {
	return Config{
		DraftDebounce:        c.DraftDebounce,
		InlineErrorFlash:     c.InlineErrorFlash,
		MaxMessageLength:     c.MaxMessageLength,
		NotifyAllThreshold:   c.NotifyAllThreshold,
		ConfirmNotifyAll:     c.ConfirmNotifyAll,
		TimezonesEnabled:     c.TimezonesEnabled,
		Locale:               c.Locale,
		CtrlSend:             c.CtrlSend,
		AllowedGroupMentions: c.AllowedGroupMention,
	}
}

// State is the coarse composer state for the active channel.
type State int

const (
	Idle State = iota
	Editing
	Submitting
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	}
	return "idle"
}

// Upload is an in-flight attachment as shown to the user.
type Upload struct {
	ClientID string
	Percent  int
}

// Snapshot is a copy of the active channel's composer state for rendering.
type Snapshot struct {
	ChannelID   string
	Message     string
	Caret       int
	FileInfos   []domain.FileInfo
	Uploads     []Upload
	ReplyTo     string
	Submitting  bool
	ServerError *ServerError
	PostError   string
	Highlight   bool
	State       State
}

// Composer is the composer engine. The zero value is not usable; see New.
type Composer struct {
	cfg    Config
	deps   Deps
	clock  clock.WithDelayedExecution
	logger *zap.Logger

	// persistMu orders draft writes so a stale snapshot never lands
	// after a newer one. It is always taken before mu.
	persistMu sync.Mutex

	mu       sync.Mutex
	uploads  Uploads
	channel  *domain.Channel
	user     *domain.User
	drafts   map[string]*domain.Draft
	progress map[string]int

	// recalled is the history entry recall last put in each channel's
	// message. History keys stay live while the message still equals it.
	recalled map[string]string

	seq     uint64
	pending map[string]uint64
	timers  map[string]clock.Timer

	submitting   bool
	serverError  *ServerError
	postError    string
	highlight    bool
	highlightSeq uint64
	replyTo      string
}

// New creates a Composer. clk may be nil for the real clock.
func New(cfg Config, deps Deps, clk clock.WithDelayedExecution, logger *zap.Logger) *Composer {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if deps.View == nil {
		deps.View = nopView{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{
		cfg:      cfg,
		deps:     deps,
		clock:    clk,
		logger:   logger.Named("composer"),
		drafts:   make(map[string]*domain.Draft),
		progress: make(map[string]int),
		recalled: make(map[string]string),
		pending:  make(map[string]uint64),
		timers:   make(map[string]clock.Timer),
	}
}

// SetUploads wires the upload manager. The manager reports back through
// the Composer, so it is created after it.
func (c *Composer) SetUploads(u Uploads) {
	c.mu.Lock()
	c.uploads = u
	c.mu.Unlock()
}

// SetUser sets the current user, whose status and permissions shape
// submission.
func (c *Composer) SetUser(u *domain.User) {
	c.mu.Lock()
	if u != nil {
		cp := *u
		u = &cp
	}
	c.user = u
	c.mu.Unlock()
}

// UpdateChannel refreshes the active channel's metadata without switching.
func (c *Composer) UpdateChannel(ch *domain.Channel) {
	c.mu.Lock()
	if c.channel != nil && ch != nil && c.channel.ID == ch.ID {
		cp := *ch
		c.channel = &cp
	}
	c.mu.Unlock()
}

// SwitchChannel makes ch the active channel. A pending write for the
// outgoing channel is flushed first. stored seeds ch's draft the first
// time the Composer sees the channel; its uploads are dropped since they
// cannot outlive the process that started them.
func (c *Composer) SwitchChannel(ctx context.Context, ch *domain.Channel, stored *domain.Draft) Snapshot {
	c.mu.Lock()
	prev := c.channel
	c.mu.Unlock()
	if prev != nil && prev.ID != ch.ID {
		c.flushPending(ctx, prev.ID)
	}

	c.mu.Lock()
	cp := *ch
	c.channel = &cp
	if _, ok := c.drafts[ch.ID]; !ok && stored != nil {
		d := stored.Clone()
		d.ChannelID = ch.ID
		d.UploadsInProgress = nil
		c.drafts[ch.ID] = d
	}
	c.serverError = nil
	c.highlight = false
	c.replyTo = ""
	c.postError = c.lengthError(c.draftLocked(ch.ID).Message)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.deps.View.Refresh()
	return snap
}

// Channel returns the active channel, or nil.
func (c *Composer) Channel() *domain.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel == nil {
		return nil
	}
	cp := *c.channel
	return &cp
}

// SetMessage records an edit of the active channel's message. The draft
// is written to the store after the debounce interval.
func (c *Composer) SetMessage(text string, caret int) error {
	c.mu.Lock()
	if c.channel == nil {
		c.mu.Unlock()
		return ErrNotReady
	}
	id := c.channel.ID
	d := c.draftLocked(id)
	changed := d.Message != text
	d.Message = text
	d.Caret = caret
	if changed {
		delete(c.recalled, id)
	}
	if se := c.serverError; se != nil && se.InvalidSlash && se.SubmittedMessage != text {
		c.serverError = nil
	}
	c.postError = c.lengthError(text)
	c.mu.Unlock()

	if changed {
		c.schedule(id)
	}
	c.deps.View.Refresh()
	return nil
}

// SetReplyTo makes the next post a reply to postID. An empty ID clears it.
func (c *Composer) SetReplyTo(postID string) {
	c.mu.Lock()
	c.replyTo = postID
	c.mu.Unlock()
	c.deps.View.Refresh()
}

// Draft returns a copy of the in-memory draft for channelID, or nil.
func (c *Composer) Draft(channelID string) *domain.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drafts[channelID].Clone()
}

// Snapshot returns the active channel's state.
func (c *Composer) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close flushes every pending draft write, and the active channel's draft
// unconditionally.
func (c *Composer) Close(ctx context.Context) {
	c.mu.Lock()
	ids := make([]string, 0, len(c.pending)+1)
	for id := range c.pending {
		ids = append(ids, id)
	}
	active := ""
	if c.channel != nil {
		active = c.channel.ID
	}
	c.mu.Unlock()

	for _, id := range ids {
		if id != active {
			c.flushPending(ctx, id)
		}
	}
	if active != "" {
		c.flush(ctx, active)
	}
}

func (c *Composer) draftLocked(channelID string) *domain.Draft {
	d, ok := c.drafts[channelID]
	if !ok {
		d = domain.NewDraft(channelID)
		c.drafts[channelID] = d
	}
	return d
}

func (c *Composer) snapshotLocked() Snapshot {
	if c.channel == nil {
		return Snapshot{}
	}
	d := c.draftLocked(c.channel.ID).Clone()
	snap := Snapshot{
		ChannelID:   c.channel.ID,
		Message:     d.Message,
		Caret:       d.Caret,
		FileInfos:   d.FileInfos,
		ReplyTo:     c.replyTo,
		Submitting:  c.submitting,
		ServerError: c.serverError,
		PostError:   c.postError,
		Highlight:   c.highlight,
	}
	for _, id := range d.UploadsInProgress {
		snap.Uploads = append(snap.Uploads, Upload{ClientID: id, Percent: c.progress[id]})
	}
	switch {
	case c.submitting:
		snap.State = Submitting
	case !d.IsEmpty():
		snap.State = Editing
	default:
		snap.State = Idle
	}
	return snap
}

// setMessageLocked replaces the message without scheduling a write and
// reports whether the view needs the new text.
func (c *Composer) setMessageLocked(channelID, text string) bool {
	d := c.draftLocked(channelID)
	if d.Message == text {
		return false
	}
	d.Message = text
	d.Caret = len(text)
	c.postError = c.lengthError(text)
	return c.channel != nil && c.channel.ID == channelID
}

func (c *Composer) replaceMessage(channelID, text string) {
	c.mu.Lock()
	show := c.setMessageLocked(channelID, text)
	c.mu.Unlock()
	if show {
		c.deps.View.SetMessage(channelID, text)
	}
}

func (c *Composer) lengthError(text string) string {
	if c.cfg.MaxMessageLength <= 0 {
		return ""
	}
	if n := len([]rune(text)); n > c.cfg.MaxMessageLength {
		return messageTooLong(n, c.cfg.MaxMessageLength)
	}
	return ""
}
