package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/matheus3301/quill/internal/bus"
	"github.com/matheus3301/quill/internal/config"
	"github.com/matheus3301/quill/internal/domain"
	"github.com/matheus3301/quill/internal/emoji"
	"github.com/matheus3301/quill/internal/store"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Transport delivers outgoing operations to the chat network.
type Transport interface {
	// SendText sends text to channelID, quoting quote when it is not nil.
	// Returns the server post ID.
	SendText(ctx context.Context, channelID, text string, quote *domain.Post) (string, error)
	SendMedia(ctx context.Context, channelID string, f *store.StoredFile, caption string) (string, error)
	EditText(ctx context.Context, channelID, serverID, text string) error
	// SendReaction sets the sender's reaction on target. An empty emoji
	// removes it.
	SendReaction(ctx context.Context, channelID string, target *domain.Post, emoji string) error
}

// Gate reports whether the connection can deliver right now.
type Gate interface {
	Online() bool
}

// Sender drains the outbox and delivers entries through the transport.
type Sender struct {
	db        *store.DB
	transport Transport
	bus       *bus.Bus
	gate      Gate
	emoji     *emoji.Set
	limiter   *rate.Limiter
	interval  time.Duration
	logger    *zap.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewSender creates an outbox sender paced by cfg.
func NewSender(db *store.DB, t Transport, b *bus.Bus, gate Gate, emojis *emoji.Set, cfg config.Outbox, logger *zap.Logger) *Sender {
	return &Sender{
		db:        db,
		transport: t,
		bus:       b,
		gate:      gate,
		emoji:     emojis,
		limiter:   rate.NewLimiter(rate.Limit(cfg.SendsPerSec), cfg.Burst),
		interval:  cfg.PollInterval,
		logger:    logger,
	}
}

// Start requeues entries a previous run left in flight and begins polling.
func (s *Sender) Start(ctx context.Context) {
	if n, err := s.db.RequeueInterrupted(); err != nil {
		s.logger.Error("failed to requeue interrupted outbox entries", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("requeued interrupted outbox entries", zap.Int64("count", n))
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx)
}

// Stop stops the sender loop and waits for the current entry to finish.
func (s *Sender) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

func (s *Sender) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.processPending(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sender) processPending(ctx context.Context) {
	if s.gate != nil && !s.gate.Online() {
		return
	}
	pending, err := s.db.PendingOutbox(50)
	if err != nil {
		s.logger.Error("failed to read outbox", zap.Error(err))
		return
	}

	for _, entry := range pending {
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}
		if err := s.db.MarkOutboxSending(entry.ClientID); err != nil {
			s.logger.Error("failed to mark sending", zap.Error(err), zap.String("client_id", entry.ClientID))
			continue
		}

		serverID, err := s.deliver(ctx, entry)
		if err != nil {
			s.logger.Error("failed to deliver outbox entry",
				zap.Error(err), zap.String("client_id", entry.ClientID), zap.String("kind", entry.Kind))
			_ = s.db.MarkOutboxFailed(entry.ClientID, err.Error())
			continue
		}
		if err := s.db.MarkOutboxSent(entry.ClientID, serverID); err != nil {
			s.logger.Error("failed to mark sent", zap.Error(err), zap.String("client_id", entry.ClientID))
		}
	}
}

func (s *Sender) deliver(ctx context.Context, entry store.OutboxEntry) (string, error) {
	switch entry.Kind {
	case store.OutboxPost:
		var p domain.Post
		if err := json.Unmarshal(entry.Payload, &p); err != nil {
			return "", fmt.Errorf("decode post: %w", err)
		}
		return s.deliverPost(ctx, &p)
	case store.OutboxEdit:
		var p domain.Post
		if err := json.Unmarshal(entry.Payload, &p); err != nil {
			return "", fmt.Errorf("decode edit: %w", err)
		}
		target, err := s.resolve(p.ID)
		if err != nil {
			return "", fmt.Errorf("edit target %s: %w", p.ID, err)
		}
		return target.ID, s.transport.EditText(ctx, p.ChannelID, target.ID, p.Message)
	case store.OutboxReactionAdd, store.OutboxReactionRemove:
		var r domain.Reaction
		if err := json.Unmarshal(entry.Payload, &r); err != nil {
			return "", fmt.Errorf("decode reaction: %w", err)
		}
		target, err := s.resolve(r.PostID)
		if err != nil {
			return "", fmt.Errorf("reaction target %s: %w", r.PostID, err)
		}
		char := ""
		if entry.Kind == store.OutboxReactionAdd {
			char = s.emoji.Unicode(r.EmojiName)
		}
		return target.ID, s.transport.SendReaction(ctx, entry.ChannelID, target, char)
	}
	return "", fmt.Errorf("unknown outbox kind %q", entry.Kind)
}

// deliverPost sends a pending post. Attachments go out as media with the
// message as the first caption. The stored post moves from sending to
// sent under its server ID, or to failed.
func (s *Sender) deliverPost(ctx context.Context, p *domain.Post) (string, error) {
	_ = s.db.SetPostStatus(p.ID, domain.PostStatusSending)
	s.bus.Emit(bus.KindPostUpserted, bus.PostRef{ChannelID: p.ChannelID, PostID: p.ID})

	serverID, err := s.sendPost(ctx, p)
	if err != nil {
		_ = s.db.SetPostStatus(p.ID, domain.PostStatusFailed)
		s.bus.Emit(bus.KindPostFailed, bus.SendFailure{ChannelID: p.ChannelID, PostID: p.ID, Error: err.Error()})
		return "", err
	}

	if err := s.db.ConfirmPost(p.ID, serverID); err != nil {
		s.logger.Error("failed to confirm post", zap.Error(err), zap.String("pending_post_id", p.ID))
	}
	s.logger.Info("post sent", zap.String("pending_post_id", p.ID), zap.String("post_id", serverID))
	s.bus.Emit(bus.KindPostSendAck, bus.SendAck{ChannelID: p.ChannelID, PendingPostID: p.ID, PostID: serverID})
	return serverID, nil
}

func (s *Sender) sendPost(ctx context.Context, p *domain.Post) (string, error) {
	if len(p.FileIDs) == 0 {
		var quote *domain.Post
		if p.RootID != "" {
			if root, err := s.resolve(p.RootID); err == nil {
				quote = root
			} else {
				s.logger.Warn("reply target not found, sending without quote", zap.String("root_id", p.RootID))
			}
		}
		return s.transport.SendText(ctx, p.ChannelID, p.Message, quote)
	}

	var first string
	for i, id := range p.FileIDs {
		f, err := s.db.GetFile(id)
		if err != nil {
			return "", fmt.Errorf("file %s: %w", id, err)
		}
		caption := ""
		if i == 0 {
			caption = p.Message
		}
		serverID, err := s.transport.SendMedia(ctx, p.ChannelID, f, caption)
		if err != nil {
			return "", err
		}
		if i == 0 {
			first = serverID
		}
	}
	return first, nil
}

// errUndelivered is returned for operations on a post the network has
// not acknowledged.
var errUndelivered = errors.New("post not delivered")

// resolve finds a delivered post by ID, following a pending ID to the
// server ID it was confirmed under.
func (s *Sender) resolve(id string) (*domain.Post, error) {
	p, err := s.db.GetPost(id)
	if errors.Is(err, store.ErrNotFound) {
		var serverID string
		if serverID, err = s.db.ServerIDFor(id); err != nil {
			return nil, err
		}
		p, err = s.db.GetPost(serverID)
	}
	if err != nil {
		return nil, err
	}
	if p.IsPending() {
		return nil, errUndelivered
	}
	return p, nil
}
