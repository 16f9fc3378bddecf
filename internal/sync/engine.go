// Package sync ingests inbound network events into the store.
package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/matheus3301/quill/internal/bus"
	"github.com/matheus3301/quill/internal/domain"
	"github.com/matheus3301/quill/internal/emoji"
	"github.com/matheus3301/quill/internal/store"
	"github.com/matheus3301/quill/internal/wa"
	"go.uber.org/zap"
)

// Engine handles idempotent ingestion of channels, posts, reactions and
// contacts. It subscribes to "wa." events on the bus and runs the
// reconciler whenever the connection comes up.
type Engine struct {
	db         *store.DB
	bus        *bus.Bus
	emoji      *emoji.Set
	reconciler *Reconciler
	logger     *zap.Logger
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewEngine creates a sync engine. reconciler may be nil.
func NewEngine(db *store.DB, b *bus.Bus, emojis *emoji.Set, reconciler *Reconciler, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		db:         db,
		bus:        b,
		emoji:      emojis,
		reconciler: reconciler,
		logger:     logger,
	}
}

// Start subscribes to inbound events.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})
	inbound, unsubInbound := e.bus.Subscribe("wa.", 256)
	connected, unsubConnected := e.bus.Subscribe(bus.KindSyncConnected, 4)

	go func() {
		defer close(e.done)
		defer unsubInbound()
		defer unsubConnected()
		for {
			select {
			case evt := <-inbound:
				e.handleEvent(evt)
			case <-connected:
				if e.reconciler != nil {
					e.reconciler.Reconcile(ctx)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the engine and waits for the current event to finish.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
		<-e.done
	}
}

func (e *Engine) handleEvent(evt bus.Event) {
	var err error
	switch p := evt.Payload.(type) {
	case *domain.Post:
		err = e.IngestPost(p)
	case bus.HistoryBatch:
		err = e.IngestHistory(p)
	case bus.ReactionChange:
		err = e.IngestReaction(p)
	case bus.PostEdit:
		err = e.IngestEdit(p)
	case *domain.User:
		err = e.IngestContact(p)
	default:
		return
	}
	if err != nil {
		e.logger.Error("failed to ingest event", zap.Error(err), zap.String("kind", evt.Kind))
	}
}

// IngestPost stores a single post, creating its channel on first sight.
func (e *Engine) IngestPost(p *domain.Post) error {
	if err := e.ensureChannel(p.ChannelID); err != nil {
		return err
	}
	if err := e.db.UpsertPost(p); err != nil {
		return fmt.Errorf("upsert post: %w", err)
	}
	if p.UserID != "" {
		if err := e.db.AddChannelMember(p.ChannelID, p.UserID, ""); err != nil {
			return fmt.Errorf("add member: %w", err)
		}
	}
	e.bus.Emit(bus.KindPostUpserted, bus.PostRef{ChannelID: p.ChannelID, PostID: p.ID})
	return nil
}

// IngestHistory stores a history sync batch.
func (e *Engine) IngestHistory(batch bus.HistoryBatch) error {
	for _, c := range batch.Channels {
		if err := e.db.UpsertChannel(c); err != nil {
			return fmt.Errorf("upsert channel %s: %w", c.ID, err)
		}
	}
	for _, u := range batch.Users {
		if err := e.db.UpsertUser(u); err != nil {
			return fmt.Errorf("upsert user %s: %w", u.ID, err)
		}
	}
	if err := e.db.UpsertPosts(batch.Posts); err != nil {
		return err
	}

	members := make(map[[2]string]bool)
	for _, p := range batch.Posts {
		key := [2]string{p.ChannelID, p.UserID}
		if p.UserID == "" || members[key] {
			continue
		}
		members[key] = true
		if err := e.db.AddChannelMember(p.ChannelID, p.UserID, ""); err != nil {
			return fmt.Errorf("add member: %w", err)
		}
	}

	e.logger.Info("history batch ingested",
		zap.Int("channels", len(batch.Channels)), zap.Int("posts", len(batch.Posts)))
	e.bus.Emit(bus.KindSyncHistory, map[string]int{
		"channels": len(batch.Channels),
		"posts":    len(batch.Posts),
	})
	return nil
}

// IngestReaction applies a reaction change. The network keeps one
// reaction per user and post, so any previous one is replaced.
func (e *Engine) IngestReaction(r bus.ReactionChange) error {
	if err := e.db.ClearUserReactions(r.PostID, r.UserID); err != nil {
		return fmt.Errorf("clear reactions: %w", err)
	}
	if r.Emoji != "" {
		if err := e.db.AddReaction(&domain.Reaction{
			PostID:    r.PostID,
			UserID:    r.UserID,
			EmojiName: e.emoji.NameFor(r.Emoji),
			CreateAt:  r.At,
		}); err != nil {
			return fmt.Errorf("add reaction: %w", err)
		}
	}
	e.bus.Emit(bus.KindReaction, bus.PostRef{ChannelID: r.ChannelID, PostID: r.PostID})
	return nil
}

// IngestEdit replaces the text of a stored post. Edits of posts that were
// never synced are dropped.
func (e *Engine) IngestEdit(edit bus.PostEdit) error {
	err := e.db.UpdatePostMessage(edit.PostID, edit.Message, edit.EditAt)
	if errors.Is(err, store.ErrNotFound) {
		e.logger.Debug("edit for unknown post", zap.String("post_id", edit.PostID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	e.bus.Emit(bus.KindPostEdited, bus.PostRef{ChannelID: edit.ChannelID, PostID: edit.PostID})
	return nil
}

// IngestContact stores a user's display name.
func (e *Engine) IngestContact(u *domain.User) error {
	if err := e.db.UpsertUser(u); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (e *Engine) ensureChannel(id string) error {
	if _, err := e.db.GetChannel(id); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	c := &domain.Channel{ID: id, Name: id, Type: wa.ChannelTypeOf(id)}
	if err := e.db.UpsertChannel(c); err != nil {
		return fmt.Errorf("create channel: %w", err)
	}
	e.bus.Emit(bus.KindChannelUpdate, c)
	return nil
}
