// Package post creates, edits and reacts to posts on the daemon side. Every
// change is written to the store first and delivered by the outbox.
package post

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/matheus3301/quill/internal/bus"
	"github.com/matheus3301/quill/internal/domain"
	"github.com/matheus3301/quill/internal/store"
	"go.uber.org/zap"
)

var (
	ErrEmpty   = errors.New("post has no message and no files")
	ErrTooLong = errors.New("post message is too long")
	ErrNotOwn  = errors.New("only the author can edit a post")
)

// Service owns post writes.
type Service struct {
	db     *store.DB
	bus    *bus.Bus
	logger *zap.Logger
	maxLen int
	now    func() time.Time
}

// NewService returns a post service. maxLen bounds messages in runes.
func NewService(db *store.DB, b *bus.Bus, maxLen int, logger *zap.Logger) *Service {
	return &Service{db: db, bus: b, logger: logger, maxLen: maxLen, now: time.Now}
}

// PendingID builds the client-side ID of a post before the network assigns one.
func PendingID(userID string, at time.Time) string {
	return userID + ":" + strconv.FormatInt(at.UnixMilli(), 10)
}

// Create stores p as pending, links its files and queues it for delivery.
// Creating a post whose pending ID is already stored returns the stored post.
func (s *Service) Create(ctx context.Context, p *domain.Post) (*domain.Post, error) {
	if err := s.validate(p); err != nil {
		return nil, err
	}
	if p.CreateAt == 0 {
		p.CreateAt = s.now().UnixMilli()
	}
	if p.PendingPostID == "" {
		p.PendingPostID = PendingID(p.UserID, time.UnixMilli(p.CreateAt))
	}
	if existing, err := s.db.GetPost(p.PendingPostID); err == nil {
		return existing, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	p.ID = p.PendingPostID
	p.Status = domain.PostStatusPending
	if err := s.db.UpsertPost(p); err != nil {
		return nil, fmt.Errorf("store post: %w", err)
	}
	if err := s.db.AttachFiles(p.ID, p.FileIDs); err != nil {
		return nil, fmt.Errorf("attach files: %w", err)
	}
	if err := s.db.QueueOutbox(p.PendingPostID, store.OutboxPost, p.ChannelID, p); err != nil {
		return nil, fmt.Errorf("queue post: %w", err)
	}

	s.logger.Info("post queued",
		zap.String("channel_id", p.ChannelID),
		zap.String("pending_post_id", p.PendingPostID),
		zap.Int("files", len(p.FileIDs)))
	s.bus.Emit(bus.KindPostCreated, bus.PostRef{ChannelID: p.ChannelID, PostID: p.ID})
	return p, nil
}

// CreateLocal stores a post that is never delivered, such as a system
// notice produced by a command.
func (s *Service) CreateLocal(p *domain.Post) error {
	if p.CreateAt == 0 {
		p.CreateAt = s.now().UnixMilli()
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Status = domain.PostStatusSent
	if err := s.db.UpsertPost(p); err != nil {
		return fmt.Errorf("store local post: %w", err)
	}
	s.bus.Emit(bus.KindPostUpserted, bus.PostRef{ChannelID: p.ChannelID, PostID: p.ID})
	return nil
}

// Edit replaces the message of a delivered post authored by userID.
func (s *Service) Edit(ctx context.Context, postID, userID, message string) (*domain.Post, error) {
	p, err := s.db.GetPost(postID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrNotOwn
	}
	edited := *p
	edited.Message = message
	if err := s.validate(&edited); err != nil {
		return nil, err
	}
	edited.EditAt = s.now().UnixMilli()
	if err := s.db.UpdatePostMessage(postID, message, edited.EditAt); err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	if err := s.db.QueueOutbox(uuid.NewString(), store.OutboxEdit, p.ChannelID, &edited); err != nil {
		return nil, fmt.Errorf("queue edit: %w", err)
	}
	s.bus.Emit(bus.KindPostEdited, bus.PostRef{ChannelID: p.ChannelID, PostID: p.ID})
	return &edited, nil
}

// React adds or removes a reaction on an existing post.
func (s *Service) React(ctx context.Context, r domain.Reaction, add bool) error {
	p, err := s.db.GetPost(r.PostID)
	if err != nil {
		return err
	}
	if r.CreateAt == 0 {
		r.CreateAt = s.now().UnixMilli()
	}

	kind := store.OutboxReactionAdd
	if add {
		// The network keeps one reaction per user and post.
		if err := s.db.ClearUserReactions(r.PostID, r.UserID); err != nil {
			return err
		}
		err = s.db.AddReaction(&r)
	} else {
		kind = store.OutboxReactionRemove
		err = s.db.RemoveReaction(&r)
	}
	if err != nil {
		return fmt.Errorf("store reaction: %w", err)
	}
	if err := s.db.QueueOutbox(uuid.NewString(), kind, p.ChannelID, &r); err != nil {
		return fmt.Errorf("queue reaction: %w", err)
	}
	s.bus.Emit(bus.KindReaction, bus.PostRef{ChannelID: p.ChannelID, PostID: p.ID})
	return nil
}

func (s *Service) validate(p *domain.Post) error {
	if p.Message == "" && len(p.FileIDs) == 0 {
		return ErrEmpty
	}
	if s.maxLen > 0 && utf8.RuneCountInString(p.Message) > s.maxLen {
		return fmt.Errorf("%w: %d > %d", ErrTooLong, utf8.RuneCountInString(p.Message), s.maxLen)
	}
	return nil
}
