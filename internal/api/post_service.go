package api

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/matheus3301/quill/internal/bus"
	"github.com/matheus3301/quill/internal/domain"
	"github.com/matheus3301/quill/internal/post"
	"github.com/matheus3301/quill/internal/rpc"
	"github.com/matheus3301/quill/internal/store"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

const (
	defaultPostPage   = 50
	defaultSearchPage = 50
)

// PostService implements rpc.PostServer.
type PostService struct {
	db     *store.DB
	posts  *post.Service
	bus    *bus.Bus
	logger *zap.Logger
}

// NewPostService creates a post service.
func NewPostService(db *store.DB, posts *post.Service, b *bus.Bus, logger *zap.Logger) *PostService {
	return &PostService{db: db, posts: posts, bus: b, logger: logger}
}

func (s *PostService) Create(ctx context.Context, req *rpc.PostRequest) (*rpc.PostResponse, error) {
	if req.Post == nil || req.Post.ChannelID == "" {
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "post with channel_id is required")
	}
	p, err := s.posts.Create(ctx, req.Post)
	if err != nil {
		return nil, toStatus("create post", err)
	}
	return &rpc.PostResponse{Post: p}, nil
}

func (s *PostService) Get(_ context.Context, req *rpc.PostIDRequest) (*rpc.PostResponse, error) {
	p, err := s.db.GetPost(req.PostID)
	if err != nil {
		return nil, toStatus("get post", err)
	}
	return &rpc.PostResponse{Post: p}, nil
}

func (s *PostService) List(_ context.Context, req *rpc.ListPostsRequest) (*rpc.ListPostsResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultPostPage
	}
	posts, err := s.db.ListPosts(req.ChannelID, req.Before, limit)
	if err != nil {
		return nil, toStatus("list posts", err)
	}
	return &rpc.ListPostsResponse{Posts: posts}, nil
}

func (s *PostService) LatestRepliable(_ context.Context, req *rpc.LatestPostRequest) (*rpc.PostResponse, error) {
	return optionalPost(s.db.LatestRepliablePost(req.ChannelID))
}

func (s *PostService) LatestOwn(_ context.Context, req *rpc.LatestPostRequest) (*rpc.PostResponse, error) {
	return optionalPost(s.db.LatestOwnPost(req.ChannelID, req.UserID))
}

// optionalPost answers a lookup that may legitimately find nothing.
func optionalPost(p *domain.Post, err error) (*rpc.PostResponse, error) {
	if errors.Is(err, store.ErrNotFound) {
		return &rpc.PostResponse{}, nil
	}
	if err != nil {
		return nil, toStatus("latest post", err)
	}
	return &rpc.PostResponse{Post: p}, nil
}

func (s *PostService) Edit(ctx context.Context, req *rpc.EditPostRequest) (*rpc.PostResponse, error) {
	p, err := s.posts.Edit(ctx, req.PostID, req.UserID, req.Message)
	if err != nil {
		return nil, toStatus("edit post", err)
	}
	return &rpc.PostResponse{Post: p}, nil
}

func (s *PostService) React(ctx context.Context, req *rpc.ReactRequest) (*rpc.Empty, error) {
	if req.Reaction.PostID == "" || req.Reaction.EmojiName == "" {
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "post_id and emoji_name are required")
	}
	if err := s.posts.React(ctx, req.Reaction, req.Add); err != nil {
		return nil, toStatus("react", err)
	}
	return &rpc.Empty{}, nil
}

func (s *PostService) Reactions(_ context.Context, req *rpc.PostIDRequest) (*rpc.ReactionsResponse, error) {
	rs, err := s.db.ListReactions(req.PostID)
	if err != nil {
		return nil, toStatus("list reactions", err)
	}
	return &rpc.ReactionsResponse{Reactions: rs}, nil
}

func (s *PostService) Search(_ context.Context, req *rpc.SearchRequest) (*rpc.SearchResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "query is required")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchPage
	}
	results, err := s.db.SearchPosts(req.Query, req.ChannelID, limit)
	if err != nil {
		return nil, toStatus("search posts", err)
	}
	hits := make([]rpc.SearchHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, rpc.SearchHit{Post: r.Post, Snippet: r.Snippet})
	}
	return &rpc.SearchResponse{Hits: hits}, nil
}

// Watch forwards bus events to the client until it goes away. Events are
// dropped rather than queued when the client falls behind.
func (s *PostService) Watch(req *rpc.WatchRequest, stream grpc.ServerStreamingServer[rpc.Event]) error {
	ch, unsub := s.bus.Subscribe("", 256)
	defer unsub()

	for {
		select {
		case evt := <-ch:
			if strings.HasPrefix(evt.Kind, "wa.") || !matchesAny(evt.Kind, req.Prefixes) {
				continue
			}
			if err := stream.Send(s.envelope(evt)); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}

func matchesAny(kind string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(kind, p) {
			return true
		}
	}
	return false
}

func (s *PostService) envelope(evt bus.Event) *rpc.Event {
	out := &rpc.Event{
		ID:         uuid.New().String(),
		Kind:       evt.Kind,
		OccurredAt: evt.Timestamp.UnixMilli(),
	}
	switch p := evt.Payload.(type) {
	case bus.PostRef:
		out.ChannelID, out.PostID = p.ChannelID, p.PostID
	case bus.SendAck:
		out.ChannelID, out.PostID = p.ChannelID, p.PostID
	case bus.SendFailure:
		out.ChannelID, out.PostID = p.ChannelID, p.PostID
	case *domain.Channel:
		out.ChannelID = p.ID
	case string:
		if evt.Kind == bus.KindChannelUpdate {
			out.ChannelID = p
		}
	}
	if evt.Payload != nil {
		payload, err := json.Marshal(evt.Payload)
		if err != nil {
			s.logger.Debug("event payload not encodable", zap.String("kind", evt.Kind), zap.Error(err))
		} else {
			out.Payload = payload
		}
	}
	return out
}
