package api

import (
	"context"
	"errors"

	"github.com/matheus3301/quill/internal/bus"
	"github.com/matheus3301/quill/internal/domain"
	"github.com/matheus3301/quill/internal/rpc"
	"github.com/matheus3301/quill/internal/store"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// DraftService implements rpc.DraftServer.
type DraftService struct {
	db  *store.DB
	bus *bus.Bus
}

// NewDraftService creates a draft service.
func NewDraftService(db *store.DB, b *bus.Bus) *DraftService {
	return &DraftService{db: db, bus: b}
}

func (s *DraftService) Get(_ context.Context, req *rpc.DraftRequest) (*rpc.DraftResponse, error) {
	d, err := s.db.GetDraft(req.Key)
	if errors.Is(err, store.ErrNotFound) {
		return &rpc.DraftResponse{}, nil
	}
	if err != nil {
		return nil, toStatus("get draft", err)
	}
	return &rpc.DraftResponse{Draft: d}, nil
}

// Set stores or, for a nil draft, deletes the draft under the key.
func (s *DraftService) Set(_ context.Context, req *rpc.DraftRequest) (*rpc.Empty, error) {
	if _, ok := domain.ChannelFromDraftKey(req.Key); !ok {
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "invalid draft key %q", req.Key)
	}
	if err := s.db.SetDraft(req.Key, req.Draft); err != nil {
		return nil, toStatus("set draft", err)
	}
	if req.Draft == nil {
		s.bus.Emit(bus.KindDraftCleared, req.Key)
	} else {
		s.bus.Emit(bus.KindDraftSaved, req.Key)
	}
	return &rpc.Empty{}, nil
}

func (s *DraftService) List(_ context.Context, _ *rpc.Empty) (*rpc.ListDraftsResponse, error) {
	drafts, err := s.db.ListDrafts()
	if err != nil {
		return nil, toStatus("list drafts", err)
	}
	return &rpc.ListDraftsResponse{Drafts: drafts}, nil
}
