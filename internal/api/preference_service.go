package api

import (
	"context"
	"errors"

	"github.com/matheus3301/quill/internal/rpc"
	"github.com/matheus3301/quill/internal/store"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// PreferenceService implements rpc.PreferenceServer.
type PreferenceService struct {
	db *store.DB
}

// NewPreferenceService creates a preference service.
func NewPreferenceService(db *store.DB) *PreferenceService {
	return &PreferenceService{db: db}
}

func (s *PreferenceService) Get(_ context.Context, req *rpc.Preference) (*rpc.Preference, error) {
	value, err := s.db.GetPreference(req.Category, req.Name)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, toStatus("get preference", err)
	}
	return &rpc.Preference{Category: req.Category, Name: req.Name, Value: value}, nil
}

func (s *PreferenceService) Set(_ context.Context, req *rpc.Preference) (*rpc.Empty, error) {
	if req.Category == "" || req.Name == "" {
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "category and name are required")
	}
	if err := s.db.SetPreference(req.Category, req.Name, req.Value); err != nil {
		return nil, toStatus("set preference", err)
	}
	return &rpc.Empty{}, nil
}

func (s *PreferenceService) CustomEmoji(_ context.Context, _ *rpc.Empty) (*rpc.CustomEmojiResponse, error) {
	names, err := s.db.CustomEmojiNames()
	if err != nil {
		return nil, toStatus("custom emoji", err)
	}
	return &rpc.CustomEmojiResponse{Names: names}, nil
}
