package api

import (
	"context"
	"errors"

	"github.com/matheus3301/quill/internal/bus"
	"github.com/matheus3301/quill/internal/domain"
	"github.com/matheus3301/quill/internal/rpc"
	"github.com/matheus3301/quill/internal/store"
	"github.com/matheus3301/quill/internal/wa"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// UserService implements rpc.UserServer.
type UserService struct {
	db     *store.DB
	device Device
	bus    *bus.Bus
}

// NewUserService creates a user service. device may be nil.
func NewUserService(db *store.DB, device Device, b *bus.Bus) *UserService {
	return &UserService{db: db, device: device, bus: b}
}

// Me returns the paired account, creating its record on first use. The
// account owner may always mention channel-wide and groups.
func (s *UserService) Me(_ context.Context, _ *rpc.Empty) (*rpc.UserResponse, error) {
	if s.device == nil {
		return nil, grpcstatus.Errorf(codes.Unavailable, "adapter not initialized")
	}
	self := s.device.SelfJID()
	if self == "" {
		return nil, toStatus("me", wa.ErrNotPaired)
	}

	u, err := s.db.GetUser(self)
	if errors.Is(err, store.ErrNotFound) {
		u = &domain.User{ID: self, Username: s.device.PhoneNumber(), Status: domain.StatusOnline}
	} else if err != nil {
		return nil, toStatus("me", err)
	}
	if !u.CanMentionChannel || !u.CanMentionGroups {
		u.CanMentionChannel, u.CanMentionGroups = true, true
		if err := s.db.UpsertUser(u); err != nil {
			return nil, toStatus("me", err)
		}
	}
	return &rpc.UserResponse{User: u}, nil
}

func (s *UserService) Get(_ context.Context, req *rpc.UserRequest) (*rpc.UserResponse, error) {
	u, err := s.db.GetUser(req.UserID)
	if err != nil {
		return nil, toStatus("get user", err)
	}
	return &rpc.UserResponse{User: u}, nil
}

func (s *UserService) SetStatus(_ context.Context, req *rpc.SetStatusRequest) (*rpc.UserResponse, error) {
	switch req.Status {
	case domain.StatusOnline, domain.StatusAway, domain.StatusDND, domain.StatusOffline, domain.StatusOutOfOffice:
	default:
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "unknown status %q", req.Status)
	}
	if err := s.db.SetUserStatus(req.UserID, req.Status); err != nil {
		return nil, toStatus("set status", err)
	}
	s.bus.Emit(bus.KindUserStatus, &domain.User{ID: req.UserID, Status: req.Status})
	return s.Get(context.Background(), &rpc.UserRequest{UserID: req.UserID})
}
