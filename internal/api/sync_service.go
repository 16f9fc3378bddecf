package api

import (
	"context"

	"github.com/matheus3301/quill/internal/rpc"
	"github.com/matheus3301/quill/internal/status"
	"github.com/matheus3301/quill/internal/wa"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// SyncService implements rpc.SyncServer.
type SyncService struct {
	device  Device
	machine *status.Machine
}

// NewSyncService creates a sync service. device may be nil.
func NewSyncService(device Device, machine *status.Machine) *SyncService {
	return &SyncService{device: device, machine: machine}
}

func (s *SyncService) Status(_ context.Context, _ *rpc.Empty) (*rpc.SyncStatusResponse, error) {
	current := s.machine.Current()
	return &rpc.SyncStatusResponse{State: string(current), Syncing: current.Online()}, nil
}

func (s *SyncService) Start(_ context.Context, _ *rpc.Empty) (*rpc.SyncResult, error) {
	if s.device == nil {
		return nil, grpcstatus.Errorf(codes.Unavailable, "adapter not initialized")
	}
	if s.machine.Online() {
		return &rpc.SyncResult{Message: "already syncing"}, nil
	}
	if !s.device.IsLoggedIn() {
		return nil, toStatus("start sync", wa.ErrNotPaired)
	}
	if err := s.device.Connect(); err != nil {
		return nil, toStatus("connect", err)
	}
	return &rpc.SyncResult{Message: "sync started"}, nil
}

func (s *SyncService) Stop(_ context.Context, _ *rpc.Empty) (*rpc.SyncResult, error) {
	if s.device == nil {
		return nil, grpcstatus.Errorf(codes.Unavailable, "adapter not initialized")
	}
	s.device.Disconnect()
	// A requested disconnect raises no event; the outbox must stop anyway.
	if s.machine.Online() {
		_ = s.machine.Transition(status.Reconnecting)
	}
	return &rpc.SyncResult{Message: "sync stopped"}, nil
}
