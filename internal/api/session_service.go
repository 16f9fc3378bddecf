package api

import (
	"context"
	"time"

	"github.com/matheus3301/quill/internal/bus"
	"github.com/matheus3301/quill/internal/rpc"
	"github.com/matheus3301/quill/internal/status"
	"github.com/matheus3301/quill/internal/wa"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// Device is the linked network account.
type Device interface {
	IsLoggedIn() bool
	SelfJID() string
	PhoneNumber() string
	Connect() error
	Disconnect()
	Logout(ctx context.Context) error
	StartPairing(ctx context.Context, b *bus.Bus) (<-chan wa.PairingEvent, error)
}

// SessionService implements rpc.SessionServer.
type SessionService struct {
	sessionName string
	startedAt   time.Time
	machine     *status.Machine
	device      Device
	bus         *bus.Bus
}

// NewSessionService creates a session service. device may be nil.
func NewSessionService(sessionName string, machine *status.Machine, device Device, b *bus.Bus) *SessionService {
	return &SessionService{
		sessionName: sessionName,
		startedAt:   time.Now(),
		machine:     machine,
		device:      device,
		bus:         b,
	}
}

func (s *SessionService) GetStatus(_ context.Context, _ *rpc.Empty) (*rpc.StatusResponse, error) {
	current := s.machine.Current()
	resp := &rpc.StatusResponse{
		Session:    s.sessionName,
		State:      string(current),
		Online:     current.Online(),
		UptimeMs:   time.Since(s.startedAt).Milliseconds(),
		StateSince: s.machine.Since().UnixMilli(),
	}
	if s.device != nil {
		resp.LoggedIn = s.device.IsLoggedIn()
		resp.PhoneNumber = s.device.PhoneNumber()
		resp.UserID = s.device.SelfJID()
	}
	return resp, nil
}

func (s *SessionService) StartAuth(_ *rpc.Empty, stream grpc.ServerStreamingServer[rpc.AuthEvent]) error {
	if s.device == nil {
		return grpcstatus.Errorf(codes.Unavailable, "adapter not initialized")
	}
	events, err := s.device.StartPairing(stream.Context(), s.bus)
	if err != nil {
		return toStatus("start auth", err)
	}
	for evt := range events {
		if err := stream.Send(&rpc.AuthEvent{
			Step:    string(evt.Step),
			QRCode:  evt.QRCode,
			Message: evt.Message,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *SessionService) Logout(ctx context.Context, _ *rpc.Empty) (*rpc.Empty, error) {
	if s.device == nil {
		return nil, grpcstatus.Errorf(codes.Unavailable, "adapter not initialized")
	}
	if err := s.device.Logout(ctx); err != nil {
		return nil, toStatus("logout", err)
	}
	return &rpc.Empty{}, nil
}
