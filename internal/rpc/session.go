package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// Service names.
const (
	SessionService = "quill.v1.SessionService"
	SyncService    = "quill.v1.SyncService"
)

// StatusResponse describes the daemon's session.
type StatusResponse struct {
	Session     string `json:"session"`
	State       string `json:"state"`
	Online      bool   `json:"online"`
	LoggedIn    bool   `json:"logged_in"`
	PhoneNumber string `json:"phone_number,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	UptimeMs    int64  `json:"uptime_ms"`
	StateSince  int64  `json:"state_since"`
}

// AuthEvent is one step of QR pairing.
type AuthEvent struct {
	Step    string `json:"step"`
	QRCode  string `json:"qr_code,omitempty"`
	Message string `json:"message,omitempty"`
}

// SessionServer is the server API for SessionService.
type SessionServer interface {
	GetStatus(context.Context, *Empty) (*StatusResponse, error)
	StartAuth(*Empty, grpc.ServerStreamingServer[AuthEvent]) error
	Logout(context.Context, *Empty) (*Empty, error)
}

// SessionServiceDesc describes SessionService.
var SessionServiceDesc = grpc.ServiceDesc{
	ServiceName: SessionService,
	HandlerType: (*SessionServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(SessionService, "GetStatus", SessionServer.GetStatus),
		unary(SessionService, "Logout", SessionServer.Logout),
	},
	Streams: []grpc.StreamDesc{
		serverStream("StartAuth", SessionServer.StartAuth),
	},
	Metadata: "quill/v1/session",
}

// RegisterSessionServer registers srv on s.
func RegisterSessionServer(s grpc.ServiceRegistrar, srv SessionServer) {
	s.RegisterService(&SessionServiceDesc, srv)
}

// SessionClient is the client API for SessionService.
type SessionClient struct {
	cc grpc.ClientConnInterface
}

func NewSessionClient(cc grpc.ClientConnInterface) *SessionClient {
	return &SessionClient{cc: cc}
}

func (c *SessionClient) GetStatus(ctx context.Context, opts ...grpc.CallOption) (*StatusResponse, error) {
	return invoke[StatusResponse](ctx, c.cc, fullMethod(SessionService, "GetStatus"), &Empty{}, opts...)
}

// StartAuth streams pairing steps until a terminal one.
func (c *SessionClient) StartAuth(ctx context.Context, opts ...grpc.CallOption) (grpc.ServerStreamingClient[AuthEvent], error) {
	return openStream[Empty, AuthEvent](ctx, c.cc, &SessionServiceDesc.Streams[0], fullMethod(SessionService, "StartAuth"), &Empty{}, opts...)
}

func (c *SessionClient) Logout(ctx context.Context, opts ...grpc.CallOption) error {
	_, err := invoke[Empty](ctx, c.cc, fullMethod(SessionService, "Logout"), &Empty{}, opts...)
	return err
}

// SyncResult reports the outcome of a sync control call.
type SyncResult struct {
	Message string `json:"message"`
}

// SyncStatusResponse reports whether the daemon is syncing.
type SyncStatusResponse struct {
	State   string `json:"state"`
	Syncing bool   `json:"syncing"`
}

// SyncServer is the server API for SyncService.
type SyncServer interface {
	Start(context.Context, *Empty) (*SyncResult, error)
	Stop(context.Context, *Empty) (*SyncResult, error)
	Status(context.Context, *Empty) (*SyncStatusResponse, error)
}

// SyncServiceDesc describes SyncService.
var SyncServiceDesc = grpc.ServiceDesc{
	ServiceName: SyncService,
	HandlerType: (*SyncServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(SyncService, "Start", SyncServer.Start),
		unary(SyncService, "Stop", SyncServer.Stop),
		unary(SyncService, "Status", SyncServer.Status),
	},
	Metadata: "quill/v1/sync",
}

// RegisterSyncServer registers srv on s.
func RegisterSyncServer(s grpc.ServiceRegistrar, srv SyncServer) {
	s.RegisterService(&SyncServiceDesc, srv)
}

// SyncClient is the client API for SyncService.
type SyncClient struct {
	cc grpc.ClientConnInterface
}

func NewSyncClient(cc grpc.ClientConnInterface) *SyncClient {
	return &SyncClient{cc: cc}
}

func (c *SyncClient) Start(ctx context.Context, opts ...grpc.CallOption) (*SyncResult, error) {
	return invoke[SyncResult](ctx, c.cc, fullMethod(SyncService, "Start"), &Empty{}, opts...)
}

func (c *SyncClient) Stop(ctx context.Context, opts ...grpc.CallOption) (*SyncResult, error) {
	return invoke[SyncResult](ctx, c.cc, fullMethod(SyncService, "Stop"), &Empty{}, opts...)
}

func (c *SyncClient) Status(ctx context.Context, opts ...grpc.CallOption) (*SyncStatusResponse, error) {
	return invoke[SyncStatusResponse](ctx, c.cc, fullMethod(SyncService, "Status"), &Empty{}, opts...)
}
