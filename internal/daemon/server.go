package daemon

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/matheus3301/quill/internal/config"
	"github.com/matheus3301/quill/internal/rpc"
	"github.com/matheus3301/quill/internal/session"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// Server manages the gRPC server lifecycle for a session daemon.
type Server struct {
	grpcServer *grpc.Server
	listener   net.Listener
	socketPath string
	logger     *zap.Logger
}

// NewServer creates a gRPC server bound to the session's Unix domain socket.
func NewServer(p Params, cfg *config.Config, logger *zap.Logger, svc Services) (*Server, error) {
	socketPath := p.SocketPath
	if socketPath == "" {
		socketPath = session.SocketPath(p.SessionName)
	}

	// Clean stale socket if it exists.
	if _, err := os.Stat(socketPath); err == nil {
		_ = os.Remove(socketPath)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("listen unix socket: %w", err)
	}

	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}

	srv := grpc.NewServer(grpc.MaxRecvMsgSize(rpc.MessageLimit(cfg.Uploads.MaxFileSize)))
	rpc.RegisterSessionServer(srv, svc.Session)
	rpc.RegisterSyncServer(srv, svc.Sync)
	rpc.RegisterChannelServer(srv, svc.Channel)
	rpc.RegisterUserServer(srv, svc.User)
	rpc.RegisterPreferenceServer(srv, svc.Preference)
	rpc.RegisterPostServer(srv, svc.Post)
	rpc.RegisterDraftServer(srv, svc.Draft)
	rpc.RegisterFileServer(srv, svc.File)
	rpc.RegisterCommandServer(srv, svc.Command)
	rpc.RegisterHistoryServer(srv, svc.History)

	return &Server{
		grpcServer: srv,
		listener:   listener,
		socketPath: socketPath,
		logger:     logger,
	}, nil
}

// Start begins serving gRPC requests. Blocks until stopped.
func (s *Server) Start() error {
	s.logger.Info("gRPC server starting", zap.String("socket", s.socketPath))
	return s.grpcServer.Serve(s.listener)
}

// Stop performs a graceful shutdown and removes the socket file.
func (s *Server) Stop(_ context.Context) {
	s.logger.Info("gRPC server stopping")
	s.grpcServer.GracefulStop()
	_ = os.Remove(s.socketPath)
}
