package rpc

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/matheus3301/quill/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

type fakeCommands struct{}

func (fakeCommands) Execute(_ context.Context, req *ExecuteRequest) (*ExecuteResponse, error) {
	switch req.Text {
	case "/boom":
		return nil, grpcstatus.Errorf(codes.Internal, "boom")
	case "/nope":
		return &ExecuteResponse{Error: &domain.CommandError{
			Code: domain.CommandNotFound, Message: "command with trigger /nope not found", SendMessage: true,
		}}, nil
	}
	return &ExecuteResponse{Response: &domain.CommandResponse{Text: req.Text + " for " + req.Args.UserID}}, nil
}

type fakeSession struct{}

func (fakeSession) GetStatus(context.Context, *Empty) (*StatusResponse, error) {
	return &StatusResponse{Session: "main", State: "READY", Online: true}, nil
}

func (fakeSession) StartAuth(_ *Empty, stream grpc.ServerStreamingServer[AuthEvent]) error {
	for _, evt := range []AuthEvent{{Step: "qr_code", QRCode: "2@abc"}, {Step: "authenticated"}} {
		if err := stream.Send(&evt); err != nil {
			return err
		}
	}
	return nil
}

func (fakeSession) Logout(context.Context, *Empty) (*Empty, error) { return &Empty{}, nil }

func serve(t *testing.T, register func(*grpc.Server)) *grpc.ClientConn {
	t.Helper()
	// Short path for the unix socket length limit.
	dir, err := os.MkdirTemp("/tmp", "quill-rpc-*")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	socketPath := filepath.Join(dir, "d.sock")
	lis, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	srv := grpc.NewServer()
	register(srv)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := Dial(socketPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestUnaryCallOverJSON(t *testing.T) {
	conn := serve(t, func(s *grpc.Server) { RegisterCommandServer(s, fakeCommands{}) })
	client := NewCommandClient(conn)
	ctx := context.Background()

	resp, err := client.ExecuteCommand(ctx, "/echo", domain.CommandArgs{ChannelID: "c1", UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "/echo for u1", resp.Text)

	_, err = client.ExecuteCommand(ctx, "/nope", domain.CommandArgs{})
	var cmdErr *domain.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.True(t, cmdErr.SendMessage)
	assert.True(t, cmdErr.IsNotFound())

	_, err = client.ExecuteCommand(ctx, "/boom", domain.CommandArgs{})
	assert.Equal(t, codes.Internal, grpcstatus.Code(err))
}

func TestServerStreamOverJSON(t *testing.T) {
	conn := serve(t, func(s *grpc.Server) { RegisterSessionServer(s, fakeSession{}) })
	client := NewSessionClient(conn)

	st, err := client.GetStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "READY", st.State)
	assert.True(t, st.Online)

	stream, err := client.StartAuth(context.Background())
	require.NoError(t, err)
	var steps []string
	for {
		evt, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		steps = append(steps, evt.Step)
	}
	assert.Equal(t, []string{"qr_code", "authenticated"}, steps)
}

func TestMessageLimitCoversBase64(t *testing.T) {
	assert.Greater(t, MessageLimit(3<<20), 4<<20)
}
