package client

import (
	"context"
	"fmt"

	"github.com/matheus3301/quill/internal/rpc"
	"google.golang.org/grpc"
)

// Client wraps gRPC connections to the daemon.
type Client struct {
	conn        *grpc.ClientConn
	Session     *rpc.SessionClient
	Sync        *rpc.SyncClient
	Channels    *rpc.ChannelClient
	Users       *rpc.UserClient
	Preferences *rpc.PreferenceClient
	Posts       *rpc.PostClient
	Drafts      *rpc.DraftClient
	Files       *rpc.FileClient
	Commands    *rpc.CommandClient
	History     *rpc.HistoryClient
}

// New dials the daemon's Unix domain socket and returns typed service
// clients. maxUpload sizes the file upload message limit.
func New(socketPath string, maxUpload int64) (*Client, error) {
	conn, err := rpc.Dial(socketPath)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}

	return &Client{
		conn:        conn,
		Session:     rpc.NewSessionClient(conn),
		Sync:        rpc.NewSyncClient(conn),
		Channels:    rpc.NewChannelClient(conn),
		Users:       rpc.NewUserClient(conn),
		Preferences: rpc.NewPreferenceClient(conn),
		Posts:       rpc.NewPostClient(conn),
		Drafts:      rpc.NewDraftClient(conn),
		Files:       rpc.NewFileClient(conn, maxUpload),
		Commands:    rpc.NewCommandClient(conn),
		History:     rpc.NewHistoryClient(conn),
	}, nil
}

// Ping reports whether the daemon answers a status call.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Session.GetStatus(ctx)
	return err
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
