package api

import (
	"context"

	"github.com/matheus3301/quill/internal/command"
	"github.com/matheus3301/quill/internal/domain"
	"github.com/matheus3301/quill/internal/rpc"
	"github.com/matheus3301/quill/internal/store"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

const defaultChannelPage = 100

// ChannelService implements rpc.ChannelServer.
type ChannelService struct {
	db       *store.DB
	executor *command.Executor
}

// NewChannelService creates a channel service. Header and purpose changes
// go through executor so they leave the same notice as the commands.
func NewChannelService(db *store.DB, executor *command.Executor) *ChannelService {
	return &ChannelService{db: db, executor: executor}
}

func (s *ChannelService) List(_ context.Context, req *rpc.ListChannelsRequest) (*rpc.ListChannelsResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultChannelPage
	}
	channels, err := s.db.ListChannels(limit, req.Offset)
	if err != nil {
		return nil, toStatus("list channels", err)
	}
	return &rpc.ListChannelsResponse{Channels: channels}, nil
}

func (s *ChannelService) Get(_ context.Context, req *rpc.ChannelRequest) (*rpc.ChannelResponse, error) {
	c, err := s.db.GetChannel(req.ChannelID)
	if err != nil {
		return nil, toStatus("get channel", err)
	}
	return &rpc.ChannelResponse{Channel: c}, nil
}

func (s *ChannelService) Timezones(_ context.Context, req *rpc.ChannelRequest) (*rpc.TimezonesResponse, error) {
	zones, err := s.db.ChannelTimezones(req.ChannelID)
	if err != nil {
		return nil, toStatus("channel timezones", err)
	}
	return &rpc.TimezonesResponse{Timezones: zones}, nil
}

func (s *ChannelService) SetHeader(ctx context.Context, req *rpc.UpdateChannelRequest) (*rpc.ChannelResponse, error) {
	return s.update(ctx, req, s.executor.SetHeader)
}

func (s *ChannelService) SetPurpose(ctx context.Context, req *rpc.UpdateChannelRequest) (*rpc.ChannelResponse, error) {
	return s.update(ctx, req, s.executor.SetPurpose)
}

func (s *ChannelService) update(ctx context.Context, req *rpc.UpdateChannelRequest,
	set func(context.Context, domain.CommandArgs, string) (*domain.CommandResponse, error),
) (*rpc.ChannelResponse, error) {
	if req.ChannelID == "" {
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "channel_id is required")
	}
	if _, err := set(ctx, domain.CommandArgs{ChannelID: req.ChannelID, UserID: req.UserID}, req.Text); err != nil {
		return nil, toStatus("update channel", err)
	}
	return s.Get(ctx, &rpc.ChannelRequest{ChannelID: req.ChannelID})
}
