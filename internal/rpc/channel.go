package rpc

import (
	"context"

	"github.com/matheus3301/quill/internal/domain"
	"google.golang.org/grpc"
)

// Service names.
const (
	ChannelService    = "quill.v1.ChannelService"
	UserService       = "quill.v1.UserService"
	PreferenceService = "quill.v1.PreferenceService"
)

type ListChannelsRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

type ListChannelsResponse struct {
	Channels []*domain.Channel `json:"channels"`
}

type ChannelRequest struct {
	ChannelID string `json:"channel_id"`
}

type ChannelResponse struct {
	Channel *domain.Channel `json:"channel"`
}

type TimezonesResponse struct {
	Timezones []string `json:"timezones"`
}

// UpdateChannelRequest sets a channel header or purpose on behalf of UserID.
type UpdateChannelRequest struct {
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
	Text      string `json:"text"`
}

// ChannelServer is the server API for ChannelService.
type ChannelServer interface {
	List(context.Context, *ListChannelsRequest) (*ListChannelsResponse, error)
	Get(context.Context, *ChannelRequest) (*ChannelResponse, error)
	Timezones(context.Context, *ChannelRequest) (*TimezonesResponse, error)
	SetHeader(context.Context, *UpdateChannelRequest) (*ChannelResponse, error)
	SetPurpose(context.Context, *UpdateChannelRequest) (*ChannelResponse, error)
}

// ChannelServiceDesc describes ChannelService.
var ChannelServiceDesc = grpc.ServiceDesc{
	ServiceName: ChannelService,
	HandlerType: (*ChannelServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(ChannelService, "List", ChannelServer.List),
		unary(ChannelService, "Get", ChannelServer.Get),
		unary(ChannelService, "Timezones", ChannelServer.Timezones),
		unary(ChannelService, "SetHeader", ChannelServer.SetHeader),
		unary(ChannelService, "SetPurpose", ChannelServer.SetPurpose),
	},
	Metadata: "quill/v1/channel",
}

// RegisterChannelServer registers srv on s.
func RegisterChannelServer(s grpc.ServiceRegistrar, srv ChannelServer) {
	s.RegisterService(&ChannelServiceDesc, srv)
}

// ChannelClient is the client API for ChannelService.
type ChannelClient struct {
	cc grpc.ClientConnInterface
}

func NewChannelClient(cc grpc.ClientConnInterface) *ChannelClient {
	return &ChannelClient{cc: cc}
}

func (c *ChannelClient) List(ctx context.Context, limit, offset int, opts ...grpc.CallOption) ([]*domain.Channel, error) {
	resp, err := invoke[ListChannelsResponse](ctx, c.cc, fullMethod(ChannelService, "List"),
		&ListChannelsRequest{Limit: limit, Offset: offset}, opts...)
	if err != nil {
		return nil, err
	}
	return resp.Channels, nil
}

func (c *ChannelClient) Get(ctx context.Context, channelID string, opts ...grpc.CallOption) (*domain.Channel, error) {
	resp, err := invoke[ChannelResponse](ctx, c.cc, fullMethod(ChannelService, "Get"), &ChannelRequest{ChannelID: channelID}, opts...)
	if err != nil {
		return nil, err
	}
	return resp.Channel, nil
}

// ChannelTimezones returns the distinct timezones of a channel's members.
func (c *ChannelClient) ChannelTimezones(ctx context.Context, channelID string) ([]string, error) {
	resp, err := invoke[TimezonesResponse](ctx, c.cc, fullMethod(ChannelService, "Timezones"), &ChannelRequest{ChannelID: channelID})
	if err != nil {
		return nil, err
	}
	return resp.Timezones, nil
}

func (c *ChannelClient) SetHeader(ctx context.Context, req *UpdateChannelRequest, opts ...grpc.CallOption) (*domain.Channel, error) {
	resp, err := invoke[ChannelResponse](ctx, c.cc, fullMethod(ChannelService, "SetHeader"), req, opts...)
	if err != nil {
		return nil, err
	}
	return resp.Channel, nil
}

func (c *ChannelClient) SetPurpose(ctx context.Context, req *UpdateChannelRequest, opts ...grpc.CallOption) (*domain.Channel, error) {
	resp, err := invoke[ChannelResponse](ctx, c.cc, fullMethod(ChannelService, "SetPurpose"), req, opts...)
	if err != nil {
		return nil, err
	}
	return resp.Channel, nil
}

type UserRequest struct {
	UserID string `json:"user_id"`
}

type UserResponse struct {
	User *domain.User `json:"user"`
}

type SetStatusRequest struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

// UserServer is the server API for UserService.
type UserServer interface {
	Me(context.Context, *Empty) (*UserResponse, error)
	Get(context.Context, *UserRequest) (*UserResponse, error)
	SetStatus(context.Context, *SetStatusRequest) (*UserResponse, error)
}

// UserServiceDesc describes UserService.
var UserServiceDesc = grpc.ServiceDesc{
	ServiceName: UserService,
	HandlerType: (*UserServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(UserService, "Me", UserServer.Me),
		unary(UserService, "Get", UserServer.Get),
		unary(UserService, "SetStatus", UserServer.SetStatus),
	},
	Metadata: "quill/v1/user",
}

// RegisterUserServer registers srv on s.
func RegisterUserServer(s grpc.ServiceRegistrar, srv UserServer) {
	s.RegisterService(&UserServiceDesc, srv)
}

// UserClient is the client API for UserService.
type UserClient struct {
	cc grpc.ClientConnInterface
}

func NewUserClient(cc grpc.ClientConnInterface) *UserClient {
	return &UserClient{cc: cc}
}

// Me returns the paired account.
func (c *UserClient) Me(ctx context.Context, opts ...grpc.CallOption) (*domain.User, error) {
	resp, err := invoke[UserResponse](ctx, c.cc, fullMethod(UserService, "Me"), &Empty{}, opts...)
	if err != nil {
		return nil, err
	}
	return resp.User, nil
}

func (c *UserClient) Get(ctx context.Context, userID string, opts ...grpc.CallOption) (*domain.User, error) {
	resp, err := invoke[UserResponse](ctx, c.cc, fullMethod(UserService, "Get"), &UserRequest{UserID: userID}, opts...)
	if err != nil {
		return nil, err
	}
	return resp.User, nil
}

func (c *UserClient) SetStatus(ctx context.Context, userID, status string, opts ...grpc.CallOption) (*domain.User, error) {
	resp, err := invoke[UserResponse](ctx, c.cc, fullMethod(UserService, "SetStatus"),
		&SetStatusRequest{UserID: userID, Status: status}, opts...)
	if err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Preference is a stored client setting.
type Preference struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Value    string `json:"value"`
}

// PreferenceServer is the server API for PreferenceService. Get answers an
// empty value for unset preferences.
type PreferenceServer interface {
	Get(context.Context, *Preference) (*Preference, error)
	Set(context.Context, *Preference) (*Empty, error)
	CustomEmoji(context.Context, *Empty) (*CustomEmojiResponse, error)
}

type CustomEmojiResponse struct {
	Names []string `json:"names"`
}

// PreferenceServiceDesc describes PreferenceService.
var PreferenceServiceDesc = grpc.ServiceDesc{
	ServiceName: PreferenceService,
	HandlerType: (*PreferenceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(PreferenceService, "Get", PreferenceServer.Get),
		unary(PreferenceService, "Set", PreferenceServer.Set),
		unary(PreferenceService, "CustomEmoji", PreferenceServer.CustomEmoji),
	},
	Metadata: "quill/v1/preference",
}

// RegisterPreferenceServer registers srv on s.
func RegisterPreferenceServer(s grpc.ServiceRegistrar, srv PreferenceServer) {
	s.RegisterService(&PreferenceServiceDesc, srv)
}

// PreferenceClient is the client API for PreferenceService.
type PreferenceClient struct {
	cc grpc.ClientConnInterface
}

func NewPreferenceClient(cc grpc.ClientConnInterface) *PreferenceClient {
	return &PreferenceClient{cc: cc}
}

func (c *PreferenceClient) Get(ctx context.Context, category, name string, opts ...grpc.CallOption) (string, error) {
	resp, err := invoke[Preference](ctx, c.cc, fullMethod(PreferenceService, "Get"),
		&Preference{Category: category, Name: name}, opts...)
	if err != nil {
		return "", err
	}
	return resp.Value, nil
}

func (c *PreferenceClient) Set(ctx context.Context, category, name, value string, opts ...grpc.CallOption) error {
	_, err := invoke[Empty](ctx, c.cc, fullMethod(PreferenceService, "Set"),
		&Preference{Category: category, Name: name, Value: value}, opts...)
	return err
}

// CustomEmoji returns the names of emoji added to this session.
func (c *PreferenceClient) CustomEmoji(ctx context.Context, opts ...grpc.CallOption) ([]string, error) {
	resp, err := invoke[CustomEmojiResponse](ctx, c.cc, fullMethod(PreferenceService, "CustomEmoji"), &Empty{}, opts...)
	if err != nil {
		return nil, err
	}
	return resp.Names, nil
}
