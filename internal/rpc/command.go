package rpc

import (
	"context"

	"github.com/matheus3301/quill/internal/domain"
	"google.golang.org/grpc"
)

// Service names.
const (
	CommandService = "quill.v1.CommandService"
	HistoryService = "quill.v1.HistoryService"
)

type ExecuteRequest struct {
	Text string             `json:"text"`
	Args domain.CommandArgs `json:"args"`
}

// ExecuteResponse holds either the command's response or the error the
// command refused with. Transport failures are gRPC errors instead.
type ExecuteResponse struct {
	Response *domain.CommandResponse `json:"response,omitempty"`
	Error    *domain.CommandError    `json:"error,omitempty"`
}

// CommandServer is the server API for CommandService.
type CommandServer interface {
	Execute(context.Context, *ExecuteRequest) (*ExecuteResponse, error)
}

// CommandServiceDesc describes CommandService.
var CommandServiceDesc = grpc.ServiceDesc{
	ServiceName: CommandService,
	HandlerType: (*CommandServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(CommandService, "Execute", CommandServer.Execute),
	},
	Metadata: "quill/v1/command",
}

// RegisterCommandServer registers srv on s.
func RegisterCommandServer(s grpc.ServiceRegistrar, srv CommandServer) {
	s.RegisterService(&CommandServiceDesc, srv)
}

// CommandClient is the client API for CommandService.
type CommandClient struct {
	cc grpc.ClientConnInterface
}

func NewCommandClient(cc grpc.ClientConnInterface) *CommandClient {
	return &CommandClient{cc: cc}
}

// ExecuteCommand runs text as a slash command. A refusal comes back as a
// *domain.CommandError.
func (c *CommandClient) ExecuteCommand(ctx context.Context, text string, args domain.CommandArgs) (*domain.CommandResponse, error) {
	resp, err := invoke[ExecuteResponse](ctx, c.cc, fullMethod(CommandService, "Execute"), &ExecuteRequest{Text: text, Args: args})
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Response, nil
}

type HistoryRequest struct {
	Text string             `json:"text,omitempty"`
	Kind domain.HistoryKind `json:"kind,omitempty"`
	// Back moves toward older entries, otherwise toward newer ones.
	Back  bool `json:"back,omitempty"`
	Limit int  `json:"limit,omitempty"`
}

type HistoryResponse struct {
	Text  string               `json:"text,omitempty"`
	Items []domain.HistoryItem `json:"items,omitempty"`
}

// HistoryServer is the server API for HistoryService.
type HistoryServer interface {
	Add(context.Context, *HistoryRequest) (*Empty, error)
	Move(context.Context, *HistoryRequest) (*HistoryResponse, error)
	Current(context.Context, *HistoryRequest) (*HistoryResponse, error)
	List(context.Context, *HistoryRequest) (*HistoryResponse, error)
}

// HistoryServiceDesc describes HistoryService.
var HistoryServiceDesc = grpc.ServiceDesc{
	ServiceName: HistoryService,
	HandlerType: (*HistoryServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(HistoryService, "Add", HistoryServer.Add),
		unary(HistoryService, "Move", HistoryServer.Move),
		unary(HistoryService, "Current", HistoryServer.Current),
		unary(HistoryService, "List", HistoryServer.List),
	},
	Metadata: "quill/v1/history",
}

// RegisterHistoryServer registers srv on s.
func RegisterHistoryServer(s grpc.ServiceRegistrar, srv HistoryServer) {
	s.RegisterService(&HistoryServiceDesc, srv)
}

// HistoryClient is the client API for HistoryService.
type HistoryClient struct {
	cc grpc.ClientConnInterface
}

func NewHistoryClient(cc grpc.ClientConnInterface) *HistoryClient {
	return &HistoryClient{cc: cc}
}

func (c *HistoryClient) AddHistory(ctx context.Context, text string) error {
	_, err := invoke[Empty](ctx, c.cc, fullMethod(HistoryService, "Add"), &HistoryRequest{Text: text})
	return err
}

func (c *HistoryClient) MoveHistoryBack(ctx context.Context, kind domain.HistoryKind) error {
	_, err := invoke[HistoryResponse](ctx, c.cc, fullMethod(HistoryService, "Move"), &HistoryRequest{Kind: kind, Back: true})
	return err
}

func (c *HistoryClient) MoveHistoryForward(ctx context.Context, kind domain.HistoryKind) error {
	_, err := invoke[HistoryResponse](ctx, c.cc, fullMethod(HistoryService, "Move"), &HistoryRequest{Kind: kind})
	return err
}

func (c *HistoryClient) CurrentHistory(ctx context.Context, kind domain.HistoryKind) (string, error) {
	resp, err := invoke[HistoryResponse](ctx, c.cc, fullMethod(HistoryService, "Current"), &HistoryRequest{Kind: kind})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// ListHistory returns up to limit entries, oldest first.
func (c *HistoryClient) ListHistory(ctx context.Context, limit int) ([]domain.HistoryItem, error) {
	resp, err := invoke[HistoryResponse](ctx, c.cc, fullMethod(HistoryService, "List"), &HistoryRequest{Limit: limit})
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}
