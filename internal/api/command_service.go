package api

import (
	"context"
	"errors"

	"github.com/matheus3301/quill/internal/command"
	"github.com/matheus3301/quill/internal/domain"
	"github.com/matheus3301/quill/internal/history"
	"github.com/matheus3301/quill/internal/rpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// CommandService implements rpc.CommandServer.
type CommandService struct {
	executor *command.Executor
}

// NewCommandService creates a command service.
func NewCommandService(executor *command.Executor) *CommandService {
	return &CommandService{executor: executor}
}

// Execute runs a slash command. A command refusal is part of the response
// so the client keeps its SendMessage flag.
func (s *CommandService) Execute(ctx context.Context, req *rpc.ExecuteRequest) (*rpc.ExecuteResponse, error) {
	resp, err := s.executor.Execute(ctx, req.Text, req.Args)
	var cmdErr *domain.CommandError
	if errors.As(err, &cmdErr) {
		return &rpc.ExecuteResponse{Error: cmdErr}, nil
	}
	if err != nil {
		return nil, toStatus("execute command", err)
	}
	return &rpc.ExecuteResponse{Response: resp}, nil
}

// HistoryService implements rpc.HistoryServer over one shared log, so
// every client of the session recalls the same submissions.
type HistoryService struct {
	log *history.Log
}

// NewHistoryService creates a history service.
func NewHistoryService(log *history.Log) *HistoryService {
	return &HistoryService{log: log}
}

func (s *HistoryService) Add(_ context.Context, req *rpc.HistoryRequest) (*rpc.Empty, error) {
	if err := s.log.Add(req.Text); err != nil {
		return nil, toStatus("add history", err)
	}
	return &rpc.Empty{}, nil
}

func (s *HistoryService) Move(_ context.Context, req *rpc.HistoryRequest) (*rpc.HistoryResponse, error) {
	kind, err := historyKind(req.Kind)
	if err != nil {
		return nil, err
	}
	if req.Back {
		s.log.MoveBack(kind)
	} else {
		s.log.MoveForward(kind)
	}
	return &rpc.HistoryResponse{Text: s.log.Current(kind)}, nil
}

func (s *HistoryService) Current(_ context.Context, req *rpc.HistoryRequest) (*rpc.HistoryResponse, error) {
	kind, err := historyKind(req.Kind)
	if err != nil {
		return nil, err
	}
	return &rpc.HistoryResponse{Text: s.log.Current(kind)}, nil
}

// List returns the newest req.Limit entries, oldest first.
func (s *HistoryService) List(_ context.Context, req *rpc.HistoryRequest) (*rpc.HistoryResponse, error) {
	items := s.log.Items()
	if req.Limit > 0 && len(items) > req.Limit {
		items = items[len(items)-req.Limit:]
	}
	return &rpc.HistoryResponse{Items: items}, nil
}

func historyKind(k domain.HistoryKind) (domain.HistoryKind, error) {
	switch k {
	case "":
		return domain.HistoryPost, nil
	case domain.HistoryPost, domain.HistoryComment:
		return k, nil
	}
	return "", grpcstatus.Errorf(codes.InvalidArgument, "unknown history kind %q", k)
}
