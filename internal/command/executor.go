// Package command executes built-in slash commands inside the daemon.
package command

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/matheus3301/quill/internal/bus"
	"github.com/matheus3301/quill/internal/domain"
	"go.uber.org/zap"
)

// Store is the state commands read and change.
type Store interface {
	GetUser(id string) (*domain.User, error)
	SetUserStatus(id, status string) error
	GetChannel(id string) (*domain.Channel, error)
	SetChannelHeader(id, header string) error
	SetChannelPurpose(id, purpose string) error
}

// Poster creates the posts some commands produce.
type Poster interface {
	Create(ctx context.Context, p *domain.Post) (*domain.Post, error)
	CreateLocal(p *domain.Post) error
}

type handler struct {
	hint string
	desc string
	run  func(ctx context.Context, e *Executor, args string, cargs domain.CommandArgs) (*domain.CommandResponse, error)
}

// Executor runs slash commands.
type Executor struct {
	// SendUnknown makes unknown triggers fall back to a plain post.
	SendUnknown bool

	store    Store
	poster   Poster
	bus      *bus.Bus
	logger   *zap.Logger
	handlers map[string]handler
}

// NewExecutor returns an executor with the built-in commands registered.
func NewExecutor(s Store, p Poster, b *bus.Bus, logger *zap.Logger) *Executor {
	e := &Executor{SendUnknown: true, store: s, poster: p, bus: b, logger: logger}
	e.handlers = map[string]handler{
		"/online":  statusHandler(domain.StatusOnline, "Set your status to online"),
		"/away":    statusHandler(domain.StatusAway, "Set your status to away"),
		"/dnd":     statusHandler(domain.StatusDND, "Do not disturb"),
		"/offline": statusHandler(domain.StatusOffline, "Set your status to offline"),
		"/ooo":     statusHandler(domain.StatusOutOfOffice, "Set your status to out of office"),
		"/header":  {hint: "[text]", desc: "Edit the channel header", run: runHeader},
		"/purpose": {hint: "[text]", desc: "Edit the channel purpose", run: runPurpose},
		"/me":      {hint: "[message]", desc: "Do an action", run: runMe},
		"/shrug":   {hint: "[message]", desc: `Adds ¯\_(ツ)_/¯ to your message`, run: runShrug},
		"/echo":    {hint: "[message]", desc: "Echo back text from your account", run: runEcho},
		"/help":    {desc: "List available commands", run: runHelp},
	}
	return e
}

// Execute runs text as a slash command. Unknown triggers fail with a
// CommandError whose SendMessage follows e.SendUnknown.
func (e *Executor) Execute(ctx context.Context, text string, args domain.CommandArgs) (*domain.CommandResponse, error) {
	cmd := Parse(text)
	h, ok := e.handlers[cmd.Trigger]
	if !ok {
		return nil, &domain.CommandError{
			Code:        domain.CommandNotFound,
			Message:     fmt.Sprintf("command with trigger %s not found", cmd.Trigger),
			SendMessage: e.SendUnknown,
		}
	}
	resp, err := h.run(ctx, e, cmd.Args, args)
	if err != nil {
		e.logger.Debug("command failed", zap.String("trigger", cmd.Trigger), zap.Error(err))
		return nil, err
	}
	e.logger.Info("command executed", zap.String("trigger", cmd.Trigger), zap.String("channel_id", args.ChannelID))
	return resp, nil
}

// Triggers returns the registered triggers, sorted.
func (e *Executor) Triggers() []string {
	out := make([]string, 0, len(e.handlers))
	for t := range e.handlers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func statusHandler(status, desc string) handler {
	return handler{desc: desc, run: func(_ context.Context, e *Executor, _ string, cargs domain.CommandArgs) (*domain.CommandResponse, error) {
		if err := e.store.SetUserStatus(cargs.UserID, status); err != nil {
			return nil, fmt.Errorf("set status: %w", err)
		}
		e.bus.Emit(bus.KindUserStatus, &domain.User{ID: cargs.UserID, Status: status})
		return &domain.CommandResponse{Text: "You are now " + statusLabel(status), Ephemeral: true}, nil
	}}
}

func statusLabel(status string) string {
	switch status {
	case domain.StatusDND:
		return "in do not disturb mode"
	case domain.StatusOutOfOffice:
		return "out of office"
	}
	return status
}

func runHeader(ctx context.Context, e *Executor, text string, cargs domain.CommandArgs) (*domain.CommandResponse, error) {
	if text == "" {
		return nil, &domain.CommandError{Message: "A message must be provided with the /header command."}
	}
	return e.SetHeader(ctx, cargs, text)
}

func runPurpose(ctx context.Context, e *Executor, text string, cargs domain.CommandArgs) (*domain.CommandResponse, error) {
	if text == "" {
		return nil, &domain.CommandError{Message: "A message must be provided with the /purpose command."}
	}
	return e.SetPurpose(ctx, cargs, text)
}

// SetHeader replaces the channel header and leaves a notice in the
// channel. An empty header clears it.
func (e *Executor) SetHeader(_ context.Context, cargs domain.CommandArgs, text string) (*domain.CommandResponse, error) {
	if err := e.store.SetChannelHeader(cargs.ChannelID, text); err != nil {
		return nil, fmt.Errorf("set header: %w", err)
	}
	if text == "" {
		return e.channelChanged(cargs, "system_header_change", "removed the channel header")
	}
	return e.channelChanged(cargs, "system_header_change", "updated the channel header to: "+text)
}

// SetPurpose is SetHeader for the channel purpose, which DM and group
// channels do not have.
func (e *Executor) SetPurpose(_ context.Context, cargs domain.CommandArgs, text string) (*domain.CommandResponse, error) {
	ch, err := e.store.GetChannel(cargs.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("get channel: %w", err)
	}
	if ch.IsDirectOrGroup() {
		return nil, &domain.CommandError{Message: "Unable to set purpose on direct or group message channels."}
	}
	if err := e.store.SetChannelPurpose(cargs.ChannelID, text); err != nil {
		return nil, fmt.Errorf("set purpose: %w", err)
	}
	if text == "" {
		return e.channelChanged(cargs, "system_purpose_change", "removed the channel purpose")
	}
	return e.channelChanged(cargs, "system_purpose_change", "updated the channel purpose to: "+text)
}

func (e *Executor) channelChanged(cargs domain.CommandArgs, postType, message string) (*domain.CommandResponse, error) {
	name := cargs.UserID
	if u, err := e.store.GetUser(cargs.UserID); err == nil && u.Username != "" {
		name = u.Username
	}
	notice := &domain.Post{
		ChannelID: cargs.ChannelID,
		UserID:    cargs.UserID,
		Type:      postType,
		Message:   "@" + name + " " + message,
	}
	if err := e.poster.CreateLocal(notice); err != nil {
		return nil, err
	}
	e.bus.Emit(bus.KindChannelUpdate, cargs.ChannelID)
	return &domain.CommandResponse{PostID: notice.ID}, nil
}

func runMe(ctx context.Context, e *Executor, text string, cargs domain.CommandArgs) (*domain.CommandResponse, error) {
	if text == "" {
		return nil, &domain.CommandError{Message: "A message must be provided with the /me command."}
	}
	return e.post(ctx, cargs, "_"+text+"_", "me")
}

func runShrug(ctx context.Context, e *Executor, text string, cargs domain.CommandArgs) (*domain.CommandResponse, error) {
	shrug := `¯\\\_(ツ)\_/¯`
	if text != "" {
		shrug = text + " " + shrug
	}
	return e.post(ctx, cargs, shrug, "")
}

func runEcho(ctx context.Context, e *Executor, text string, cargs domain.CommandArgs) (*domain.CommandResponse, error) {
	if text == "" {
		return nil, &domain.CommandError{Message: "A message must be provided with the /echo command."}
	}
	return e.post(ctx, cargs, text, "")
}

func runHelp(_ context.Context, e *Executor, _ string, _ domain.CommandArgs) (*domain.CommandResponse, error) {
	var b strings.Builder
	for _, t := range e.Triggers() {
		h := e.handlers[t]
		b.WriteString(t)
		if h.hint != "" {
			b.WriteString(" " + h.hint)
		}
		b.WriteString(" - " + h.desc + "\n")
	}
	return &domain.CommandResponse{Text: strings.TrimRight(b.String(), "\n"), Ephemeral: true}, nil
}

func (e *Executor) post(ctx context.Context, cargs domain.CommandArgs, message, postType string) (*domain.CommandResponse, error) {
	p, err := e.poster.Create(ctx, &domain.Post{
		ChannelID: cargs.ChannelID,
		UserID:    cargs.UserID,
		RootID:    cargs.RootID,
		Message:   message,
		Type:      postType,
	})
	if err != nil {
		return nil, err
	}
	return &domain.CommandResponse{PostID: p.ID}, nil
}
