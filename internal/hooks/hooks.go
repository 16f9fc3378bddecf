// Package hooks runs the pre-post hooks a message passes through before it
// is sent or executed as a command.
package hooks

import (
	"context"
	"sync"

	"github.com/matheus3301/quill/internal/domain"
	"go.uber.org/zap"
)

// MessageHook may rewrite or reject a post before it is sent. Returning a
// nil post leaves the post unchanged.
type MessageHook func(ctx context.Context, post *domain.Post) (*domain.Post, error)

// SlashHook may rewrite or reject a slash command before it is executed.
// Returning an empty message and nil args consumes the command.
type SlashHook func(ctx context.Context, message string, args *domain.CommandArgs) (string, *domain.CommandArgs, error)

type named[T any] struct {
	name string
	fn   T
}

// Registry holds hooks and runs them in registration order.
type Registry struct {
	mu      sync.RWMutex
	message []named[MessageHook]
	slash   []named[SlashHook]
	logger  *zap.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{logger: logger}
}

// OnMessage registers a message hook.
func (r *Registry) OnMessage(name string, fn MessageHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.message = append(r.message, named[MessageHook]{name, fn})
}

// OnSlashCommand registers a slash command hook.
func (r *Registry) OnSlashCommand(name string, fn SlashHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slash = append(r.slash, named[SlashHook]{name, fn})
}

// MessageWillBePosted runs every message hook over post. The first error
// stops the chain.
func (r *Registry) MessageWillBePosted(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	r.mu.RLock()
	hooks := r.message
	r.mu.RUnlock()

	for _, h := range hooks {
		next, err := h.fn(ctx, post)
		if err != nil {
			r.logger.Debug("message hook rejected post", zap.String("hook", h.name), zap.Error(err))
			return nil, err
		}
		if next != nil {
			post = next
		}
	}
	return post, nil
}

// SlashCommandWillBePosted runs every slash hook. It returns an empty
// message and nil args when a hook consumed the command.
func (r *Registry) SlashCommandWillBePosted(ctx context.Context, message string, args *domain.CommandArgs) (string, *domain.CommandArgs, error) {
	r.mu.RLock()
	hooks := r.slash
	r.mu.RUnlock()

	for _, h := range hooks {
		nextMsg, nextArgs, err := h.fn(ctx, message, args)
		if err != nil {
			r.logger.Debug("slash hook rejected command", zap.String("hook", h.name), zap.Error(err))
			return "", nil, err
		}
		if nextMsg == "" && nextArgs == nil {
			r.logger.Debug("slash hook consumed command", zap.String("hook", h.name))
			return "", nil, nil
		}
		message, args = nextMsg, nextArgs
	}
	return message, args, nil
}
