// Package api implements the daemon's gRPC services on top of the store
// and the daemon components.
package api

import (
	"errors"

	"github.com/matheus3301/quill/internal/domain"
	"github.com/matheus3301/quill/internal/post"
	"github.com/matheus3301/quill/internal/store"
	"github.com/matheus3301/quill/internal/wa"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// toStatus maps a component error to a gRPC status, prefixing op.
func toStatus(op string, err error) error {
	code := codes.Internal
	var cmdErr *domain.CommandError
	switch {
	case errors.Is(err, store.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, post.ErrEmpty), errors.Is(err, post.ErrTooLong), errors.As(err, &cmdErr):
		code = codes.InvalidArgument
	case errors.Is(err, post.ErrNotOwn):
		code = codes.PermissionDenied
	case errors.Is(err, wa.ErrNotPaired), errors.Is(err, wa.ErrAlreadyPaired):
		code = codes.FailedPrecondition
	}
	return grpcstatus.Errorf(code, "%s: %v", op, err)
}
