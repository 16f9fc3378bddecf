package api

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/matheus3301/quill/internal/bus"
	"github.com/matheus3301/quill/internal/domain"
	"github.com/matheus3301/quill/internal/rpc"
	"github.com/matheus3301/quill/internal/store"
	"github.com/matheus3301/quill/internal/upload"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// FileService implements rpc.FileServer. File bytes live under dir, named
// by file ID.
type FileService struct {
	db      *store.DB
	dir     string
	maxSize int64
	bus     *bus.Bus
	logger  *zap.Logger
}

// NewFileService creates a file service storing files under dir.
func NewFileService(db *store.DB, dir string, maxSize int64, b *bus.Bus, logger *zap.Logger) *FileService {
	return &FileService{db: db, dir: dir, maxSize: maxSize, bus: b, logger: logger}
}

func (s *FileService) Upload(_ context.Context, req *upload.Request) (*rpc.FileResponse, error) {
	if req.Name == "" || req.ChannelID == "" {
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "name and channel_id are required")
	}
	if s.maxSize > 0 && int64(len(req.Data)) > s.maxSize {
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "%s exceeds the maximum file size", req.Name)
	}
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return nil, toStatus("create files dir", err)
	}

	id := strings.ToLower(ulid.Make().String())
	path := filepath.Join(s.dir, id+strings.ToLower(filepath.Ext(req.Name)))
	if err := os.WriteFile(path, req.Data, 0600); err != nil {
		return nil, toStatus("write file", err)
	}
	f := &store.StoredFile{
		FileInfo: domain.FileInfo{
			ID:        id,
			ChannelID: req.ChannelID,
			Name:      filepath.Base(req.Name),
			MimeType:  req.MimeType,
			Size:      int64(len(req.Data)),
			Width:     req.Width,
			Height:    req.Height,
		},
		Path: path,
	}
	if err := s.db.InsertFile(f); err != nil {
		_ = os.Remove(path)
		return nil, toStatus("insert file", err)
	}

	s.logger.Info("file stored",
		zap.String("file_id", f.ID),
		zap.String("client_id", req.ClientID),
		zap.Int64("size", f.Size))
	s.bus.Emit(bus.KindFileUploaded, f.FileInfo)
	info := f.FileInfo
	return &rpc.FileResponse{File: &info}, nil
}

func (s *FileService) Delete(_ context.Context, req *rpc.DeleteFileRequest) (*rpc.Empty, error) {
	f, err := s.db.DeleteFile(req.FileID)
	if err != nil {
		return nil, toStatus("delete file", err)
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("failed to remove file bytes", zap.String("path", f.Path), zap.Error(err))
	}
	return &rpc.Empty{}, nil
}
