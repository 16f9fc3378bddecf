// Package upload reads local files, tags them and hands them to the daemon,
// reporting progress to a Listener.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/matheus3301/quill/internal/domain"
	"github.com/matheus3301/quill/internal/media"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Request is one file sent to the daemon.
type Request struct {
	ClientID  string `json:"client_id"`
	ChannelID string `json:"channel_id"`
	Name      string `json:"name"`
	MimeType  string `json:"mime_type"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Data      []byte `json:"data"`
}

// Uploader stores a file and returns its record.
type Uploader interface {
	UploadFile(ctx context.Context, req *Request) (*domain.FileInfo, error)
}

// Listener receives upload lifecycle callbacks. Calls may come from any
// goroutine.
type Listener interface {
	OnUploadStart(clientIDs []string, channelID string)
	OnUploadProgress(clientID, channelID string, percent int)
	OnUploadComplete(infos []domain.FileInfo, clientIDs []string, channelID string)
	OnUploadError(err error, clientID, channelID string)
}

// Manager runs uploads with bounded concurrency.
type Manager struct {
	uploader Uploader
	listener Listener
	sem      *semaphore.Weighted
	maxSize  int64
	logger   *zap.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager returns a manager running at most maxConcurrent uploads and
// rejecting files larger than maxSize bytes.
func NewManager(u Uploader, l Listener, maxConcurrent int, maxSize int64, logger *zap.Logger) *Manager {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Manager{
		uploader: u,
		listener: l,
		sem:      semaphore.NewWeighted(int64(maxConcurrent)),
		maxSize:  maxSize,
		logger:   logger,
		cancels:  make(map[string]context.CancelFunc),
	}
}

// Start begins uploading paths to channelID and returns their client IDs.
// OnUploadStart is called before Start returns.
func (m *Manager) Start(ctx context.Context, channelID string, paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	ids := make([]string, len(paths))
	ctxs := make([]context.Context, len(paths))

	m.mu.Lock()
	for i := range paths {
		ids[i] = uuid.NewString()
		var cancel context.CancelFunc
		ctxs[i], cancel = context.WithCancel(ctx)
		m.cancels[ids[i]] = cancel
	}
	m.mu.Unlock()

	m.listener.OnUploadStart(ids, channelID)

	for i, path := range paths {
		m.wg.Add(1)
		go m.run(ctxs[i], ids[i], channelID, path)
	}
	return ids
}

// Cancel aborts an upload. A cancelled upload reports nothing further.
// It returns false when the ID is unknown or already finished.
func (m *Manager) Cancel(clientID string) bool {
	m.mu.Lock()
	cancel, ok := m.cancels[clientID]
	delete(m.cancels, clientID)
	m.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Wait blocks until every started upload has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context, clientID, channelID, path string) {
	defer m.wg.Done()
	defer m.finish(clientID)

	if err := m.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer m.sem.Release(1)

	req, err := m.prepare(clientID, channelID, path)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		m.fail(err, clientID, channelID)
		return
	}
	m.listener.OnUploadProgress(clientID, channelID, 50)

	info, err := m.uploader.UploadFile(ctx, req)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		m.fail(fmt.Errorf("upload %s: %w", req.Name, err), clientID, channelID)
		return
	}
	m.listener.OnUploadProgress(clientID, channelID, 100)
	m.logger.Info("upload complete",
		zap.String("client_id", clientID),
		zap.String("file_id", info.ID),
		zap.String("mime", info.MimeType))
	m.listener.OnUploadComplete([]domain.FileInfo{*info}, []string{clientID}, channelID)
}

func (m *Manager) prepare(clientID, channelID, path string) (*Request, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%s is a directory", filepath.Base(path))
	}
	if m.maxSize > 0 && st.Size() > m.maxSize {
		return nil, fmt.Errorf("%s is %s, larger than the %s limit",
			filepath.Base(path), media.HumanSize(st.Size()), media.HumanSize(m.maxSize))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	req := &Request{
		ClientID:  clientID,
		ChannelID: channelID,
		Name:      filepath.Base(path),
		MimeType:  mimetype.Detect(data).String(),
		Data:      data,
	}
	if media.IsImageMime(req.MimeType) {
		if info, err := media.Probe(bytes.NewReader(data)); err == nil {
			req.Width, req.Height = info.Width, info.Height
		}
	}
	return req, nil
}

func (m *Manager) fail(err error, clientID, channelID string) {
	m.logger.Warn("upload failed", zap.String("client_id", clientID), zap.Error(err))
	m.listener.OnUploadError(err, clientID, channelID)
}

func (m *Manager) finish(clientID string) {
	m.mu.Lock()
	if cancel, ok := m.cancels[clientID]; ok {
		cancel()
		delete(m.cancels, clientID)
	}
	m.mu.Unlock()
}
