package upload

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/matheus3301/quill/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorder struct {
	mu        sync.Mutex
	started   []string
	progress  map[string][]int
	completed map[string]domain.FileInfo
	failed    map[string]error
}

func newRecorder() *recorder {
	return &recorder{
		progress:  make(map[string][]int),
		completed: make(map[string]domain.FileInfo),
		failed:    make(map[string]error),
	}
}

func (r *recorder) OnUploadStart(ids []string, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, ids...)
}

func (r *recorder) OnUploadProgress(id, _ string, pct int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress[id] = append(r.progress[id], pct)
}

func (r *recorder) OnUploadComplete(infos []domain.FileInfo, ids []string, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, id := range ids {
		r.completed[id] = infos[i]
	}
}

func (r *recorder) OnUploadError(err error, id, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[id] = err
}

type fakeUploader struct {
	mu       sync.Mutex
	requests []*Request
	block    chan struct{}
	err      error
}

func (f *fakeUploader) UploadFile(ctx context.Context, req *Request) (*domain.FileInfo, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &domain.FileInfo{
		ID: "file-" + req.Name, Name: req.Name, MimeType: req.MimeType,
		Size: int64(len(req.Data)), Width: req.Width, Height: req.Height,
	}, nil
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestUploadCompletes(t *testing.T) {
	rec := newRecorder()
	up := &fakeUploader{}
	m := NewManager(up, rec, 2, 1<<20, zap.NewNop())

	img := writeFile(t, "cat.png", pngBytes(t, 30, 20))
	txt := writeFile(t, "notes.txt", []byte("hello"))

	ids := m.Start(context.Background(), "c1", []string{img, txt})
	require.Len(t, ids, 2)
	assert.Equal(t, ids, rec.started, "start is reported before Start returns")
	m.Wait()

	require.Len(t, rec.completed, 2)
	cat := rec.completed[ids[0]]
	assert.Equal(t, "image/png", cat.MimeType)
	assert.Equal(t, 30, cat.Width)
	assert.Equal(t, 20, cat.Height)
	assert.Contains(t, rec.completed[ids[1]].MimeType, "text/plain")
	assert.Equal(t, []int{50, 100}, rec.progress[ids[0]])
	assert.Empty(t, rec.failed)
}

func TestUploadTooLarge(t *testing.T) {
	rec := newRecorder()
	up := &fakeUploader{}
	m := NewManager(up, rec, 1, 4, zap.NewNop())

	ids := m.Start(context.Background(), "c1", []string{writeFile(t, "big.bin", []byte("0123456789"))})
	m.Wait()

	require.Contains(t, rec.failed, ids[0])
	assert.Contains(t, rec.failed[ids[0]].Error(), "larger than")
	assert.Empty(t, up.requests)
}

func TestUploadMissingFile(t *testing.T) {
	rec := newRecorder()
	m := NewManager(&fakeUploader{}, rec, 1, 0, zap.NewNop())

	ids := m.Start(context.Background(), "c1", []string{filepath.Join(t.TempDir(), "nope")})
	m.Wait()
	assert.ErrorIs(t, rec.failed[ids[0]], os.ErrNotExist)
}

func TestUploadServerError(t *testing.T) {
	rec := newRecorder()
	m := NewManager(&fakeUploader{err: errors.New("disk full")}, rec, 1, 0, zap.NewNop())

	ids := m.Start(context.Background(), "c1", []string{writeFile(t, "a.txt", []byte("a"))})
	m.Wait()
	assert.ErrorContains(t, rec.failed[ids[0]], "disk full")
	assert.Empty(t, rec.completed)
}

func TestCancelReportsNothing(t *testing.T) {
	rec := newRecorder()
	up := &fakeUploader{block: make(chan struct{})}
	m := NewManager(up, rec, 1, 0, zap.NewNop())

	ids := m.Start(context.Background(), "c1", []string{writeFile(t, "a.txt", []byte("a"))})
	assert.True(t, m.Cancel(ids[0]))
	assert.False(t, m.Cancel(ids[0]), "second cancel is a no-op")
	m.Wait()

	assert.Empty(t, rec.completed)
	assert.Empty(t, rec.failed)
	assert.False(t, m.Cancel("unknown"))
}

func TestStartNothing(t *testing.T) {
	rec := newRecorder()
	m := NewManager(&fakeUploader{}, rec, 1, 0, zap.NewNop())
	assert.Nil(t, m.Start(context.Background(), "c1", nil))
	assert.Empty(t, rec.started)
}
