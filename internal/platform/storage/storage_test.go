package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/docintel-backend/internal/platform/gcp"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
)

type memBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (b *memBucket) UploadFile(_ context.Context, key string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return nil
}

func (b *memBucket) DownloadFile(_ context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", gcp.ErrObjectNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *memBucket) DeleteFile(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *memBucket) Close() error { return nil }

func newStore(t *testing.T, mirror gcp.BucketService) Store {
	t.Helper()
	dir := t.TempDir()
	s, err := New(Config{UploadDir: filepath.Join(dir, "uploads"), HighlightDir: filepath.Join(dir, "files")}, mirror, logger.Nop())
	require.NoError(t, err)
	return s
}

func TestStoredName(t *testing.T) {
	now := time.Unix(0, 1700000000000000000)
	assert.Equal(t, "1700000000000000000_report.pdf", StoredName("report.pdf", now))
	assert.Equal(t, "1700000000000000000_evil.docx", StoredName("../../evil.docx", now))
	assert.Equal(t, "1700000000000000000_a.pptx", StoredName(`C:\Users\me\a.pptx`, now))
}

func TestSaveOpenDeleteLocal(t *testing.T) {
	s := newStore(t, nil)
	ctx := context.Background()

	n, err := s.Save(ctx, KindUpload, "1_a.pdf", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	rc, err := s.Open(ctx, KindUpload, "1_a.pdf")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "hello", string(data))

	require.NoError(t, s.Delete(ctx, KindUpload, "1_a.pdf"))
	_, err = s.Open(ctx, KindUpload, "1_a.pdf")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, s.Delete(ctx, KindUpload, "1_a.pdf"))
}

func TestMirrorFallback(t *testing.T) {
	bucket := &memBucket{objects: map[string][]byte{}}
	s := newStore(t, bucket)
	ctx := context.Background()

	_, err := s.Save(ctx, KindHighlighted, "highlighted_x.docx", strings.NewReader("marked"))
	require.NoError(t, err)
	assert.Equal(t, []byte("marked"), bucket.objects["highlighted/highlighted_x.docx"])

	// A fresh store on another disk still serves the mirrored copy.
	other := newStore(t, bucket)
	rc, err := other.Open(ctx, KindHighlighted, "highlighted_x.docx")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "marked", string(data))

	require.NoError(t, s.Delete(ctx, KindHighlighted, "highlighted_x.docx"))
	_, err = other.Open(ctx, KindHighlighted, "highlighted_x.docx")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPathStripsDirectories(t *testing.T) {
	s := newStore(t, nil)
	assert.Equal(t, "evil.pdf", filepath.Base(s.Path(KindUpload, "../evil.pdf")))
}
