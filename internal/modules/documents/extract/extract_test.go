package extract

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yungbote/docintel-backend/internal/modules/documents/annotate"
	"github.com/yungbote/docintel-backend/internal/modules/documents/docerr"
	"github.com/yungbote/docintel-backend/internal/modules/documents/doctest"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
)

type countingSource struct {
	calls atomic.Int32
	delay time.Duration
	text  string
	err   error
}

func (s *countingSource) Name() string { return "counting" }

func (s *countingSource) Extract(ctx context.Context, _ annotate.Format, _ []byte) (string, error) {
	s.calls.Add(1)
	time.Sleep(s.delay)
	return s.text, s.err
}

func newMemCache(t *testing.T) *MemoryCache {
	t.Helper()
	c, err := NewMemoryCache(1<<20, time.Minute)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNativeDOCX(t *testing.T) {
	p := doctest.WriteFile(t, "a.docx", doctest.DOCXParagraphs("First paragraph.", "", "Second paragraph."))
	text, err := New(nil, logger.Nop()).Extract(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\nSecond paragraph.", text)
}

func TestNativePPTXFollowsSlideOrder(t *testing.T) {
	p := doctest.WriteFile(t, "deck.pptx", doctest.PPTX([]string{"Title", "Intro"}, []string{"Closing"}))
	text, err := New(nil, logger.Nop()).Extract(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "Title\nIntro\nClosing", text)
}

func TestNativePDF(t *testing.T) {
	p := doctest.WriteFile(t, "doc.pdf", doctest.PDF([]string{"Hello world"}, []string{"Page two"}))
	text, err := New(nil, logger.Nop()).Extract(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "Hello world\nPage two", text)
}

func TestUnsupportedAndMissing(t *testing.T) {
	e := New(nil, logger.Nop())

	_, err := e.Extract(context.Background(), "notes.txt")
	assert.True(t, docerr.IsExtraction(err))
	assert.True(t, errors.Is(err, docerr.ErrUnsupportedFormat))

	_, err = e.Extract(context.Background(), filepath.Join(t.TempDir(), "gone.pdf"))
	assert.True(t, docerr.IsExtraction(err))
	assert.True(t, errors.Is(err, docerr.ErrNotFound))
}

func TestEmptyDocument(t *testing.T) {
	p := doctest.WriteFile(t, "blank.docx", doctest.DOCXParagraphs("   "))
	_, err := New(nil, logger.Nop()).Extract(context.Background(), p)
	assert.True(t, docerr.IsExtraction(err))
	assert.True(t, errors.Is(err, docerr.ErrEmptyDocument))
}

func TestCacheKeyedByContentNotPath(t *testing.T) {
	data := doctest.PDF([]string{"same bytes"})
	a := doctest.WriteFile(t, "a.pdf", data)
	b := doctest.WriteFile(t, "b.pdf", data)

	src := &countingSource{text: "cached text"}
	e := New(newMemCache(t), logger.Nop(), WithPDFSource(src))

	ta, err := e.Extract(context.Background(), a)
	require.NoError(t, err)
	tb, err := e.Extract(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, ta, tb)
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, CacheKey("counting", data), CacheKey("counting", append([]byte(nil), data...)))
	assert.NotEqual(t, CacheKey("native", data), CacheKey("documentai", data))
}

func TestConcurrentCallsShareExtraction(t *testing.T) {
	p := doctest.WriteFile(t, "c.pdf", doctest.PDF([]string{"x"}))
	src := &countingSource{text: "shared", delay: 50 * time.Millisecond}
	e := New(nil, logger.Nop(), WithPDFSource(src))

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			text, err := e.Extract(context.Background(), p)
			assert.NoError(t, err)
			assert.Equal(t, "shared", text)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestSourceErrorsAreClassified(t *testing.T) {
	p := doctest.WriteFile(t, "d.pdf", doctest.PDF([]string{"x"}))

	broken := &countingSource{err: errors.New("bad xref")}
	_, err := New(nil, logger.Nop(), WithPDFSource(broken)).Extract(context.Background(), p)
	assert.True(t, docerr.IsExtraction(err))

	unavailable := &countingSource{err: classifyRPC(status.Error(codes.Unavailable, "down"))}
	_, err = New(nil, logger.Nop(), WithPDFSource(unavailable)).Extract(context.Background(), p)
	assert.True(t, docerr.IsUpstream(err))

	assert.False(t, docerr.IsUpstream(classifyRPC(status.Error(codes.InvalidArgument, "bad pdf"))))
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := newMemCache(t)
	_, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(context.Background(), "k", "v"))
	v, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}
