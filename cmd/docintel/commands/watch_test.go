package commands

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/docintel-backend/internal/domain/documents"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
)

func TestShouldAnalyze(t *testing.T) {
	cases := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"create pdf", fsnotify.Event{Name: "/in/a.pdf", Op: fsnotify.Create}, true},
		{"write docx", fsnotify.Event{Name: "/in/a.DOCX", Op: fsnotify.Write}, true},
		{"create pptx", fsnotify.Event{Name: "/in/deck.pptx", Op: fsnotify.Create}, true},
		{"remove", fsnotify.Event{Name: "/in/a.pdf", Op: fsnotify.Remove}, false},
		{"chmod", fsnotify.Event{Name: "/in/a.pdf", Op: fsnotify.Chmod}, false},
		{"text file", fsnotify.Event{Name: "/in/a.txt", Op: fsnotify.Create}, false},
		{"highlighted copy", fsnotify.Event{Name: "/in/highlighted_a.pdf", Op: fsnotify.Create}, false},
		{"hidden", fsnotify.Event{Name: "/in/.~lock.docx", Op: fsnotify.Create}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, shouldAnalyze(tc.ev))
		})
	}
}

func TestSummaryPath(t *testing.T) {
	assert.Equal(t, filepath.Join("files", "report.summary.json"), summaryPath("files", "/in/report.pdf"))
}

func TestWatcherWritesSummary(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()

	var calls atomic.Int32
	w := &watcher{
		log:        logger.Nop(),
		outputDir:  out,
		categories: parseCategories(nil),
		settle:     50 * time.Millisecond,
		analyze: func(ctx context.Context, path string, cats []documents.Category) (*analyzeOutput, error) {
			calls.Add(1)
			return &analyzeOutput{File: path, HighlightCount: 2, Summary: documents.DocumentSummary{FullSummary: "ok"}}, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.run(ctx, in) }()

	dest := filepath.Join(out, "report.summary.json")
	// Retry the write until the watcher has registered the directory.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(in, "notes.txt"), []byte("x"), 0o644)
		_ = os.WriteFile(filepath.Join(in, "report.pdf"), []byte("%PDF-1.4"), 0o644)
		_, err := os.Stat(dest)
		return err == nil
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}

	raw, err := os.ReadFile(dest)
	require.NoError(t, err)
	var got analyzeOutput
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, 2, got.HighlightCount)
	assert.Equal(t, "ok", got.Summary.FullSummary)
	assert.GreaterOrEqual(t, calls.Load(), int32(1))

	_, err = os.Stat(filepath.Join(out, "notes.summary.json"))
	assert.True(t, os.IsNotExist(err))
}
