package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/yungbote/docintel-backend/internal/app"
	"github.com/yungbote/docintel-backend/internal/domain/documents"
	"github.com/yungbote/docintel-backend/internal/modules/documents/annotate"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
)

// settleDelay is how long a file must stop changing before it is analyzed.
const settleDelay = time.Second

func newWatchCmd(root *rootOptions) *cobra.Command {
	var categories []string
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Analyze documents as they appear in a directory",
		Long: `Watch a directory and run the pipelines on every PDF, DOCX or PPTX file that is
created or rewritten there. Each result is written as <name>.summary.json next
to the highlighted copy in $HIGHLIGHT_DIR.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := root.logger()
			if err != nil {
				return err
			}
			defer log.Sync()

			dir := args[0]
			if fi, err := os.Stat(dir); err != nil {
				return err
			} else if !fi.IsDir() {
				return fmt.Errorf("%s is not a directory", dir)
			}

			engine, err := app.NewEngine(cmd.Context(), log, app.LoadConfig(log))
			if err != nil {
				return err
			}
			defer engine.Close()

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			w := &watcher{
				log:        log.With("component", "Watch"),
				outputDir:  engine.Cfg.Pipeline.OutputDir,
				categories: parseCategories(categories),
				analyze: func(ctx context.Context, path string, cats []documents.Category) (*analyzeOutput, error) {
					return analyzeFile(ctx, engine.Pipeline, path, cats)
				},
			}
			return w.run(ctx, dir)
		},
	}
	cmd.Flags().StringSliceVar(&categories, "categories", nil, "category names to classify against (default: built-in list)")
	return cmd
}

type analyzeFunc func(ctx context.Context, path string, categories []documents.Category) (*analyzeOutput, error)

type watcher struct {
	log        *logger.Logger
	outputDir  string
	categories []documents.Category
	analyze    analyzeFunc
	// settle overrides settleDelay when positive.
	settle time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func (w *watcher) run(ctx context.Context, dir string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	if err := fw.Add(dir); err != nil {
		return err
	}
	w.log.Info("Watching for documents", "dir", dir, "output_dir", w.outputDir)

	ready := make(chan string, 64)
	quit := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case path := <-ready:
				w.handle(ctx, path)
			case <-quit:
				return
			}
		}
	}()
	defer func() {
		close(quit)
		w.stopTimers()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !shouldAnalyze(ev) {
				continue
			}
			w.schedule(ev.Name, ready, quit)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("Watcher error", "error", err)
		}
	}
}

// schedule restarts the settle timer for path so a file written in several
// bursts is analyzed once.
func (w *watcher) schedule(path string, ready chan<- string, quit <-chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == nil {
		w.pending = map[string]*time.Timer{}
	}
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	delay := settleDelay
	if w.settle > 0 {
		delay = w.settle
	}
	w.pending[path] = time.AfterFunc(delay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		select {
		case ready <- path:
		case <-quit:
		}
	})
}

func (w *watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *watcher) handle(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}
	out, err := w.analyze(ctx, path, w.categories)
	if err != nil {
		w.log.Error("Analyze failed", "file", path, "error", err)
		return
	}
	dest := summaryPath(w.outputDir, path)
	if err := writeSummaryFile(dest, out); err != nil {
		w.log.Error("Write summary failed", "file", dest, "error", err)
		return
	}
	w.log.Info("Document analyzed", "file", path, "summary", dest, "highlights", out.HighlightCount)
}

// shouldAnalyze accepts creates and writes of supported documents, skipping
// highlighted copies so a watch over the output directory does not loop.
func shouldAnalyze(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, "highlighted_") || strings.HasPrefix(base, ".") {
		return false
	}
	_, err := annotate.FormatFromPath(ev.Name)
	return err == nil
}

func summaryPath(outputDir, source string) string {
	base := filepath.Base(source)
	return filepath.Join(outputDir, strings.TrimSuffix(base, filepath.Ext(base))+".summary.json")
}

func writeSummaryFile(path string, out *analyzeOutput) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := writeJSON(f, out); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
