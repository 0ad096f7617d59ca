// Package processor runs uploaded documents through the pipeline in the background and
// records the outcome on the file row.
package processor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/yungbote/docintel-backend/internal/data/repos/documents"
	types "github.com/yungbote/docintel-backend/internal/domain/documents"
	"github.com/yungbote/docintel-backend/internal/modules/documents/pipeline"
	"github.com/yungbote/docintel-backend/internal/observability"
	"github.com/yungbote/docintel-backend/internal/platform/ctxutil"
	"github.com/yungbote/docintel-backend/internal/platform/dbctx"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
	"github.com/yungbote/docintel-backend/internal/platform/storage"
)

var (
	ErrQueueFull = errors.New("processing queue is full")
	ErrStopped   = errors.New("processor stopped")
)

type Job struct {
	FileID   uuid.UUID
	UserID   uuid.UUID
	FilePath string
}

// Runner is satisfied by *pipeline.Pipeline.
type Runner interface {
	Process(ctx context.Context, filePath string, categories []types.Category) (*pipeline.Result, error)
}

type Config struct {
	Workers   int
	QueueSize int
	// Timeout bounds one document; <= 0 means no deadline.
	Timeout time.Duration
}

type Processor struct {
	log        *logger.Logger
	cfg        Config
	runner     Runner
	files      documents.FileRepo
	categories documents.CategoryRepo
	store      storage.Store

	sem   *semaphore.Weighted
	queue chan Job
	wg    sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

func New(runner Runner, files documents.FileRepo, categories documents.CategoryRepo, store storage.Store, cfg Config, baseLog *logger.Logger) *Processor {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	return &Processor{
		log:        baseLog.With("component", "DocumentProcessor"),
		cfg:        cfg,
		runner:     runner,
		files:      files,
		categories: categories,
		store:      store,
		sem:        semaphore.NewWeighted(int64(cfg.Workers)),
		queue:      make(chan Job, cfg.QueueSize),
	}
}

// Start dispatches queued jobs until ctx is done or Stop is called.
func (p *Processor) Start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case job, ok := <-p.queue:
				if !ok {
					return
				}
				observability.Current().ProcessQueued(-1)
				if err := p.sem.Acquire(ctx, 1); err != nil {
					p.log.Warn("Dropping job on shutdown", "file_id", job.FileID)
					return
				}
				p.wg.Add(1)
				go func() {
					defer p.wg.Done()
					defer p.sem.Release(1)
					observability.Current().ProcessRunning(1)
					defer observability.Current().ProcessRunning(-1)
					_ = p.Run(ctx, job)
				}()
			}
		}
	}()
}

// Enqueue hands job to the background workers without blocking.
func (p *Processor) Enqueue(job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return ErrStopped
	}
	select {
	case p.queue <- job:
		observability.Current().ProcessQueued(1)
		p.log.Info("Document queued", "file_id", job.FileID, "path", job.FilePath)
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for running jobs.
func (p *Processor) Stop() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.queue)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// Run processes one job synchronously. Failures are logged and returned; the file row
// is only written after the pipeline succeeded.
func (p *Processor) Run(ctx context.Context, job Job) (err error) {
	log := p.log.With("file_id", job.FileID, "user_id", job.UserID)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Document processing panic", "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	ctx = ctxutil.Default(ctx)
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}
	dbc := dbctx.Context{Ctx: ctx}

	cats, err := p.categories.ListByUser(dbc, job.UserID)
	if err != nil {
		log.Error("Loading categories failed", "error", err)
		return err
	}
	list := make([]types.Category, 0, len(cats))
	for _, c := range cats {
		list = append(list, *c)
	}

	res, err := p.runner.Process(ctx, job.FilePath, list)
	if err != nil {
		log.Error("Document processing failed", "path", job.FilePath, "error", err)
		return err
	}

	update := res.ProcessingResult()
	if res.HighlightedPath != nil {
		name := filepath.Base(*res.HighlightedPath)
		if err := p.store.Publish(ctx, storage.KindHighlighted, name); err != nil {
			log.Warn("Publishing highlighted copy failed", "name", name, "error", err)
		}
		update.HighlightedFilename = &name
	}

	if err := p.files.ApplyProcessingResult(dbc, job.FileID, update); err != nil {
		log.Error("Saving processing result failed", "error", err)
		return err
	}
	log.Info("Document processing saved",
		"highlighted", update.HighlightedFilename != nil,
		"highlight_count", update.HighlightCount,
		"category_matched", update.CategoryID != nil,
	)
	return nil
}
