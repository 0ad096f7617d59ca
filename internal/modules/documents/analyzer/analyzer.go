// Package analyzer runs one reasoning call per chunk, concurrently, and returns the
// partial results in chunk order.
package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/docintel-backend/internal/domain/documents"
	"github.com/yungbote/docintel-backend/internal/modules/documents/docerr"
	"github.com/yungbote/docintel-backend/internal/modules/documents/prompts"
	"github.com/yungbote/docintel-backend/internal/observability"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
	"github.com/yungbote/docintel-backend/internal/platform/openai"
)

type Analyzer struct {
	llm openai.Client
	log *logger.Logger
	// limit caps in-flight calls per document; <= 0 runs every chunk at once.
	limit int
}

func New(llm openai.Client, log *logger.Logger, limit int) *Analyzer {
	return &Analyzer{llm: llm, log: log.With("service", "ChunkAnalyzer"), limit: limit}
}

// Highlights returns the highlights found in each chunk, indexed like chunks.
func (a *Analyzer) Highlights(ctx context.Context, path string, chunks []documents.Chunk, hint prompts.Hint) ([][]documents.Highlight, error) {
	schema := prompts.HighlightSchema()
	return fanOut(ctx, "highlight", a.limit, chunks, func(ctx context.Context, c documents.Chunk) ([]documents.Highlight, error) {
		system, user := prompts.HighlightPrompt(c.Text, hint)
		obj, err := a.llm.GenerateJSON(ctx, system, user, "document_highlights", schema)
		if err != nil {
			return nil, upstream(path, c, err)
		}
		var out struct {
			Highlights []documents.Highlight `json:"highlights"`
		}
		if err := openai.Decode(obj, &out); err != nil {
			return nil, upstream(path, c, fmt.Errorf("%w: %v", docerr.ErrMalformedResponse, err))
		}

		// Highlights that do not occur verbatim are kept here and skipped by the annotator.
		for _, h := range out.Highlights {
			if !h.Category.Valid() {
				return nil, upstream(path, c, fmt.Errorf("%w: unknown highlight category %q", docerr.ErrMalformedResponse, h.Category))
			}
		}
		if out.Highlights == nil {
			out.Highlights = []documents.Highlight{}
		}
		return out.Highlights, nil
	})
}

// Summaries returns one ChunkSummary per chunk, in chunk order.
func (a *Analyzer) Summaries(ctx context.Context, path string, chunks []documents.Chunk, hint prompts.Hint) ([]documents.ChunkSummary, error) {
	schema := prompts.ChunkSummarySchema()
	return fanOut(ctx, "summary", a.limit, chunks, func(ctx context.Context, c documents.Chunk) (documents.ChunkSummary, error) {
		system, user := prompts.ChunkSummaryPrompt(c.Text, hint)
		obj, err := a.llm.GenerateJSON(ctx, system, user, "chunk_summary", schema)
		if err != nil {
			return documents.ChunkSummary{}, upstream(path, c, err)
		}
		var out documents.ChunkSummary
		if err := openai.Decode(obj, &out); err != nil {
			return documents.ChunkSummary{}, upstream(path, c, fmt.Errorf("%w: %v", docerr.ErrMalformedResponse, err))
		}
		if strings.TrimSpace(out.Summary) == "" {
			return documents.ChunkSummary{}, upstream(path, c, fmt.Errorf("%w: empty summary", docerr.ErrMalformedResponse))
		}
		return out, nil
	})
}

// fanOut calls fn for every chunk concurrently and stores each result at its chunk's
// position. The first error cancels the shared context and is returned; partial results
// are discarded.
func fanOut[T any](ctx context.Context, kind string, limit int, chunks []documents.Chunk, fn func(context.Context, documents.Chunk) (T, error)) ([]T, error) {
	results := make([]T, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := range chunks {
		i := i
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			start := time.Now()
			r, err := fn(gctx, chunks[i])
			observability.Current().ObserveChunkCall(kind, observability.StatusLabel(err), time.Since(start))
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func upstream(path string, c documents.Chunk, err error) error {
	return &docerr.UpstreamError{Path: path, Op: fmt.Sprintf("analyze chunk %d", c.Index), Err: err}
}
