// Package pipeline runs the highlight and summary pipelines for one document and joins
// their results.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/docintel-backend/internal/domain/documents"
	"github.com/yungbote/docintel-backend/internal/modules/documents/aggregate"
	"github.com/yungbote/docintel-backend/internal/modules/documents/analyzer"
	"github.com/yungbote/docintel-backend/internal/modules/documents/annotate"
	"github.com/yungbote/docintel-backend/internal/modules/documents/chunker"
	"github.com/yungbote/docintel-backend/internal/modules/documents/docerr"
	"github.com/yungbote/docintel-backend/internal/modules/documents/language"
	"github.com/yungbote/docintel-backend/internal/modules/documents/prompts"
	"github.com/yungbote/docintel-backend/internal/observability"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
	"github.com/yungbote/docintel-backend/internal/platform/openai"
)

// TextExtractor is satisfied by *extract.Extractor.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

type Config struct {
	Highlight chunker.Config
	Summary   chunker.Config
	// OutputDir receives the highlighted copies.
	OutputDir string
	// ChunkConcurrency caps in-flight reasoning calls per sub-pipeline; <= 0 is unbounded.
	ChunkConcurrency int
}

func DefaultConfig() Config {
	return Config{
		Highlight: chunker.HighlightDefaults,
		Summary:   chunker.SummaryDefaults,
		OutputDir: "files",
	}
}

type Result struct {
	// HighlightedPath is nil when annotation failed.
	HighlightedPath   *string
	HighlightCount    int
	Analysis          documents.DocumentAnalysis
	Summary           documents.DocumentSummary
	MatchedCategoryID *uuid.UUID
	ProcessedAt       time.Time
}

// ProcessingResult is the single record update derived from r.
func (r *Result) ProcessingResult() documents.ProcessingResult {
	return documents.ProcessingResult{
		HighlightedFilename: r.HighlightedPath,
		Summary:             r.Summary.FullSummary,
		CategoryID:          r.MatchedCategoryID,
		HighlightCount:      r.HighlightCount,
		Classification:      r.Summary.Classification,
		ProcessedAt:         r.ProcessedAt,
	}
}

type Pipeline struct {
	log        *logger.Logger
	cfg        Config
	extractor  TextExtractor
	analyzer   *analyzer.Analyzer
	summarizer *aggregate.Summarizer
	lang       *language.Detector
	tracer     trace.Tracer
	now        func() time.Time
}

// New builds a Pipeline. lang may be nil, in which case prompts carry no language hint.
func New(llm openai.Client, ext TextExtractor, lang *language.Detector, cfg Config, log *logger.Logger) *Pipeline {
	return &Pipeline{
		log:        log.With("service", "Pipeline"),
		cfg:        cfg,
		extractor:  ext,
		analyzer:   analyzer.New(llm, log, cfg.ChunkConcurrency),
		summarizer: aggregate.NewSummarizer(llm, log),
		lang:       lang,
		tracer:     otel.Tracer("docintel/pipeline"),
		now:        time.Now,
	}
}

// Process analyzes filePath and classifies it against categories. Any extraction or
// reasoning failure aborts the whole call; an annotation failure only leaves
// HighlightedPath nil.
func (p *Pipeline) Process(ctx context.Context, filePath string, categories []documents.Category) (res *Result, err error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.process", trace.WithAttributes(
		attribute.String("document.path", filePath),
		attribute.Int("categories", len(categories)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	format, err := annotate.FormatFromPath(filePath)
	if err != nil {
		return nil, &docerr.ExtractionError{Path: filePath, Op: "detect format", Err: err}
	}
	annotator, err := annotate.New(format, annotate.Config{OutputDir: p.cfg.OutputDir}, p.log)
	if err != nil {
		return nil, &docerr.ExtractionError{Path: filePath, Op: "detect format", Err: err}
	}

	title := Title(filePath)
	names := CategoryNames(categories)
	start := p.now()

	var (
		analysis   documents.DocumentAnalysis
		annotation annotate.Result
		summary    documents.DocumentSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		analysis, annotation, err = p.highlight(gctx, filePath, title, annotator)
		return err
	})
	g.Go(func() error {
		var err error
		summary, err = p.summarize(gctx, filePath, title, names)
		return err
	})
	if err := g.Wait(); err != nil {
		if annotation.Path != "" {
			_ = os.Remove(annotation.Path)
		}
		observability.Current().ObserveDocument(string(format), "error", p.now().Sub(start))
		p.log.Error("Document processing failed", "path", filePath, "error", err)
		return nil, err
	}

	res = &Result{
		HighlightCount:    annotation.Applied,
		Analysis:          analysis,
		Summary:           summary,
		MatchedCategoryID: MatchCategory(categories, summary.Classification.Category),
		ProcessedAt:       p.now().UTC(),
	}
	if annotation.Path != "" {
		path := annotation.Path
		res.HighlightedPath = &path
	}
	observability.Current().ObserveDocument(string(format), "ok", p.now().Sub(start))
	p.log.Info("Document processed",
		"path", filePath,
		"chunks", analysis.PageCount,
		"highlights", len(analysis.Highlights),
		"applied", annotation.Applied,
		"category", summary.Classification.Category,
		"matched", res.MatchedCategoryID != nil,
		"duration_ms", p.now().Sub(start).Milliseconds(),
	)
	return res, nil
}

func (p *Pipeline) hint(text string) prompts.Hint {
	return prompts.Hint{Language: p.lang.Detect(text)}
}

func (p *Pipeline) highlight(ctx context.Context, path, title string, a annotate.Annotator) (documents.DocumentAnalysis, annotate.Result, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.highlight")
	defer span.End()

	text, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return documents.DocumentAnalysis{}, annotate.Result{}, err
	}
	chunks := chunker.Chunks(text, p.cfg.Highlight)
	span.SetAttributes(attribute.Int("chunks", len(chunks)))

	perChunk, err := p.analyzer.Highlights(ctx, path, chunks, p.hint(text))
	if err != nil {
		return documents.DocumentAnalysis{}, annotate.Result{}, err
	}
	analysis := aggregate.Highlights(title, perChunk)

	actx, aspan := p.tracer.Start(ctx, "annotate."+string(a.Format()))
	res := annotate.Apply(actx, a, analysis.Highlights, path, p.log)
	aspan.SetAttributes(attribute.Int("applied", res.Applied), attribute.Int("skipped", res.Skipped))
	aspan.End()
	return analysis, res, nil
}

func (p *Pipeline) summarize(ctx context.Context, path, title string, categories []string) (documents.DocumentSummary, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.summary")
	defer span.End()

	text, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return documents.DocumentSummary{}, err
	}
	chunks := chunker.Chunks(text, p.cfg.Summary)
	span.SetAttributes(attribute.Int("chunks", len(chunks)))

	hint := p.hint(text)
	sums, err := p.analyzer.Summaries(ctx, path, chunks, hint)
	if err != nil {
		return documents.DocumentSummary{}, err
	}
	return p.summarizer.Reduce(ctx, path, title, sums, categories, hint)
}

// Title is the file name without its directory.
func Title(path string) string {
	return filepath.Base(path)
}

func CategoryNames(categories []documents.Category) []string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		out = append(out, c.Name)
	}
	return out
}

// MatchCategory returns the id of the category whose name equals name exactly.
func MatchCategory(categories []documents.Category, name string) *uuid.UUID {
	if name == "" {
		return nil
	}
	for _, c := range categories {
		if c.Name == name {
			id := c.ID
			return &id
		}
	}
	return nil
}
