// Package aggregate folds ordered per-chunk results into one document-level artifact.
package aggregate

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/docintel-backend/internal/domain/documents"
	"github.com/yungbote/docintel-backend/internal/modules/documents/docerr"
	"github.com/yungbote/docintel-backend/internal/modules/documents/prompts"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
	"github.com/yungbote/docintel-backend/internal/platform/openai"
)

// Highlights concatenates per-chunk highlights in chunk order. PageCount is set to the
// number of chunks.
func Highlights(title string, perChunk [][]documents.Highlight) documents.DocumentAnalysis {
	n := 0
	for _, hs := range perChunk {
		n += len(hs)
	}
	all := make([]documents.Highlight, 0, n)
	for _, hs := range perChunk {
		all = append(all, hs...)
	}
	return documents.DocumentAnalysis{
		Highlights: all,
		PageCount:  len(perChunk),
		Title:      title,
	}
}

type Summarizer struct {
	llm openai.Client
	log *logger.Logger
}

func NewSummarizer(llm openai.Client, log *logger.Logger) *Summarizer {
	return &Summarizer{llm: llm, log: log.With("service", "SummaryAggregator")}
}

// Reduce joins the chunk summaries into one summary and classifies it against categories.
// With no categories the classification is left empty.
func (s *Summarizer) Reduce(ctx context.Context, path, title string, chunks []documents.ChunkSummary, categories []string, hint prompts.Hint) (documents.DocumentSummary, error) {
	out := documents.DocumentSummary{
		Title:               title,
		ChunkSummaries:      chunks,
		AvailableCategories: categories,
	}

	summaries := make([]string, 0, len(chunks))
	for _, c := range chunks {
		summaries = append(summaries, c.Summary)
	}
	system, user := prompts.SynthesisPrompt(title, summaries, hint)
	full, err := s.llm.GenerateText(ctx, system, user)
	if err != nil {
		return out, &docerr.UpstreamError{Path: path, Op: "synthesize summary", Err: err}
	}
	out.FullSummary = strings.TrimSpace(full)

	if len(categories) == 0 {
		s.log.Warn("No categories supplied, skipping classification", "path", path)
		return out, nil
	}
	cls, err := s.classify(ctx, path, out.FullSummary, categories, hint)
	if err != nil {
		return out, err
	}
	out.Classification = cls
	return out, nil
}

func (s *Summarizer) classify(ctx context.Context, path, summary string, categories []string, hint prompts.Hint) (documents.Classification, error) {
	system, user := prompts.ClassifyPrompt(summary, categories, hint)
	obj, err := s.llm.GenerateJSON(ctx, system, user, "document_classification", prompts.ClassifySchema(categories))
	if err != nil {
		return documents.Classification{}, &docerr.UpstreamError{Path: path, Op: "classify", Err: err}
	}
	var cls documents.Classification
	if err := openai.Decode(obj, &cls); err != nil {
		return documents.Classification{}, &docerr.UpstreamError{Path: path, Op: "classify", Err: fmt.Errorf("%w: %v", docerr.ErrMalformedResponse, err)}
	}
	switch {
	case cls.Confidence < 0:
		cls.Confidence = 0
	case cls.Confidence > 100:
		cls.Confidence = 100
	}
	return cls, nil
}
