// Package annotate maps highlights back onto the source document and writes a marked-up
// copy in the same container format.
package annotate

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yungbote/docintel-backend/internal/domain/documents"
	"github.com/yungbote/docintel-backend/internal/modules/documents/docerr"
	"github.com/yungbote/docintel-backend/internal/observability"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
)

// Format is the closed set of document formats the pipeline accepts.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatPPTX Format = "pptx"
)

// FormatFromPath selects a format by file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDOCX, nil
	case ".pptx":
		return FormatPPTX, nil
	}
	return "", fmt.Errorf("%w: %q", docerr.ErrUnsupportedFormat, filepath.Ext(path))
}

// Author is recorded on every comment and annotation.
const Author = "DocIntel"

type Result struct {
	Path    string
	Applied int
	Skipped int
}

// Annotator is implemented once per Format.
type Annotator interface {
	Format() Format
	// Annotate writes a marked-up copy of sourcePath. Each highlight is placed on the
	// first unit containing its content; highlights with no match are skipped.
	Annotate(ctx context.Context, highlights []documents.Highlight, sourcePath string) (Result, error)
}

type Config struct {
	// OutputDir receives highlighted_<name> copies.
	OutputDir string
}

// New returns the annotator for f.
func New(f Format, cfg Config, log *logger.Logger) (Annotator, error) {
	switch f {
	case FormatPDF:
		return &pdfAnnotator{cfg: cfg, log: log.With("component", "PDFAnnotator")}, nil
	case FormatDOCX:
		return &docxAnnotator{cfg: cfg, log: log.With("component", "DOCXAnnotator")}, nil
	case FormatPPTX:
		return &pptxAnnotator{cfg: cfg, log: log.With("component", "PPTXAnnotator")}, nil
	}
	return nil, fmt.Errorf("%w: %q", docerr.ErrUnsupportedFormat, f)
}

// OutputPath is where the highlighted copy of sourcePath is written.
func OutputPath(outputDir, sourcePath string) string {
	return filepath.Join(outputDir, "highlighted_"+filepath.Base(sourcePath))
}

// Apply runs a and converts failure into an empty Result after logging it. Callers treat
// an empty Path as "highlighting unavailable".
func Apply(ctx context.Context, a Annotator, highlights []documents.Highlight, sourcePath string, log *logger.Logger) Result {
	res, err := a.Annotate(ctx, highlights, sourcePath)
	if err != nil {
		log.Error("Annotation failed", "path", sourcePath, "format", string(a.Format()), "error", err)
		return Result{}
	}
	observability.Current().ObserveAnnotation(string(a.Format()), res.Applied, res.Skipped)
	log.Info("Annotation written",
		"path", sourcePath,
		"output", res.Path,
		"applied", res.Applied,
		"skipped", res.Skipped,
	)
	return res
}

type color struct {
	word    string
	drawing string
	rgb     [3]float64
}

var colors = map[documents.HighlightCategory]color{
	documents.CategoryMainIdea:   {word: "green", drawing: "00CC00", rgb: [3]float64{0, 0.8, 0}},
	documents.CategoryVocabulary: {word: "yellow", drawing: "FFFF00", rgb: [3]float64{1, 1, 0}},
	documents.CategoryQuestion:   {word: "magenta", drawing: "FFB3B3", rgb: [3]float64{1, 0.7, 0.7}},
	documents.CategorySubIdea:    {word: "cyan", drawing: "8080FF", rgb: [3]float64{0.5, 0.5, 1}},
}

func colorFor(c documents.HighlightCategory) color {
	if col, ok := colors[c]; ok {
		return col
	}
	return colors[documents.CategoryVocabulary]
}

// span is an accepted mark inside one unit.
type span struct{ start, end int }

// unitMarks tracks accepted spans per unit so a later highlight cannot overlap an
// earlier one in the same unit.
type unitMarks map[int][]span

func (u unitMarks) overlaps(unit, start, end int) bool {
	for _, s := range u[unit] {
		if start < s.end && end > s.start {
			return true
		}
	}
	return false
}

func (u unitMarks) add(unit, start, end int) {
	u[unit] = append(u[unit], span{start, end})
}

func annotationErr(path string, f Format, err error) error {
	return &docerr.AnnotationError{Path: path, Format: string(f), Err: err}
}
