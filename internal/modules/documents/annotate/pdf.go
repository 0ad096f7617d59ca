package annotate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/yungbote/docintel-backend/internal/domain/documents"
	"github.com/yungbote/docintel-backend/internal/modules/documents/ooxml"
	"github.com/yungbote/docintel-backend/internal/modules/documents/pdftext"
	"github.com/yungbote/docintel-backend/internal/modules/documents/textmatch"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
)

var disablePdfcpuConfig sync.Once

type pdfAnnotator struct {
	cfg Config
	log *logger.Logger
}

func (a *pdfAnnotator) Format() Format { return FormatPDF }

// pdfMark is one highlight resolved to page geometry.
type pdfMark struct {
	page        int
	lines       []pdftext.Rect
	color       [3]float64
	explanation string
}

func (a *pdfAnnotator) Annotate(ctx context.Context, highlights []documents.Highlight, sourcePath string) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, annotationErr(sourcePath, FormatPDF, fmt.Errorf("panic: %v", r))
		}
	}()

	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return Result{}, annotationErr(sourcePath, FormatPDF, err)
	}
	pages, err := pdftext.Pages(data)
	if err != nil {
		return Result{}, annotationErr(sourcePath, FormatPDF, err)
	}

	taken := unitMarks{}
	var marks []pdfMark
	for _, h := range highlights {
		if err := ctx.Err(); err != nil {
			return Result{}, annotationErr(sourcePath, FormatPDF, err)
		}
		pageIdx, start, end, ok := firstPageMatch(pages, h.Content)
		if !ok || taken.overlaps(pageIdx, start, end) {
			a.log.Debug("Highlight skipped", "path", sourcePath, "content", h.Content, "found", ok)
			res.Skipped++
			continue
		}
		lines := pages[pageIdx].Lines(start, end)
		if len(lines) == 0 {
			res.Skipped++
			continue
		}
		taken.add(pageIdx, start, end)
		marks = append(marks, pdfMark{
			page:        pages[pageIdx].Number,
			lines:       lines,
			color:       colorFor(h.Category).rgb,
			explanation: h.Explanation,
		})
		res.Applied++
	}

	out, err := writeHighlights(data, marks)
	if err != nil {
		return Result{}, annotationErr(sourcePath, FormatPDF, err)
	}
	res.Path = OutputPath(a.cfg.OutputDir, sourcePath)
	if err := ooxml.WriteFileAtomic(res.Path, out); err != nil {
		return Result{}, annotationErr(sourcePath, FormatPDF, err)
	}
	return res, nil
}

// firstPageMatch falls back to ignoring whitespace because PDF text reconstruction
// cannot recover the original spacing reliably.
func firstPageMatch(pages []pdftext.Page, content string) (page, start, end int, ok bool) {
	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = p.Text
	}
	return textmatch.FirstUnit(texts, content, textmatch.FindIgnoringSpace)
}

func writeHighlights(data []byte, marks []pdfMark) ([]byte, error) {
	if len(marks) == 0 {
		return data, nil
	}
	disablePdfcpuConfig.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if err := api.ValidateContext(pctx); err != nil {
		return nil, fmt.Errorf("validate pdf: %w", err)
	}
	xt := pctx.XRefTable
	if xt.Encrypt != nil {
		return nil, errors.New("encrypted pdf")
	}
	if xt.Size == nil {
		return nil, errors.New("pdf trailer has no size")
	}
	upd, err := newIncrementalUpdate(data, *xt.Size, xt.Root, xt.Info, xt.ID)
	if err != nil {
		return nil, err
	}

	for _, m := range marks {
		pageDict, pageRef, _, err := pctx.PageDict(m.page, false)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", m.page, err)
		}
		if pageDict == nil || pageRef == nil {
			return nil, fmt.Errorf("page %d: not found", m.page)
		}

		bounds := pdftext.Bounds(m.lines)
		quads := make([]float64, 0, 8*len(m.lines))
		for _, l := range m.lines {
			quads = append(quads, l.X0, l.Y1, l.X1, l.Y1, l.X0, l.Y0, l.X1, l.Y0)
		}
		ref := upd.add(types.Dict{
			"Type":       types.Name("Annot"),
			"Subtype":    types.Name("Highlight"),
			"Rect":       types.NewNumberArray(bounds.X0, bounds.Y0, bounds.X1, bounds.Y1),
			"QuadPoints": types.NewNumberArray(quads...),
			"C":          types.NewNumberArray(m.color[0], m.color[1], m.color[2]),
			"CA":         types.Float(0.4),
			"Contents":   types.NewHexLiteral(utf16Text(m.explanation)),
			"T":          types.NewHexLiteral(utf16Text(Author)),
			"F":          types.Integer(4),
			"P":          *pageRef,
		})

		var annots types.Array
		if obj, found := pageDict.Find("Annots"); found {
			if annots, err = pctx.DereferenceArray(obj); err != nil {
				return nil, fmt.Errorf("page %d: annots: %w", m.page, err)
			}
		}
		// Marks on the same page accumulate in the shared page dict.
		pageDict["Annots"] = append(annots, ref)
		upd.replace(*pageRef, pageDict)
	}
	return upd.bytes(), nil
}

// utf16Text encodes s as a PDF text string (UTF-16BE with byte order mark).
func utf16Text(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 2, 2+2*len(units))
	out[0], out[1] = 0xFE, 0xFF
	for _, u := range units {
		out = append(out, byte(u>>8), byte(u))
	}
	return out
}
