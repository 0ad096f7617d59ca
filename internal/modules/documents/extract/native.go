package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/docintel-backend/internal/modules/documents/annotate"
	"github.com/yungbote/docintel-backend/internal/modules/documents/ooxml"
	"github.com/yungbote/docintel-backend/internal/modules/documents/pdftext"
)

// Native reads text locally. DOCX and PPTX paragraphs come from the same parser the
// annotators search, so every highlight drawn from this text can be located again.
type Native struct{}

func (Native) Name() string { return "native" }

func (Native) Extract(ctx context.Context, f annotate.Format, data []byte) (string, error) {
	switch f {
	case annotate.FormatPDF:
		pages, err := pdftext.Pages(data)
		if err != nil {
			return "", err
		}
		return pdftext.PlainText(pages), nil
	case annotate.FormatDOCX:
		pkg, err := ooxml.Parse(data)
		if err != nil {
			return "", err
		}
		paras, _, err := ooxml.WordParagraphs(pkg)
		if err != nil {
			return "", err
		}
		return joinParagraphs(ooxml.Texts(paras)), nil
	case annotate.FormatPPTX:
		pkg, err := ooxml.Parse(data)
		if err != nil {
			return "", err
		}
		var texts []string
		for _, part := range ooxml.SlideParts(pkg) {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			body, _ := pkg.Part(part)
			paras, err := ooxml.ParseParagraphs(body, ooxml.Drawing)
			if err != nil {
				return "", fmt.Errorf("%s: %w", part, err)
			}
			texts = append(texts, ooxml.Texts(paras)...)
		}
		return joinParagraphs(texts), nil
	}
	return "", fmt.Errorf("no native reader for %q", f)
}

func joinParagraphs(texts []string) string {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, "\n")
}
