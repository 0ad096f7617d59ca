package annotate

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yungbote/docintel-backend/internal/domain/documents"
	"github.com/yungbote/docintel-backend/internal/modules/documents/ooxml"
	"github.com/yungbote/docintel-backend/internal/modules/documents/textmatch"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
)

const (
	wordCommentsContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.comments+xml"
	wordMainNS              = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

var wordIDAttr = regexp.MustCompile(`\bw:id="(\d+)"`)

type docxAnnotator struct {
	cfg Config
	log *logger.Logger
}

func (a *docxAnnotator) Format() Format { return FormatDOCX }

func (a *docxAnnotator) Annotate(ctx context.Context, highlights []documents.Highlight, sourcePath string) (Result, error) {
	pkg, err := ooxml.Open(sourcePath)
	if err != nil {
		return Result{}, annotationErr(sourcePath, FormatDOCX, err)
	}
	paras, body, err := ooxml.WordParagraphs(pkg)
	if err != nil {
		return Result{}, annotationErr(sourcePath, FormatDOCX, err)
	}

	commentsPart, haveComments, err := pkg.RelatedPart(ooxml.WordDocumentPart, ooxml.RelTypeComments)
	if err != nil {
		return Result{}, annotationErr(sourcePath, FormatDOCX, err)
	}
	var existing []byte
	if haveComments {
		existing, haveComments = pkg.Part(commentsPart)
	}
	nextID := maxWordID(body, existing) + 1

	var (
		res      Result
		marks    = map[int][]ooxml.Mark{}
		taken    = unitMarks{}
		comments strings.Builder
	)
	for _, h := range highlights {
		if err := ctx.Err(); err != nil {
			return Result{}, annotationErr(sourcePath, FormatDOCX, err)
		}
		unit, start, end, ok := firstMatch(paras, h.Content)
		if !ok || taken.overlaps(unit, start, end) || !paras[unit].Editable(start, end) {
			a.log.Debug("Highlight skipped", "path", sourcePath, "content", h.Content, "found", ok)
			res.Skipped++
			continue
		}
		taken.add(unit, start, end)

		id := strconv.Itoa(nextID)
		nextID++
		marks[unit] = append(marks[unit], ooxml.Mark{
			Start:  start,
			End:    end,
			Color:  colorFor(h.Category).word,
			Before: `<w:commentRangeStart w:id="` + id + `"/>`,
			After:  `<w:commentRangeEnd w:id="` + id + `"/><w:r><w:commentReference w:id="` + id + `"/></w:r>`,
		})
		comments.WriteString(wordComment(id, h.Explanation))
		res.Applied++
	}

	if res.Applied > 0 {
		pkg.SetPart(ooxml.WordDocumentPart, ooxml.Rewrite(body, ooxml.Word, paras, marks))
		if err := writeWordComments(pkg, commentsPart, existing, haveComments, comments.String()); err != nil {
			return Result{}, annotationErr(sourcePath, FormatDOCX, err)
		}
	}

	res.Path = OutputPath(a.cfg.OutputDir, sourcePath)
	if err := pkg.WriteFile(res.Path); err != nil {
		return Result{}, annotationErr(sourcePath, FormatDOCX, err)
	}
	return res, nil
}

// firstMatch scans paragraphs in document order, literal matches first.
func firstMatch(paras []ooxml.Paragraph, content string) (unit, start, end int, ok bool) {
	texts := make([]string, len(paras))
	for i, p := range paras {
		texts[i] = p.Text
	}
	return textmatch.FirstUnit(texts, content, textmatch.FindNormalized)
}

func maxWordID(parts ...[]byte) int {
	maxID := -1
	for _, part := range parts {
		for _, m := range wordIDAttr.FindAllSubmatch(part, -1) {
			if n, err := strconv.Atoi(string(m[1])); err == nil && n > maxID {
				maxID = n
			}
		}
	}
	return maxID
}

func wordComment(id, explanation string) string {
	return `<w:comment w:id="` + id + `" w:author="` + Author + `" w:initials="DI"><w:p><w:r><w:t xml:space="preserve">` +
		ooxml.EscapeText(explanation) + `</w:t></w:r></w:p></w:comment>`
}

func writeWordComments(pkg *ooxml.Package, part string, existing []byte, have bool, comments string) error {
	if have {
		out, err := ooxml.InsertBeforeClose(existing, "</w:comments>", comments)
		if err != nil {
			return fmt.Errorf("%s: %w", part, err)
		}
		pkg.SetPart(part, out)
		return nil
	}

	part = "word/comments.xml"
	pkg.SetPart(part, []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+"\n"+
		`<w:comments xmlns:w="`+wordMainNS+`">`+comments+`</w:comments>`))
	if _, err := pkg.AddRelationship(ooxml.WordDocumentPart, ooxml.RelTypeComments, "comments.xml"); err != nil {
		return err
	}
	return pkg.EnsureOverride(part, wordCommentsContentType)
}
