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
	presentationNS            = "http://schemas.openxmlformats.org/presentationml/2006/main"
	commentAuthorsPart        = "ppt/commentAuthors.xml"
	commentAuthorsContentType = "application/vnd.openxmlformats-officedocument.presentationml.commentAuthors+xml"
	slideCommentsContentType  = "application/vnd.openxmlformats-officedocument.presentationml.comments+xml"
)

var (
	cmAuthorTag = regexp.MustCompile(`<p:cmAuthor\b[^>]*>`)
	xmlAttr     = regexp.MustCompile(`\b(id|name|lastIdx)="([^"]*)"`)
	lastIdxAttr = regexp.MustCompile(`\blastIdx="\d*"`)
)

type pptxAnnotator struct {
	cfg Config
	log *logger.Logger
}

func (a *pptxAnnotator) Format() Format { return FormatPPTX }

type slideUnits struct {
	part  string
	body  []byte
	paras []ooxml.Paragraph
}

func (a *pptxAnnotator) Annotate(ctx context.Context, highlights []documents.Highlight, sourcePath string) (Result, error) {
	pkg, err := ooxml.Open(sourcePath)
	if err != nil {
		return Result{}, annotationErr(sourcePath, FormatPPTX, err)
	}

	var slides []slideUnits
	for _, part := range ooxml.SlideParts(pkg) {
		body, _ := pkg.Part(part)
		paras, err := ooxml.ParseParagraphs(body, ooxml.Drawing)
		if err != nil {
			return Result{}, annotationErr(sourcePath, FormatPPTX, fmt.Errorf("parse %s: %w", part, err))
		}
		slides = append(slides, slideUnits{part: part, body: body, paras: paras})
	}

	var (
		res   Result
		marks = make([]map[int][]ooxml.Mark, len(slides))
		taken = make([]unitMarks, len(slides))
		notes = make([][]string, len(slides))
	)
	for i := range slides {
		marks[i] = map[int][]ooxml.Mark{}
		taken[i] = unitMarks{}
	}

	for _, h := range highlights {
		if err := ctx.Err(); err != nil {
			return Result{}, annotationErr(sourcePath, FormatPPTX, err)
		}
		si, pi, start, end, ok := firstSlideMatch(slides, h.Content)
		if !ok || taken[si].overlaps(pi, start, end) || !slides[si].paras[pi].Editable(start, end) {
			a.log.Debug("Highlight skipped", "path", sourcePath, "content", h.Content, "found", ok)
			res.Skipped++
			continue
		}
		taken[si].add(pi, start, end)
		marks[si][pi] = append(marks[si][pi], ooxml.Mark{Start: start, End: end, Color: colorFor(h.Category).drawing})
		notes[si] = append(notes[si], h.Explanation)
		res.Applied++
	}

	if res.Applied > 0 {
		authorID, lastIdx, err := ensureCommentAuthor(pkg)
		if err != nil {
			return Result{}, annotationErr(sourcePath, FormatPPTX, err)
		}
		idx := lastIdx
		for si, s := range slides {
			if len(notes[si]) == 0 {
				continue
			}
			pkg.SetPart(s.part, ooxml.Rewrite(s.body, ooxml.Drawing, s.paras, marks[si]))
			var cms strings.Builder
			for k, note := range notes[si] {
				idx++
				fmt.Fprintf(&cms, `<p:cm authorId="%d" idx="%d"><p:pos x="10" y="%d"/><p:text>%s</p:text></p:cm>`,
					authorID, idx, 10+k*120, ooxml.EscapeText(note))
			}
			if err := addSlideComments(pkg, s.part, cms.String()); err != nil {
				return Result{}, annotationErr(sourcePath, FormatPPTX, err)
			}
		}
		if err := setAuthorLastIdx(pkg, authorID, idx); err != nil {
			return Result{}, annotationErr(sourcePath, FormatPPTX, err)
		}
	}

	res.Path = OutputPath(a.cfg.OutputDir, sourcePath)
	if err := pkg.WriteFile(res.Path); err != nil {
		return Result{}, annotationErr(sourcePath, FormatPPTX, err)
	}
	return res, nil
}

// firstSlideMatch flattens slides into paragraph order before matching.
func firstSlideMatch(slides []slideUnits, content string) (slide, para, start, end int, ok bool) {
	type pos struct{ slide, para int }
	var (
		texts []string
		at    []pos
	)
	for si, s := range slides {
		for pi, p := range s.paras {
			texts = append(texts, p.Text)
			at = append(at, pos{si, pi})
		}
	}
	i, st, e, found := textmatch.FirstUnit(texts, content, textmatch.FindNormalized)
	if !found {
		return 0, 0, 0, 0, false
	}
	return at[i].slide, at[i].para, st, e, true
}

// ensureCommentAuthor returns our author id and its last used comment index, creating
// the comment authors part when needed.
func ensureCommentAuthor(pkg *ooxml.Package) (id int, lastIdx int, err error) {
	data, ok := pkg.Part(commentAuthorsPart)
	if !ok {
		pkg.SetPart(commentAuthorsPart, []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+"\n"+
			`<p:cmAuthorLst xmlns:p="`+presentationNS+`"><p:cmAuthor id="0" name="`+Author+`" initials="DI" lastIdx="0" clrIdx="0"/></p:cmAuthorLst>`))
		if _, err := pkg.AddRelationship(ooxml.PresentationPart, ooxml.RelTypeCommentAuthors, "commentAuthors.xml"); err != nil {
			return 0, 0, err
		}
		return 0, 0, pkg.EnsureOverride(commentAuthorsPart, commentAuthorsContentType)
	}

	maxID := -1
	for _, tag := range cmAuthorTag.FindAll(data, -1) {
		attrs := tagAttrs(tag)
		n, _ := strconv.Atoi(attrs["id"])
		if attrs["name"] == Author {
			last, _ := strconv.Atoi(attrs["lastIdx"])
			return n, last, nil
		}
		if n > maxID {
			maxID = n
		}
	}
	id = maxID + 1
	out, err := ooxml.InsertBeforeClose(data, "</p:cmAuthorLst>",
		fmt.Sprintf(`<p:cmAuthor id="%d" name="%s" initials="DI" lastIdx="0" clrIdx="%d"/>`, id, Author, id))
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", commentAuthorsPart, err)
	}
	pkg.SetPart(commentAuthorsPart, out)
	return id, 0, nil
}

func setAuthorLastIdx(pkg *ooxml.Package, id, lastIdx int) error {
	data, ok := pkg.Part(commentAuthorsPart)
	if !ok {
		return fmt.Errorf("missing %s", commentAuthorsPart)
	}
	want := strconv.Itoa(id)
	out := cmAuthorTag.ReplaceAllFunc(data, func(tag []byte) []byte {
		if tagAttrs(tag)["id"] != want {
			return tag
		}
		return lastIdxAttr.ReplaceAll(tag, []byte(`lastIdx="`+strconv.Itoa(lastIdx)+`"`))
	})
	pkg.SetPart(commentAuthorsPart, out)
	return nil
}

func tagAttrs(tag []byte) map[string]string {
	out := map[string]string{}
	for _, m := range xmlAttr.FindAllSubmatch(tag, -1) {
		out[string(m[1])] = string(m[2])
	}
	return out
}

// addSlideComments appends to the slide's comment list, creating the part if needed.
func addSlideComments(pkg *ooxml.Package, slidePart, cms string) error {
	part, ok, err := pkg.RelatedPart(slidePart, ooxml.RelTypeComments)
	if err != nil {
		return err
	}
	if ok {
		if data, exists := pkg.Part(part); exists {
			out, err := ooxml.InsertBeforeClose(data, "</p:cmLst>", cms)
			if err != nil {
				return fmt.Errorf("%s: %w", part, err)
			}
			pkg.SetPart(part, out)
			return nil
		}
	}

	n := 1
	for pkg.Has(fmt.Sprintf("ppt/comments/comment%d.xml", n)) {
		n++
	}
	part = fmt.Sprintf("ppt/comments/comment%d.xml", n)
	pkg.SetPart(part, []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+"\n"+
		`<p:cmLst xmlns:p="`+presentationNS+`">`+cms+`</p:cmLst>`))
	if _, err := pkg.AddRelationship(slidePart, ooxml.RelTypeComments, fmt.Sprintf("../comments/comment%d.xml", n)); err != nil {
		return err
	}
	return pkg.EnsureOverride(part, slideCommentsContentType)
}
