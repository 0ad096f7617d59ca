// Package pdftext rebuilds page text from positioned PDF glyphs and maps text spans back
// to page coordinates.
package pdftext

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
)

type Glyph struct {
	// Start and End delimit the glyph's string in Page.Text.
	Start, End int
	X, Y, W    float64
	Size       float64
}

type Page struct {
	Number int
	Text   string
	Glyphs []Glyph
}

// Rect is an axis-aligned box in PDF user space (origin bottom-left).
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Pages decodes every page of a PDF. Malformed content streams make the reader panic,
// which is reported as an error.
func Pages(data []byte) (pages []Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("pdf decode panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("pdf reader: %w", err)
	}
	n := r.NumPage()
	pages = make([]Page, 0, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, Page{Number: i})
			continue
		}
		pages = append(pages, buildPage(i, p.Content().Text))
	}
	return pages, nil
}

// PlainText joins page texts with newlines.
func PlainText(pages []Page) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if t := strings.TrimSpace(p.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

func buildPage(num int, texts []pdf.Text) Page {
	var b strings.Builder
	glyphs := make([]Glyph, 0, len(texts))
	var prev *pdf.Text
	for i := range texts {
		t := &texts[i]
		if t.S == "" {
			continue
		}
		if prev != nil {
			size := math.Max(prev.FontSize, 1)
			switch {
			case newLine(prev, t):
				b.WriteByte('\n')
			case t.X-(prev.X+prev.W) > 0.25*size && !strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(t.S, " "):
				b.WriteByte(' ')
			}
		}
		start := b.Len()
		b.WriteString(t.S)
		glyphs = append(glyphs, Glyph{Start: start, End: b.Len(), X: t.X, Y: t.Y, W: t.W, Size: t.FontSize})
		prev = t
	}
	return Page{Number: num, Text: b.String(), Glyphs: glyphs}
}

func newLine(prev, cur *pdf.Text) bool {
	size := math.Max(math.Max(prev.FontSize, cur.FontSize), 1)
	if math.Abs(cur.Y-prev.Y) > 0.5*size {
		return true
	}
	// Text jumping back to the left on the same baseline starts a new column line.
	return cur.X < prev.X-2*size
}

// Lines returns one box per text line covering the glyphs that intersect [start, end).
func (p Page) Lines(start, end int) []Rect {
	var (
		out  []Rect
		cur  Rect
		have bool
		last Glyph
	)
	for _, g := range p.Glyphs {
		if g.End <= start || g.Start >= end {
			continue
		}
		size := math.Max(g.Size, 1)
		box := Rect{X0: g.X, Y0: g.Y - 0.25*size, X1: g.X + math.Max(g.W, 0.5*size), Y1: g.Y + 0.85*size}
		if have && math.Abs(g.Y-last.Y) <= 0.5*size && g.X >= last.X-2*size {
			cur.X0 = math.Min(cur.X0, box.X0)
			cur.Y0 = math.Min(cur.Y0, box.Y0)
			cur.X1 = math.Max(cur.X1, box.X1)
			cur.Y1 = math.Max(cur.Y1, box.Y1)
		} else {
			if have {
				out = append(out, cur)
			}
			cur, have = box, true
		}
		last = g
	}
	if have {
		out = append(out, cur)
	}
	return out
}

// Bounds is the union of rects.
func Bounds(rects []Rect) Rect {
	if len(rects) == 0 {
		return Rect{}
	}
	b := rects[0]
	for _, r := range rects[1:] {
		b.X0 = math.Min(b.X0, r.X0)
		b.Y0 = math.Min(b.Y0, r.Y0)
		b.X1 = math.Max(b.X1, r.X1)
		b.Y1 = math.Max(b.Y1, r.Y1)
	}
	return b
}
