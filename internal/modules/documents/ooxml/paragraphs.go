package ooxml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"sort"
	"strings"
)

// Dialect names the elements that make up paragraphs and runs in one markup family.
type Dialect struct {
	Prefix string
	// RunText maps run children other than the text element to the text they stand for.
	RunText map[string]string
	// OpaqueRuns are run-like elements whose text counts but which are never split.
	OpaqueRuns map[string]bool
	// ParaBreaks are paragraph-level elements that contribute text outside any run.
	ParaBreaks map[string]string
	textOpen   string
	highlight  func(props, color string) string
}

// Word is WordprocessingML (w:p, w:r, w:t).
var Word = Dialect{
	Prefix:    "w",
	RunText:   map[string]string{"tab": "\t", "br": "\n", "cr": "\n", "noBreakHyphen": "-"},
	textOpen:  `<w:t xml:space="preserve">`,
	highlight: wordHighlight,
}

// Drawing is DrawingML text as used by PresentationML (a:p, a:r, a:t).
var Drawing = Dialect{
	Prefix:     "a",
	OpaqueRuns: map[string]bool{"fld": true},
	ParaBreaks: map[string]string{"br": "\n"},
	textOpen:   `<a:t>`,
	highlight:  drawingHighlight,
}

type Paragraph struct {
	// Start and End delimit the paragraph element in the part.
	Start, End int
	Text       string
	Runs       []Run
}

type Run struct {
	// Start and End delimit the run element in the part; -1 for paragraph-level breaks.
	Start, End int
	// TextStart and TextEnd delimit this run's contribution to Paragraph.Text.
	TextStart, TextEnd int
	OpenTag            string
	Props              string
	Children           []Child
	Editable           bool
}

type Child struct {
	Raw    string
	Text   string
	IsText bool
}

// Editable reports whether the characters at start and end-1 both sit in runs that can
// be split.
func (p Paragraph) Editable(start, end int) bool {
	if start < 0 || end > len(p.Text) || start >= end {
		return false
	}
	return p.editableAt(start) && p.editableAt(end-1)
}

func (p Paragraph) editableAt(pos int) bool {
	for _, r := range p.Runs {
		if pos >= r.TextStart && pos < r.TextEnd {
			return r.Editable
		}
	}
	return false
}

type openElem struct {
	space, local string
	start        int
	kind         int
}

const (
	kindOther = iota
	kindPara
	kindRun
	kindRunChild
)

type childBuilder struct {
	local  string
	isText bool
	text   strings.Builder
}

type runBuilder struct {
	run   Run
	depth int
	child *childBuilder
	text  strings.Builder
}

type paraBuilder struct {
	para  Paragraph
	depth int
	run   *runBuilder
	text  strings.Builder
}

// ParseParagraphs returns every paragraph of part in document order. Paragraphs nested
// inside a run (text boxes) are returned as their own entries and make the enclosing run
// non-editable.
func ParseParagraphs(part []byte, d Dialect) ([]Paragraph, error) {
	dec := xml.NewDecoder(bytes.NewReader(part))
	var (
		stack []openElem
		open  []*paraBuilder
		done  []Paragraph
	)
	top := func() *paraBuilder {
		if len(open) == 0 {
			return nil
		}
		return open[len(open)-1]
	}

	for {
		off := int(dec.InputOffset())
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			end := int(dec.InputOffset())
			el := openElem{space: t.Name.Space, local: t.Name.Local, start: off}
			p := top()
			if t.Name.Space == d.Prefix {
				switch {
				case t.Name.Local == "p":
					if p != nil && p.run != nil {
						p.run.run.Editable = false
					}
					open = append(open, &paraBuilder{para: Paragraph{Start: off}, depth: len(stack)})
					el.kind = kindPara
				case p != nil && p.run == nil && (t.Name.Local == "r" || d.OpaqueRuns[t.Name.Local]):
					p.run = &runBuilder{
						run: Run{
							Start:    off,
							OpenTag:  string(part[off:end]),
							Editable: t.Name.Local == "r",
						},
						depth: len(stack),
					}
					el.kind = kindRun
				case p != nil && p.run != nil && len(stack) == p.run.depth+1:
					p.run.child = &childBuilder{local: t.Name.Local, isText: t.Name.Local == "t"}
					el.kind = kindRunChild
				case p != nil && p.run == nil && len(stack) == p.depth+1:
					if txt, ok := d.ParaBreaks[t.Name.Local]; ok {
						pos := p.text.Len()
						p.text.WriteString(txt)
						p.para.Runs = append(p.para.Runs, Run{Start: -1, End: -1, TextStart: pos, TextEnd: pos + len(txt)})
					}
				}
			}
			stack = append(stack, el)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, errors.New("unbalanced end element")
			}
			el := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			end := int(dec.InputOffset())
			p := top()

			switch el.kind {
			case kindRunChild:
				if p == nil || p.run == nil || p.run.child == nil {
					continue
				}
				c := p.run.child
				raw := string(part[el.start:end])
				switch {
				case c.local == "rPr":
					p.run.run.Props = raw
				case c.isText:
					txt := c.text.String()
					p.run.text.WriteString(txt)
					p.run.run.Children = append(p.run.run.Children, Child{Raw: raw, Text: txt, IsText: true})
				default:
					txt := d.RunText[c.local]
					p.run.text.WriteString(txt)
					p.run.run.Children = append(p.run.run.Children, Child{Raw: raw, Text: txt})
				}
				p.run.child = nil
			case kindRun:
				if p == nil || p.run == nil {
					continue
				}
				r := p.run.run
				r.End = end
				r.TextStart = p.text.Len()
				p.text.WriteString(p.run.text.String())
				r.TextEnd = p.text.Len()
				p.para.Runs = append(p.para.Runs, r)
				p.run = nil
			case kindPara:
				if p == nil {
					continue
				}
				p.para.End = end
				p.para.Text = p.text.String()
				done = append(done, p.para)
				open = open[:len(open)-1]
			}

		case xml.CharData:
			p := top()
			if p != nil && p.run != nil && p.run.child != nil && p.run.child.isText && len(stack) == p.run.depth+2 {
				p.run.child.text.Write(t)
			}
		}
	}

	sort.SliceStable(done, func(i, j int) bool { return done[i].Start < done[j].Start })
	return done, nil
}

// Texts returns the paragraph texts, the unit the annotators search.
func Texts(paras []Paragraph) []string {
	out := make([]string, len(paras))
	for i, p := range paras {
		out[i] = p.Text
	}
	return out
}
