package ooxml

import (
	"regexp"
	"sort"
	"strings"
)

// Mark is one highlighted span of a paragraph's text.
type Mark struct {
	Start, End int
	Color      string
	// Before and After are emitted around the marked runs (comment anchors).
	Before, After string
}

type edit struct {
	start, end int
	text       string
}

// Rewrite applies marks (keyed by paragraph index) to part. Runs touched by a mark are
// split at the mark boundaries and every piece inside a mark gets the highlight color.
// Marks within one paragraph must not overlap.
func Rewrite(part []byte, d Dialect, paras []Paragraph, marks map[int][]Mark) []byte {
	var edits []edit
	for pi, ms := range marks {
		if len(ms) == 0 || pi < 0 || pi >= len(paras) {
			continue
		}
		for _, r := range paras[pi].Runs {
			if !r.Editable || r.Start < 0 || !touches(r, ms) {
				continue
			}
			edits = append(edits, edit{start: r.Start, end: r.End, text: renderRun(d, r, ms)})
		}
	}
	if len(edits) == 0 {
		return part
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var b strings.Builder
	b.Grow(len(part) + len(edits)*128)
	last := 0
	for _, e := range edits {
		b.Write(part[last:e.start])
		b.WriteString(e.text)
		last = e.end
	}
	b.Write(part[last:])
	return []byte(b.String())
}

func touches(r Run, ms []Mark) bool {
	for _, m := range ms {
		if m.Start < r.TextEnd && m.End > r.TextStart {
			return true
		}
	}
	return false
}

func renderRun(d Dialect, r Run, ms []Mark) string {
	cuts := []int{r.TextStart, r.TextEnd}
	for _, m := range ms {
		if m.Start > r.TextStart && m.Start < r.TextEnd {
			cuts = append(cuts, m.Start)
		}
		if m.End > r.TextStart && m.End < r.TextEnd {
			cuts = append(cuts, m.End)
		}
	}
	sort.Ints(cuts)
	cuts = uniq(cuts)

	segs := make([]strings.Builder, len(cuts)-1)
	segOf := func(pos int) int {
		for k := 0; k < len(segs); k++ {
			if pos < cuts[k+1] {
				return k
			}
		}
		return len(segs) - 1
	}

	pos := r.TextStart
	for _, c := range r.Children {
		if !c.IsText || c.Text == "" {
			segs[segOf(pos)].WriteString(c.Raw)
			pos += len(c.Text)
			continue
		}
		from, to := pos, pos+len(c.Text)
		for k := range segs {
			lo, hi := max(from, cuts[k]), min(to, cuts[k+1])
			if lo >= hi {
				continue
			}
			segs[k].WriteString(d.textOpen)
			segs[k].WriteString(EscapeText(c.Text[lo-from : hi-from]))
			segs[k].WriteString("</" + d.Prefix + ":t>")
		}
		pos = to
	}

	closeTag := "</" + d.Prefix + ":" + runLocal(r.OpenTag) + ">"
	var b strings.Builder
	for k := range segs {
		s, e := cuts[k], cuts[k+1]
		m := covering(ms, s, e)
		props := r.Props
		if m != nil {
			props = d.highlight(props, m.Color)
			if m.Start == s {
				b.WriteString(m.Before)
			}
		}
		b.WriteString(r.OpenTag)
		b.WriteString(props)
		b.WriteString(segs[k].String())
		b.WriteString(closeTag)
		if m != nil && m.End == e {
			b.WriteString(m.After)
		}
	}
	return b.String()
}

func covering(ms []Mark, s, e int) *Mark {
	for i := range ms {
		if ms[i].Start <= s && e <= ms[i].End {
			return &ms[i]
		}
	}
	return nil
}

var openTagName = regexp.MustCompile(`^<[A-Za-z0-9]+:([A-Za-z0-9]+)`)

func runLocal(openTag string) string {
	if m := openTagName.FindStringSubmatch(openTag); m != nil {
		return m[1]
	}
	return "r"
}

func uniq(xs []int) []int {
	out := xs[:0]
	for i, x := range xs {
		if i == 0 || x != xs[i-1] {
			out = append(out, x)
		}
	}
	return out
}
