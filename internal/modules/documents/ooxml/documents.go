package ooxml

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

const (
	WordDocumentPart = "word/document.xml"
	PresentationPart = "ppt/presentation.xml"
)

// WordParagraphs parses the main document part of a DOCX package.
func WordParagraphs(pkg *Package) ([]Paragraph, []byte, error) {
	body, ok := pkg.Part(WordDocumentPart)
	if !ok {
		return nil, nil, fmt.Errorf("missing %s", WordDocumentPart)
	}
	paras, err := ParseParagraphs(body, Word)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", WordDocumentPart, err)
	}
	return paras, body, nil
}

var (
	sldIDRef   = regexp.MustCompile(`<p:sldId\b[^>]*\br:id="([^"]+)"`)
	slideNumRe = regexp.MustCompile(`slide(\d+)\.xml$`)
)

// SlideParts lists slide parts in presentation order, falling back to numeric file order
// when the presentation part cannot be resolved.
func SlideParts(pkg *Package) []string {
	if pres, ok := pkg.Part(PresentationPart); ok {
		rels, err := pkg.Relationships(RelsPartFor(PresentationPart))
		if err == nil {
			byID := make(map[string]string, len(rels))
			for _, r := range rels {
				byID[r.ID] = ResolveTarget(PresentationPart, r.Target)
			}
			var out []string
			for _, m := range sldIDRef.FindAllSubmatch(pres, -1) {
				if part, ok := byID[string(m[1])]; ok && pkg.Has(part) {
					out = append(out, part)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}

	parts := pkg.Names("ppt/slides/slide", ".xml")
	sort.SliceStable(parts, func(i, j int) bool { return slideNum(parts[i]) < slideNum(parts[j]) })
	return parts
}

func slideNum(part string) int {
	if m := slideNumRe.FindStringSubmatch(part); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return 0
}
