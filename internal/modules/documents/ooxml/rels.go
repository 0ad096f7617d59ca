package ooxml

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	RelTypeComments       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/comments"
	RelTypeCommentAuthors = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/commentAuthors"

	emptyRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`
)

type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

func (p *Package) Relationships(relsPart string) ([]Relationship, error) {
	data, ok := p.Part(relsPart)
	if !ok {
		return nil, nil
	}
	var doc struct {
		Rels []Relationship `xml:"Relationship"`
	}
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", relsPart, err)
	}
	return doc.Rels, nil
}

// RelatedPart returns the first part related to source with relType.
func (p *Package) RelatedPart(source, relType string) (string, bool, error) {
	rels, err := p.Relationships(RelsPartFor(source))
	if err != nil {
		return "", false, err
	}
	for _, r := range rels {
		if r.Type == relType && r.TargetMode != "External" {
			return ResolveTarget(source, r.Target), true, nil
		}
	}
	return "", false, nil
}

var ridNum = regexp.MustCompile(`^rId(\d+)$`)

// AddRelationship links source to target and returns the relationship id. An existing
// identical relationship is reused.
func (p *Package) AddRelationship(source, relType, target string) (string, error) {
	relsPart := RelsPartFor(source)
	rels, err := p.Relationships(relsPart)
	if err != nil {
		return "", err
	}
	maxID := 0
	used := map[string]bool{}
	for _, r := range rels {
		if r.Type == relType && r.Target == target {
			return r.ID, nil
		}
		used[r.ID] = true
		if m := ridNum.FindStringSubmatch(r.ID); m != nil {
			if n, _ := strconv.Atoi(m[1]); n > maxID {
				maxID = n
			}
		}
	}
	id := fmt.Sprintf("rId%d", maxID+1)
	for used[id] {
		maxID++
		id = fmt.Sprintf("rId%d", maxID+1)
	}

	data, ok := p.Part(relsPart)
	if !ok {
		data = []byte(emptyRels)
	}
	rel := fmt.Sprintf(`<Relationship Id="%s" Type="%s" Target="%s"/>`, id, relType, EscapeAttr(target))
	out, err := InsertBeforeClose(data, "</Relationships>", rel)
	if err != nil {
		return "", fmt.Errorf("%s: %w", relsPart, err)
	}
	p.SetPart(relsPart, out)
	return id, nil
}

// EnsureOverride registers a content type for partName ("word/comments.xml").
func (p *Package) EnsureOverride(partName, contentType string) error {
	const ct = "[Content_Types].xml"
	data, ok := p.Part(ct)
	if !ok {
		return fmt.Errorf("missing %s", ct)
	}
	attr := `PartName="/` + partName + `"`
	if strings.Contains(string(data), attr) {
		return nil
	}
	out, err := InsertBeforeClose(data, "</Types>", fmt.Sprintf(`<Override %s ContentType="%s"/>`, attr, contentType))
	if err != nil {
		return fmt.Errorf("%s: %w", ct, err)
	}
	p.SetPart(ct, out)
	return nil
}

// InsertBeforeClose appends snippet as the last child of the element closed by closeTag.
func InsertBeforeClose(data []byte, closeTag, snippet string) ([]byte, error) {
	s := string(data)
	i := strings.LastIndex(s, closeTag)
	if i < 0 {
		return nil, fmt.Errorf("no %s", closeTag)
	}
	return []byte(s[:i] + snippet + s[i:]), nil
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
var attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func EscapeText(s string) string { return textEscaper.Replace(s) }
func EscapeAttr(s string) string { return attrEscaper.Replace(s) }
