package ooxml

import (
	"regexp"
	"strings"
)

// Elements that follow w:highlight inside w:rPr (CT_RPr sequence).
var wordAfterHighlight = regexp.MustCompile(`<w:(?:u|effect|bdr|shd|fitText|vertAlign|rtl|cs|em|lang|eastAsianLayout|specVanish|oMath|rPrChange)[\s/>]`)

var wordExistingHighlight = regexp.MustCompile(`<w:highlight\b[^>]*/>`)

// Elements that follow a:highlight inside a:rPr (CT_TextCharacterProperties sequence).
var drawingAfterHighlight = regexp.MustCompile(`<a:(?:uLnTx|uLn|uFillTx|uFill|latin|ea|cs|sym|hlinkClick|hlinkMouseOver|rtl|extLst)[\s/>]`)

var drawingExistingHighlight = regexp.MustCompile(`(?s)<a:highlight>.*?</a:highlight>|<a:highlight\s*/>`)

func wordHighlight(props, color string) string {
	el := `<w:highlight w:val="` + color + `"/>`
	return withChild(props, "w:rPr", el, wordExistingHighlight, wordAfterHighlight)
}

func drawingHighlight(props, color string) string {
	el := `<a:highlight><a:srgbClr val="` + color + `"/></a:highlight>`
	return withChild(props, "a:rPr", el, drawingExistingHighlight, drawingAfterHighlight)
}

// withChild places el inside the properties element props, replacing an existing
// element matched by existing, otherwise before the first sibling matched by after.
func withChild(props, tag, el string, existing, after *regexp.Regexp) string {
	props = strings.TrimSpace(props)
	if props == "" {
		return "<" + tag + ">" + el + "</" + tag + ">"
	}
	if strings.HasSuffix(props, "/>") && !strings.Contains(props, "</"+tag+">") {
		return strings.TrimSuffix(props, "/>") + ">" + el + "</" + tag + ">"
	}
	if loc := existing.FindStringIndex(props); loc != nil {
		return props[:loc[0]] + el + props[loc[1]:]
	}
	// Skip the opening tag so its attributes are never matched.
	openEnd := strings.Index(props, ">") + 1
	if loc := after.FindStringIndex(props[openEnd:]); loc != nil {
		at := openEnd + loc[0]
		return props[:at] + el + props[at:]
	}
	closeAt := strings.LastIndex(props, "</"+tag+">")
	if closeAt < 0 {
		return props
	}
	return props[:closeAt] + el + props[closeAt:]
}
