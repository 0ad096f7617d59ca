// Package language guesses the language a document is written in so prompts can ask
// for answers in that language.
package language

import (
	"github.com/pemistahl/lingua-go"
)

// sampleRunes bounds how much text is inspected.
const sampleRunes = 4000

var supported = []lingua.Language{
	lingua.English,
	lingua.French,
	lingua.German,
	lingua.Spanish,
	lingua.Portuguese,
	lingua.Italian,
	lingua.Dutch,
	lingua.Chinese,
	lingua.Japanese,
	lingua.Korean,
	lingua.Russian,
	lingua.Arabic,
}

type Detector struct {
	d lingua.LanguageDetector
}

func NewDetector() *Detector {
	d := lingua.NewLanguageDetectorBuilder().
		FromLanguages(supported...).
		WithMinimumRelativeDistance(0.1).
		WithLowAccuracyMode().
		Build()
	return &Detector{d: d}
}

// Detect returns the English name of the language ("French"), or "" when unsure.
func (d *Detector) Detect(text string) string {
	if d == nil {
		return ""
	}
	r := []rune(text)
	if len(r) > sampleRunes {
		text = string(r[:sampleRunes])
	}
	lang, ok := d.d.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return lang.String()
}
