package textmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindExact(t *testing.T) {
	s, e, ok := Literal("In Q3 the quarterly revenue grew by 8%.", "quarterly revenue grew")
	assert.True(t, ok)
	assert.Equal(t, "quarterly revenue grew", "In Q3 the quarterly revenue grew by 8%."[s:e])
}

func TestFindCollapsesWhitespace(t *testing.T) {
	hay := "the quarterly\n  revenue\tgrew fast"
	s, e, ok := FindNormalized(hay, "quarterly revenue grew")
	assert.True(t, ok)
	assert.Equal(t, "quarterly\n  revenue\tgrew", hay[s:e])

	s, e, ok = FindNormalized("net  income", " net income ")
	assert.True(t, ok)
	assert.Equal(t, "net  income", "net  income"[s:e])
}

func TestFindIgnoringSpace(t *testing.T) {
	hay := "thequarterlyrevenue grewby8%"
	s, e, ok := FindIgnoringSpace(hay, "quarterly revenue grew")
	assert.True(t, ok)
	assert.Equal(t, "quarterlyrevenue grew", hay[s:e])
}

func TestFindMultibyte(t *testing.T) {
	hay := "Überblick:  die Umsätze stiegen"
	s, e, ok := FindNormalized(hay, "die Umsätze stiegen")
	assert.True(t, ok)
	assert.Equal(t, "die Umsätze stiegen", hay[s:e])
}

func TestFindMisses(t *testing.T) {
	_, _, ok := FindNormalized("alpha beta", "gamma")
	assert.False(t, ok)
	_, _, ok = Literal("alpha beta", "   ")
	assert.False(t, ok)
	_, _, ok = FindNormalized("alpha", "")
	assert.False(t, ok)
}

func TestFirstUnitPrefersLiteralAcrossUnits(t *testing.T) {
	units := []string{
		"Intro: quarterly  revenue grew slowly.",
		"Later: quarterly revenue grew fast.",
	}
	unit, s, e, ok := FirstUnit(units, "quarterly revenue grew", FindNormalized)
	assert.True(t, ok)
	assert.Equal(t, 1, unit)
	assert.Equal(t, "quarterly revenue grew", units[1][s:e])

	unit, s, e, ok = FirstUnit(units[:1], "quarterly revenue grew", FindNormalized)
	assert.True(t, ok)
	assert.Equal(t, 0, unit)
	assert.Equal(t, "quarterly  revenue grew", units[0][s:e])

	_, _, _, ok = FirstUnit(units[:1], "quarterly revenue grew", nil)
	assert.False(t, ok)
	_, _, _, ok = FirstUnit(units, "   ", FindNormalized)
	assert.False(t, ok)
}
