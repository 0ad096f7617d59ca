// Package textmatch locates highlight content inside a unit of document text.
package textmatch

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Literal returns the byte span of the first exact occurrence of needle.
func Literal(haystack, needle string) (start, end int, ok bool) {
	if strings.TrimSpace(needle) == "" {
		return 0, 0, false
	}
	if i := strings.Index(haystack, needle); i >= 0 {
		return i, i + len(needle), true
	}
	return 0, 0, false
}

// FindNormalized matches with runs of whitespace in either string comparing equal.
func FindNormalized(haystack, needle string) (start, end int, ok bool) {
	if strings.TrimSpace(needle) == "" {
		return 0, 0, false
	}
	return findNormalized(haystack, needle, " ")
}

// FirstUnit returns the first unit, in order, that contains needle literally. Only
// when no unit does is fallback tried, again in unit order.
func FirstUnit(units []string, needle string, fallback func(haystack, needle string) (int, int, bool)) (unit, start, end int, ok bool) {
	for i, u := range units {
		if s, e, found := Literal(u, needle); found {
			return i, s, e, true
		}
	}
	if fallback == nil {
		return 0, 0, 0, false
	}
	for i, u := range units {
		if s, e, found := fallback(u, needle); found {
			return i, s, e, true
		}
	}
	return 0, 0, 0, false
}

// FindIgnoringSpace matches with all whitespace removed from both sides. Used for text
// rebuilt from positioned glyphs, where word gaps may or may not produce space characters.
func FindIgnoringSpace(haystack, needle string) (start, end int, ok bool) {
	if strings.TrimSpace(needle) == "" {
		return 0, 0, false
	}
	return findNormalized(haystack, needle, "")
}

func findNormalized(haystack, needle, sep string) (int, int, bool) {
	nh, starts, ends := normalize(haystack, sep)
	nn, _, _ := normalize(needle, sep)
	nn = strings.Trim(nn, " ")
	if nn == "" {
		return 0, 0, false
	}
	i := strings.Index(nh, nn)
	if i < 0 {
		return 0, 0, false
	}
	return starts[i], ends[i+len(nn)-1], true
}

// normalize rewrites every whitespace run as sep. For each output byte it records the
// byte span in s that produced it.
func normalize(s, sep string) (string, []int, []int) {
	var b strings.Builder
	b.Grow(len(s))
	starts := make([]int, 0, len(s))
	ends := make([]int, 0, len(s))

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if unicode.IsSpace(r) {
			j := i + size
			for j < len(s) {
				r2, sz := utf8.DecodeRuneInString(s[j:])
				if !unicode.IsSpace(r2) {
					break
				}
				j += sz
			}
			for k := 0; k < len(sep); k++ {
				starts = append(starts, i)
				ends = append(ends, j)
			}
			b.WriteString(sep)
			i = j
			continue
		}
		for k := 0; k < size; k++ {
			starts = append(starts, i)
			ends = append(ends, i+size)
		}
		b.WriteString(s[i : i+size])
		i += size
	}
	return b.String(), starts, ends
}
