package chunker

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitExampleBoundaries(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 4500; i++ {
		b.WriteByte(byte('a' + i%26))
	}
	text := b.String()

	chunks := Split(text, 4000, 200)
	require.Len(t, chunks, 2)
	assert.Equal(t, text[0:4000], chunks[0])
	assert.Equal(t, text[3800:4500], chunks[1])
}

func TestSplitEmptyAndShort(t *testing.T) {
	assert.Empty(t, Split("", 4000, 200))
	assert.Equal(t, []string{"short"}, Split("short", 4000, 200))
	assert.Equal(t, []string{"   "}, Split("   ", 4000, 200))
}

func TestSplitCoversInputWithoutGaps(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(3000)
		maxSize := 1 + rng.Intn(400)
		overlap := rng.Intn(maxSize + 50)

		runes := make([]rune, n)
		for i := range runes {
			runes[i] = rune('a' + rng.Intn(26))
		}
		if n > 3 {
			runes[1] = 'é'
		}
		text := string(runes)

		chunks := Split(text, maxSize, overlap)
		require.NotEmpty(t, chunks)

		// Re-derive each chunk's start and check contiguity.
		covered := 0
		start := 0
		effOverlap := overlap
		if effOverlap >= maxSize {
			effOverlap = maxSize - 1
		}
		for i, c := range chunks {
			cr := []rune(c)
			require.NotEmpty(t, cr, "chunk %d empty", i)
			require.LessOrEqual(t, len(cr), maxSize)
			require.LessOrEqual(t, start, covered, "gap before chunk %d", i)
			require.Equal(t, string(runes[start:start+len(cr)]), c)
			covered = start + len(cr)
			start += maxSize - effOverlap
		}
		assert.Equal(t, n, covered)
	}
}

func TestSplitDeterministic(t *testing.T) {
	text := strings.Repeat("quarterly revenue grew ", 500)
	assert.Equal(t, Split(text, 777, 55), Split(text, 777, 55))
}

func TestSplitClampsOverlap(t *testing.T) {
	chunks := Split("abcdefgh", 3, 10)
	require.NotEmpty(t, chunks)
	assert.Equal(t, "abc", chunks[0])
	assert.Equal(t, "bcd", chunks[1])
	assert.Equal(t, "fgh", chunks[len(chunks)-1])
}

func TestChunksCarryIndex(t *testing.T) {
	cs := Chunks(strings.Repeat("x", 10), Config{MaxSize: 4, Overlap: 1})
	require.Len(t, cs, 3)
	for i, c := range cs {
		assert.Equal(t, i, c.Index)
	}
	assert.Equal(t, "xxxx", cs[2].Text)
}
