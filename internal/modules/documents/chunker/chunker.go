// Package chunker splits extracted document text into overlapping windows.
package chunker

import (
	"github.com/yungbote/docintel-backend/internal/domain/documents"
)

type Config struct {
	MaxSize int
	Overlap int
}

var (
	HighlightDefaults = Config{MaxSize: 4000, Overlap: 200}
	SummaryDefaults   = Config{MaxSize: 3000, Overlap: 300}
)

// Split cuts text into windows of at most maxSize characters (runes). Each window after
// the first starts overlap characters before the previous one ended, and the last window
// always ends at the end of text. Empty text yields no windows.
func Split(text string, maxSize int, overlap int) []string {
	if text == "" {
		return nil
	}
	// Work in runes so we never cut a UTF-8 sequence in half
	r := []rune(text)
	if maxSize <= 0 || maxSize >= len(r) {
		return []string{text}
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxSize {
		overlap = maxSize - 1
	}
	step := maxSize - overlap

	out := make([]string, 0, (len(r)-overlap+step-1)/step)
	for start := 0; ; start += step {
		end := start + maxSize
		if end > len(r) {
			end = len(r)
		}
		out = append(out, string(r[start:end]))
		if end == len(r) {
			break
		}
	}
	return out
}

// Chunks is Split with ordinals attached.
func Chunks(text string, cfg Config) []documents.Chunk {
	parts := Split(text, cfg.MaxSize, cfg.Overlap)
	out := make([]documents.Chunk, len(parts))
	for i, p := range parts {
		out[i] = documents.Chunk{Index: i, Text: p}
	}
	return out
}
