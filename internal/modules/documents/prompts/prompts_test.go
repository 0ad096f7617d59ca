package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHighlightSchemaIsStrict(t *testing.T) {
	s := HighlightSchema()
	assert.Equal(t, false, s["additionalProperties"])
	items := s["properties"].(map[string]any)["highlights"].(map[string]any)["items"].(map[string]any)
	assert.Equal(t, []any{"category", "content", "explanation"}, items["required"])
	enum := items["properties"].(map[string]any)["category"].(map[string]any)["enum"].([]any)
	assert.Equal(t, []any{"main-idea", "vocabulary", "question", "sub-idea"}, enum)
}

func TestClassifySchemaEnumeratesCategories(t *testing.T) {
	s := ClassifySchema([]string{"Research Paper", "Project Planning"})
	enum := s["properties"].(map[string]any)["category"].(map[string]any)["enum"].([]any)
	assert.Equal(t, []any{"Research Paper", "Project Planning"}, enum)
}

func TestLanguageLine(t *testing.T) {
	sys, user := HighlightPrompt("chunk text", Hint{Language: "German"})
	assert.Contains(t, sys, "written in German")
	assert.Equal(t, "Text:\nchunk text", user)

	sys, _ = ChunkSummaryPrompt("x", Hint{Language: "English"})
	assert.NotContains(t, sys, "written in")
}

func TestSynthesisPromptKeepsOrder(t *testing.T) {
	_, user := SynthesisPrompt("report.pdf", []string{"first", "second", "third"}, Hint{})
	require.Contains(t, user, "first\nsecond\nthird")
	assert.Contains(t, user, "Document: report.pdf")
}
