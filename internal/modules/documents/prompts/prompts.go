// Package prompts builds the instructions and JSON schemas sent to the reasoning model.
package prompts

import (
	"fmt"
	"strings"

	"github.com/yungbote/docintel-backend/internal/domain/documents"
)

// Hint carries optional per-document context for prompt rendering.
type Hint struct {
	// Language is the detected document language name ("German"); empty means unknown or English.
	Language string
}

func (h Hint) languageLine() string {
	lang := strings.TrimSpace(h.Language)
	if lang == "" || strings.EqualFold(lang, "english") {
		return ""
	}
	return fmt.Sprintf("\nThe document is written in %s. Write every explanation and summary in %s.", lang, lang)
}

const highlightSystem = `You identify the passages of a document that a careful reader would highlight.
Use exactly these four categories:
- main-idea (GREEN): the core claims and conclusions of the text.
- vocabulary (YELLOW): key terms and definitions a reader must learn.
- question (PINK): open questions, problems, or points that invite further thought.
- sub-idea (BLUE): supporting arguments, examples, and evidence.
Rules:
- "content" must be copied character for character from the text. Never paraphrase, shorten with ellipses, or fix typos.
- Prefer complete phrases or sentences; do not highlight whole paragraphs.
- Each highlight has exactly one category.
- "explanation" is one or two sentences on why the passage matters.`

func HighlightPrompt(chunk string, h Hint) (system, user string) {
	return highlightSystem + h.languageLine(), "Text:\n" + chunk
}

func HighlightSchema() map[string]any {
	cats := make([]any, 0, len(documents.HighlightCategories))
	for _, c := range documents.HighlightCategories {
		cats = append(cats, string(c))
	}
	return object(map[string]any{
		"highlights": map[string]any{
			"type": "array",
			"items": object(map[string]any{
				"content":     str(),
				"explanation": str(),
				"category":    map[string]any{"type": "string", "enum": cats},
			}),
		},
	})
}

const chunkSummarySystem = `You summarize one section of a longer document.
Work step by step:
1. Identify the main topics of the section.
2. Extract the key points and supporting details.
3. Write a concise summary paragraph of the section.
Keep the summary faithful to the section; later sections are summarized separately.`

func ChunkSummaryPrompt(chunk string, h Hint) (system, user string) {
	return chunkSummarySystem + h.languageLine(), "Section:\n" + chunk
}

func ChunkSummarySchema() map[string]any {
	return object(map[string]any{
		"main_topics": strArray(),
		"key_points":  strArray(),
		"summary":     str(),
	})
}

const synthesisSystem = `You combine section summaries of one document into a single summary.
1. Identify the overarching themes.
2. Preserve the logical and chronological flow of the sections.
3. Eliminate redundancy between sections.
4. Keep the key insights and conclusions.
Return only the final summary text.`

func SynthesisPrompt(title string, summaries []string, h Hint) (system, user string) {
	var b strings.Builder
	if title != "" {
		b.WriteString("Document: " + title + "\n\n")
	}
	b.WriteString("Section summaries in document order:\n")
	b.WriteString(strings.Join(summaries, "\n"))
	return synthesisSystem + h.languageLine(), b.String()
}

const classifySystem = `You classify a document into exactly one of the given categories.
1. Identify the main purpose and content type of the document.
2. Compare its characteristics with each category.
3. Choose the single best matching category, using its name exactly as listed.
4. Give a confidence from 0 to 100 and a brief explanation.`

func ClassifyPrompt(summary string, categories []string, h Hint) (system, user string) {
	var b strings.Builder
	b.WriteString("Categories:\n")
	for _, c := range categories {
		b.WriteString("- " + c + "\n")
	}
	b.WriteString("\nDocument summary:\n")
	b.WriteString(summary)
	return classifySystem + h.languageLine(), b.String()
}

func ClassifySchema(categories []string) map[string]any {
	enum := make([]any, 0, len(categories))
	for _, c := range categories {
		enum = append(enum, c)
	}
	return object(map[string]any{
		"category":    map[string]any{"type": "string", "enum": enum},
		"confidence":  map[string]any{"type": "integer"},
		"explanation": str(),
	})
}

// object builds a strict-mode object schema: every property required, no extras.
func object(props map[string]any) map[string]any {
	required := make([]any, 0, len(props))
	for _, k := range sortedKeys(props) {
		required = append(required, k)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

func str() map[string]any { return map[string]any{"type": "string"} }

func strArray() map[string]any {
	return map[string]any{"type": "array", "items": str()}
}
