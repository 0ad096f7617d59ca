package aggregate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/docintel-backend/internal/domain/documents"
	"github.com/yungbote/docintel-backend/internal/modules/documents/docerr"
	"github.com/yungbote/docintel-backend/internal/modules/documents/prompts"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
	"github.com/yungbote/docintel-backend/internal/platform/openai/openaitest"
)

func TestHighlightsConcatenateInOrder(t *testing.T) {
	a := documents.Highlight{Content: "a", Category: documents.CategoryMainIdea}
	b := documents.Highlight{Content: "b", Category: documents.CategoryQuestion}
	c := documents.Highlight{Content: "c", Category: documents.CategorySubIdea}

	got := Highlights("report.pdf", [][]documents.Highlight{{a, b}, nil, {c}})
	assert.Equal(t, []documents.Highlight{a, b, c}, got.Highlights)
	assert.Equal(t, 3, got.PageCount)
	assert.Equal(t, "report.pdf", got.Title)
}

func TestReduceJoinsThenClassifies(t *testing.T) {
	fake := &openaitest.Fake{
		Text: func(ctx context.Context, system, user string) (string, error) {
			return "  The whole story.  ", nil
		},
		JSON: func(ctx context.Context, schema, system, user string) (map[string]any, error) {
			return map[string]any{"category": "Research Paper", "confidence": 140, "explanation": "methods and results"}, nil
		},
	}
	chunks := []documents.ChunkSummary{{Summary: "first"}, {Summary: "second"}}
	cats := []string{"Research Paper", "Business Strategy"}

	out, err := NewSummarizer(fake, logger.Nop()).Reduce(context.Background(), "p.pdf", "p.pdf", chunks, cats, prompts.Hint{})
	require.NoError(t, err)
	assert.Equal(t, "The whole story.", out.FullSummary)
	assert.Equal(t, "Research Paper", out.Classification.Category)
	assert.Equal(t, 100, out.Classification.Confidence)
	assert.Equal(t, "methods and results", out.Classification.Rationale)
	assert.Equal(t, cats, out.AvailableCategories)
	assert.Equal(t, chunks, out.ChunkSummaries)

	text := fake.CallsFor("")
	require.Len(t, text, 1)
	assert.Contains(t, text[0].User, "first\nsecond")
	cls := fake.CallsFor("document_classification")
	require.Len(t, cls, 1)
	assert.Contains(t, cls[0].User, "The whole story.")
	assert.Contains(t, cls[0].User, "- Business Strategy")
}

func TestReduceWithoutCategoriesSkipsClassification(t *testing.T) {
	fake := &openaitest.Fake{Text: func(ctx context.Context, system, user string) (string, error) { return "s", nil }}
	out, err := NewSummarizer(fake, logger.Nop()).Reduce(context.Background(), "p", "p", []documents.ChunkSummary{{Summary: "x"}}, nil, prompts.Hint{})
	require.NoError(t, err)
	assert.Empty(t, out.Classification.Category)
	assert.Empty(t, fake.CallsFor("document_classification"))
}

func TestReduceUpstreamFailures(t *testing.T) {
	fake := &openaitest.Fake{Text: func(ctx context.Context, system, user string) (string, error) {
		return "", errors.New("503")
	}}
	_, err := NewSummarizer(fake, logger.Nop()).Reduce(context.Background(), "p.pdf", "p", []documents.ChunkSummary{{Summary: "x"}}, []string{"A"}, prompts.Hint{})
	assert.True(t, docerr.IsUpstream(err))

	fake = &openaitest.Fake{
		Text: func(ctx context.Context, system, user string) (string, error) { return "s", nil },
		JSON: func(ctx context.Context, schema, system, user string) (map[string]any, error) {
			return map[string]any{"category": 7}, nil
		},
	}
	_, err = NewSummarizer(fake, logger.Nop()).Reduce(context.Background(), "p.pdf", "p", []documents.ChunkSummary{{Summary: "x"}}, []string{"A"}, prompts.Hint{})
	assert.ErrorIs(t, err, docerr.ErrMalformedResponse)
}
