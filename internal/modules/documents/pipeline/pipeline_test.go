package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/docintel-backend/internal/domain/documents"
	"github.com/yungbote/docintel-backend/internal/modules/documents/docerr"
	"github.com/yungbote/docintel-backend/internal/modules/documents/doctest"
	"github.com/yungbote/docintel-backend/internal/modules/documents/extract"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
	"github.com/yungbote/docintel-backend/internal/platform/openai/openaitest"
)

const phrase = "quarterly revenue grew"

type staticExtractor struct{ text string }

func (s staticExtractor) Extract(context.Context, string) (string, error) { return s.text, nil }

func fakeLLM(category string, summaryErr error) *openaitest.Fake {
	return &openaitest.Fake{
		JSON: func(ctx context.Context, schema, system, user string) (map[string]any, error) {
			switch schema {
			case "document_highlights":
				hs := []any{}
				if strings.Contains(user, phrase) {
					hs = append(hs, map[string]any{
						"content":     phrase,
						"explanation": "Growth is the headline.",
						"category":    "main-idea",
					})
				}
				return map[string]any{"highlights": hs}, nil
			case "chunk_summary":
				if summaryErr != nil {
					return nil, summaryErr
				}
				return map[string]any{
					"main_topics": []any{"revenue"},
					"key_points":  []any{"growth"},
					"summary":     "Revenue went up.",
				}, nil
			case "document_classification":
				return map[string]any{"category": category, "confidence": 87, "explanation": "numbers"}, nil
			}
			return nil, errors.New("unexpected schema " + schema)
		},
		Text: func(ctx context.Context, system, user string) (string, error) {
			return "The report says revenue went up.", nil
		},
	}
}

func newPipeline(t *testing.T, llm *openaitest.Fake, ext TextExtractor) (*Pipeline, string) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.OutputDir = t.TempDir()
	return New(llm, ext, nil, cfg, logger.Nop()), cfg.OutputDir
}

func categories() []documents.Category {
	return []documents.Category{
		{ID: uuid.New(), Name: "Finance"},
		{ID: uuid.New(), Name: "Science"},
	}
}

func TestProcessHighlightsOnlyTheUnitContainingThePhrase(t *testing.T) {
	first := strings.TrimSpace(strings.Repeat("lorem ipsum ", 330))
	second := strings.Repeat("dolor sit amet ", 14) + "Then " + phrase + " sharply in the final months of the year and beyond."
	intro := "Earlier the quarterly revenue was flat."
	src := doctest.WriteFile(t, "report.docx", doctest.DOCXParagraphs(intro, first, second))

	llm := fakeLLM("Finance", nil)
	p, out := newPipeline(t, llm, extract.New(nil, logger.Nop()))
	cats := categories()

	res, err := p.Process(context.Background(), src, cats)
	require.NoError(t, err)

	text := intro + "\n" + first + "\n" + second
	require.Greater(t, len(text), 4000)
	assert.Equal(t, 2, res.Analysis.PageCount)
	assert.Equal(t, "report.docx", res.Analysis.Title)
	require.Len(t, res.Analysis.Highlights, 1)
	assert.Equal(t, 1, res.HighlightCount)

	require.NotNil(t, res.HighlightedPath)
	assert.Equal(t, filepath.Join(out, "highlighted_report.docx"), *res.HighlightedPath)
	data, err := os.ReadFile(*res.HighlightedPath)
	require.NoError(t, err)
	doc := doctest.ZipPart(t, data, "word/document.xml")
	assert.Equal(t, 1, strings.Count(doc, `<w:highlight w:val="green"/>`))
	assert.Contains(t, doc, intro)

	assert.Equal(t, "The report says revenue went up.", res.Summary.FullSummary)
	assert.Equal(t, "Finance", res.Summary.Classification.Category)
	require.NotNil(t, res.MatchedCategoryID)
	assert.Equal(t, cats[0].ID, *res.MatchedCategoryID)

	pr := res.ProcessingResult()
	assert.Equal(t, res.HighlightedPath, pr.HighlightedFilename)
	assert.Equal(t, 87, pr.Classification.Confidence)
}

func TestProcessUnmatchedCategoryLeavesIDNil(t *testing.T) {
	src := doctest.WriteFile(t, "a.docx", doctest.DOCXParagraphs("Some text about "+phrase+"."))
	p, _ := newPipeline(t, fakeLLM("finance", nil), staticExtractor{text: "Some text about " + phrase + "."})

	res, err := p.Process(context.Background(), src, categories())
	require.NoError(t, err)
	assert.Nil(t, res.MatchedCategoryID)
}

func TestProcessFailsFastAndLeavesNoArtifact(t *testing.T) {
	src := doctest.WriteFile(t, "b.docx", doctest.DOCXParagraphs(phrase))
	p, out := newPipeline(t, fakeLLM("Finance", errors.New("quota exceeded")), staticExtractor{text: phrase})

	res, err := p.Process(context.Background(), src, categories())
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, docerr.IsUpstream(err))
	assert.Contains(t, err.Error(), src)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProcessUnsupportedFormatMakesNoCalls(t *testing.T) {
	llm := fakeLLM("Finance", nil)
	p, _ := newPipeline(t, llm, staticExtractor{text: "x"})

	_, err := p.Process(context.Background(), "notes.txt", categories())
	require.Error(t, err)
	assert.True(t, docerr.IsExtraction(err))
	assert.True(t, errors.Is(err, docerr.ErrUnsupportedFormat))
	assert.Empty(t, llm.Calls())
}

func TestProcessAnnotationFailureKeepsSummary(t *testing.T) {
	// The extractor succeeds but the source cannot be opened by the annotator.
	missing := filepath.Join(t.TempDir(), "gone.pptx")
	p, _ := newPipeline(t, fakeLLM("Science", nil), staticExtractor{text: "Slides on " + phrase})

	res, err := p.Process(context.Background(), missing, categories())
	require.NoError(t, err)
	assert.Nil(t, res.HighlightedPath)
	assert.Equal(t, 0, res.HighlightCount)
	assert.Equal(t, "The report says revenue went up.", res.Summary.FullSummary)
	require.NotNil(t, res.MatchedCategoryID)
}

func TestProcessWithoutCategoriesSkipsClassification(t *testing.T) {
	src := doctest.WriteFile(t, "c.docx", doctest.DOCXParagraphs("plain"))
	llm := fakeLLM("Finance", nil)
	p, _ := newPipeline(t, llm, staticExtractor{text: "plain"})

	res, err := p.Process(context.Background(), src, nil)
	require.NoError(t, err)
	assert.Nil(t, res.MatchedCategoryID)
	assert.Empty(t, llm.CallsFor("document_classification"))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "Q3 report.pdf", Title("/x/y/Q3 report.pdf"))
	cats := categories()
	assert.Equal(t, []string{"Finance", "Science"}, CategoryNames(cats))
	assert.Nil(t, MatchCategory(cats, ""))
	assert.Nil(t, MatchCategory(cats, "Science "))
	assert.Equal(t, cats[1].ID, *MatchCategory(cats, "Science"))
}

func TestProcessKeepsUnplaceableHighlightsInAnalysis(t *testing.T) {
	src := doctest.WriteFile(t, "memo.docx", doctest.DOCXParagraphs("The quarterly revenue grew again."))
	llm := &openaitest.Fake{
		JSON: func(ctx context.Context, schema, system, user string) (map[string]any, error) {
			if schema == "document_highlights" {
				return map[string]any{"highlights": []any{
					map[string]any{"content": "sales went up", "explanation": "paraphrase", "category": "sub-idea"},
					map[string]any{"content": phrase, "explanation": "verbatim", "category": "main-idea"},
				}}, nil
			}
			return fakeLLM("Finance", nil).JSON(ctx, schema, system, user)
		},
		Text: fakeLLM("Finance", nil).Text,
	}
	p, _ := newPipeline(t, llm, extract.New(nil, logger.Nop()))

	res, err := p.Process(context.Background(), src, categories())
	require.NoError(t, err)
	require.Len(t, res.Analysis.Highlights, 2)
	assert.Equal(t, "sales went up", res.Analysis.Highlights[0].Content)
	assert.Equal(t, 1, res.HighlightCount)
	require.NotNil(t, res.HighlightedPath)
}
