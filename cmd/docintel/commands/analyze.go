package commands

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/docintel-backend/internal/app"
	"github.com/yungbote/docintel-backend/internal/domain/documents"
	"github.com/yungbote/docintel-backend/internal/modules/documents/pipeline"
)

var defaultCategories = []string{
	"Technical Documentation",
	"Business Strategy",
	"Research Paper",
	"Educational Material",
	"Project Planning",
}

// analyzeOutput is what analyze prints and watch writes.
type analyzeOutput struct {
	File            string                     `json:"file"`
	HighlightedPath *string                    `json:"highlighted_path"`
	HighlightCount  int                        `json:"highlight_count"`
	Analysis        documents.DocumentAnalysis `json:"analysis"`
	Summary         documents.DocumentSummary  `json:"summary"`
	Category        *string                    `json:"category"`
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	var categories []string
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Highlight and summarize one document",
		Long: `Run the highlight and summary pipelines on a single PDF, DOCX or PPTX file
without a database. The highlighted copy is written to $HIGHLIGHT_DIR and the
result is printed as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := root.logger()
			if err != nil {
				return err
			}
			defer log.Sync()

			engine, err := app.NewEngine(cmd.Context(), log, app.LoadConfig(log))
			if err != nil {
				return err
			}
			defer engine.Close()

			out, err := analyzeFile(cmd.Context(), engine.Pipeline, args[0], parseCategories(categories))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringSliceVar(&categories, "categories", nil, "category names to classify against (default: built-in list)")
	return cmd
}

// parseCategories trims and dedupes names, falling back to the defaults when
// none remain. Each category gets a fresh ID since nothing is persisted.
func parseCategories(names []string) []documents.Category {
	seen := map[string]bool{}
	var out []documents.Category
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, documents.Category{ID: uuid.New(), Name: n})
	}
	if len(out) == 0 {
		for _, n := range defaultCategories {
			out = append(out, documents.Category{ID: uuid.New(), Name: n})
		}
	}
	return out
}

func analyzeFile(ctx context.Context, p *pipeline.Pipeline, path string, categories []documents.Category) (*analyzeOutput, error) {
	res, err := p.Process(ctx, path, categories)
	if err != nil {
		return nil, err
	}
	out := &analyzeOutput{
		File:            path,
		HighlightedPath: res.HighlightedPath,
		HighlightCount:  res.HighlightCount,
		Analysis:        res.Analysis,
		Summary:         res.Summary,
	}
	if res.MatchedCategoryID != nil {
		for _, c := range categories {
			if c.ID == *res.MatchedCategoryID {
				name := c.Name
				out.Category = &name
				break
			}
		}
	}
	return out, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
