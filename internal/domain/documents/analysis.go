package documents

// HighlightCategory is the closed set of highlight kinds. Each maps to one marker color.
type HighlightCategory string

const (
	CategoryMainIdea   HighlightCategory = "main-idea"
	CategoryVocabulary HighlightCategory = "vocabulary"
	CategoryQuestion   HighlightCategory = "question"
	CategorySubIdea    HighlightCategory = "sub-idea"
)

var HighlightCategories = []HighlightCategory{
	CategoryMainIdea,
	CategoryVocabulary,
	CategoryQuestion,
	CategorySubIdea,
}

func (c HighlightCategory) Valid() bool {
	switch c {
	case CategoryMainIdea, CategoryVocabulary, CategoryQuestion, CategorySubIdea:
		return true
	}
	return false
}

type Chunk struct {
	Index int
	Text  string
}

// Highlight.Content is copied verbatim from the extracted text; span location relies on it.
type Highlight struct {
	Content     string            `json:"content"`
	Explanation string            `json:"explanation"`
	Category    HighlightCategory `json:"category"`
}

// DocumentAnalysis is the highlight pipeline output. PageCount holds the chunk count.
type DocumentAnalysis struct {
	Highlights []Highlight `json:"highlights"`
	PageCount  int         `json:"page_count"`
	Title      string      `json:"title"`
}

type ChunkSummary struct {
	Topics    []string `json:"main_topics"`
	KeyPoints []string `json:"key_points"`
	Summary   string   `json:"summary"`
}

type Classification struct {
	Category   string `json:"category"`
	Confidence int    `json:"confidence"`
	Rationale  string `json:"explanation"`
}

type DocumentSummary struct {
	Title               string         `json:"title"`
	ChunkSummaries      []ChunkSummary `json:"chunk_summaries"`
	FullSummary         string         `json:"full_summary"`
	Classification      Classification `json:"classification"`
	AvailableCategories []string       `json:"available_categories"`
}
