package news

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/docintel-backend/internal/platform/logger"
)

func articles(n int, category string) []Article {
	out := make([]Article, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Article{
			Title:      fmt.Sprintf("%s %d", category, i),
			URL:        fmt.Sprintf("https://news.example/%s/%d", category, i),
			Categories: []CategoryScore{{Name: category, Score: 0.9}},
		})
	}
	return out
}

func TestPagination(t *testing.T) {
	feed := New(append(articles(25, "Business"), articles(7, "Sports")...), logger.Nop())

	first := feed.Page(Query{Page: 1, Categories: []string{"business"}})
	assert.Len(t, first.Articles, 10)
	assert.Equal(t, 3, first.TotalPages)
	assert.True(t, first.HasMore)

	last := feed.Page(Query{Page: 3, Categories: []string{"BUSINESS"}})
	assert.Len(t, last.Articles, 5)
	assert.Equal(t, 3, last.TotalPages)
	assert.False(t, last.HasMore)
	assert.Equal(t, "Business 20", last.Articles[0].Title)

	past := feed.Page(Query{Page: 9, Categories: []string{"business"}})
	assert.Empty(t, past.Articles)
	assert.NotNil(t, past.Articles)
	assert.False(t, past.HasMore)
}

func TestPageBelowOneIsFirstPage(t *testing.T) {
	feed := New(articles(12, "tech"), logger.Nop())
	p := feed.Page(Query{Page: 0})
	assert.Equal(t, 1, p.Page)
	assert.Len(t, p.Articles, 10)
	assert.Equal(t, 2, p.TotalPages)
}

func TestNoCategoriesReturnsEverything(t *testing.T) {
	feed := New(append(articles(3, "a"), articles(4, "b")...), logger.Nop())
	p := feed.Page(Query{Page: 1})
	assert.Len(t, p.Articles, 7)
	assert.Equal(t, 1, p.TotalPages)
}

func TestUnseenAndResetHistory(t *testing.T) {
	feed := New(articles(15, "science"), logger.Nop())

	first := feed.Page(Query{UserID: "u1", Page: 1, Unseen: true})
	require.Len(t, first.Articles, 10)

	next := feed.Page(Query{UserID: "u1", Page: 1, Unseen: true})
	require.Len(t, next.Articles, 5)
	assert.Equal(t, "science 10", next.Articles[0].Title)

	other := feed.Page(Query{UserID: "u2", Page: 1, Unseen: true})
	assert.Len(t, other.Articles, 10)

	feed.ResetHistory("u1")
	again := feed.Page(Query{UserID: "u1", Page: 1, Unseen: true})
	assert.Len(t, again.Articles, 10)
	assert.Equal(t, "science 0", again.Articles[0].Title)
}

func TestLoadJSONDataset(t *testing.T) {
	raw := `[
  {
    "source": {"id": null, "name": "Wire"},
    "author": null,
    "title": "Markets rally",
    "description": "<p>Stocks <b>rose</b>&nbsp;today.</p>",
    "url": "https://news.example/markets",
    "urlToImage": null,
    "publishedAt": "2024-03-01T10:00:00Z",
    "content": "<div>Full   story</div>",
    "category": [["business", 0.82], ["world", 0.11]],
    "keywords": ["stocks"],
    "country": ["us"]
  }
]`
	path := filepath.Join(t.TempDir(), "articles.json")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	feed, err := Load(path, logger.Nop())
	require.NoError(t, err)
	require.Equal(t, 1, feed.Len())

	p := feed.Page(Query{Page: 1, Categories: []string{"World"}})
	require.Len(t, p.Articles, 1)
	a := p.Articles[0]
	assert.Equal(t, "Wire", a.Source.Name)
	assert.Equal(t, "Stocks rose today.", a.Description)
	assert.Equal(t, "Full story", a.Content)
	assert.Equal(t, "2024-03-01T10:00:00Z", a.PublishedAt)
	require.Len(t, a.Categories, 2)
	assert.InDelta(t, 0.82, a.Categories[0].Score, 1e-9)

	out, err := json.Marshal(a.Categories[0])
	require.NoError(t, err)
	assert.JSONEq(t, `["business", 0.82]`, string(out))
}

func TestLoadRejectsBadCategory(t *testing.T) {
	_, err := Parse([]byte(`[{"title": "x", "url": "u", "category": "business"}]`), logger.Nop())
	require.Error(t, err)
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "plain text", StripHTML("plain   text"))
	assert.Equal(t, "a & b", StripHTML("a &amp; b"))
	assert.Equal(t, "", StripHTML(""))
}
