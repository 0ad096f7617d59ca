// Package news serves a paginated feed over a static, pre-fetched article dataset.
package news

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/docintel-backend/internal/platform/logger"
)

const DefaultPageSize = 10

type Source struct {
	ID   string `yaml:"id" json:"id,omitempty"`
	Name string `yaml:"name" json:"name,omitempty"`
}

// CategoryScore is one `[name, score]` pair of an article's category list.
type CategoryScore struct {
	Name  string
	Score float64
}

func (c *CategoryScore) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.SequenceNode || len(n.Content) == 0 {
		return fmt.Errorf("category entry at line %d: want [name, score]", n.Line)
	}
	if err := n.Content[0].Decode(&c.Name); err != nil {
		return err
	}
	if len(n.Content) > 1 {
		if err := n.Content[1].Decode(&c.Score); err != nil {
			return err
		}
	}
	return nil
}

func (c CategoryScore) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{c.Name, c.Score})
}

type Article struct {
	Source      Source          `yaml:"source" json:"source"`
	Author      string          `yaml:"author" json:"author,omitempty"`
	Title       string          `yaml:"title" json:"title"`
	Description string          `yaml:"description" json:"description,omitempty"`
	URL         string          `yaml:"url" json:"url"`
	URLToImage  string          `yaml:"urlToImage" json:"urlToImage,omitempty"`
	PublishedAt string          `yaml:"publishedAt" json:"publishedAt"`
	Content     string          `yaml:"content" json:"content,omitempty"`
	Categories  []CategoryScore `yaml:"category" json:"category,omitempty"`
	Keywords    []string        `yaml:"keywords" json:"keywords,omitempty"`
	Country     []string        `yaml:"country" json:"country,omitempty"`
}

func (a Article) hasCategory(wanted map[string]struct{}) bool {
	for _, c := range a.Categories {
		if _, ok := wanted[strings.ToLower(strings.TrimSpace(c.Name))]; ok {
			return true
		}
	}
	return false
}

type Query struct {
	UserID     string
	Page       int
	Categories []string
	// Unseen drops articles already served to UserID.
	Unseen bool
}

type Page struct {
	Articles   []Article `json:"articles"`
	Page       int       `json:"page"`
	TotalPages int       `json:"total_pages"`
	HasMore    bool      `json:"has_more"`
}

type Feed struct {
	log      *logger.Logger
	articles []Article
	pageSize int

	mu     sync.Mutex
	served map[string]map[string]struct{}
}

func New(articles []Article, log *logger.Logger) *Feed {
	cleaned := make([]Article, 0, len(articles))
	for _, a := range articles {
		a.Description = StripHTML(a.Description)
		a.Content = StripHTML(a.Content)
		cleaned = append(cleaned, a)
	}
	return &Feed{
		log:      log.With("service", "NewsFeed"),
		articles: cleaned,
		pageSize: DefaultPageSize,
		served:   map[string]map[string]struct{}{},
	}
}

// Parse decodes a JSON array of articles. JSON is read through the YAML decoder,
// so a YAML rendition of the same dataset loads too.
func Parse(data []byte, log *logger.Logger) (*Feed, error) {
	var articles []Article
	if err := yaml.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("decode news dataset: %w", err)
	}
	return New(articles, log), nil
}

func Load(path string, log *logger.Logger) (*Feed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read news dataset: %w", err)
	}
	f, err := Parse(data, log)
	if err != nil {
		return nil, err
	}
	f.log.Info("News dataset loaded", "path", path, "articles", len(f.articles))
	return f, nil
}

func (f *Feed) Len() int { return len(f.articles) }

// Page returns one page of articles matching q. Every returned article is
// recorded in the user's served history.
func (f *Feed) Page(q Query) Page {
	page := q.Page
	if page < 1 {
		page = 1
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	available := f.filter(q)
	total := (len(available) + f.pageSize - 1) / f.pageSize

	out := Page{Articles: []Article{}, Page: page, TotalPages: total, HasMore: page < total}
	start := (page - 1) * f.pageSize
	if start < len(available) {
		end := start + f.pageSize
		if end > len(available) {
			end = len(available)
		}
		out.Articles = append(out.Articles, available[start:end]...)
	}

	if q.UserID != "" && len(out.Articles) > 0 {
		seen := f.served[q.UserID]
		if seen == nil {
			seen = map[string]struct{}{}
			f.served[q.UserID] = seen
		}
		for _, a := range out.Articles {
			seen[a.URL] = struct{}{}
		}
	}
	return out
}

func (f *Feed) filter(q Query) []Article {
	wanted := map[string]struct{}{}
	for _, c := range q.Categories {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			wanted[c] = struct{}{}
		}
	}
	seen := f.served[q.UserID]

	var out []Article
	for _, a := range f.articles {
		if len(wanted) > 0 && !a.hasCategory(wanted) {
			continue
		}
		if q.Unseen && seen != nil {
			if _, ok := seen[a.URL]; ok {
				continue
			}
		}
		out = append(out, a)
	}
	return out
}

func (f *Feed) ResetHistory(userID string) {
	f.mu.Lock()
	delete(f.served, userID)
	f.mu.Unlock()
	f.log.Debug("News history reset", "user_id", userID)
}

// StripHTML returns the text content of an HTML fragment with whitespace collapsed.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
