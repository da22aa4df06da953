// Package hackernews implements the boards capability against the Hacker
// News Algolia search API. Result pages are fetched lazily as the dispatch
// consumer pulls threads.
package hackernews

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"time"

	"scour/capability"
	"scour/core"
)

const pageSize = 20

type hit struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Author      string    `json:"author"`
	Points      int       `json:"points"`
	NumComments int       `json:"num_comments"`
	ObjectID    string    `json:"objectID"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h hit) commentsURL() string {
	return fmt.Sprintf("https://news.ycombinator.com/item?id=%s", h.ObjectID)
}

func (h hit) thread() *capability.Thread {
	u := h.URL
	if u == "" {
		u = h.commentsURL()
	}
	return &capability.Thread{
		Title:    h.Title,
		URL:      u,
		Author:   h.Author,
		Score:    h.Points,
		Comments: h.NumComments,
		Date:     h.CreatedAt,
	}
}

type searchResponse struct {
	Hits    []hit `json:"hits"`
	Page    int   `json:"page"`
	NbPages int   `json:"nbPages"`
}

type Backend struct {
	client  *http.Client
	baseURL string
}

func New(params map[string]string) (*Backend, error) {
	return &Backend{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: "https://hn.algolia.com/api/v1/search",
	}, nil
}

// SearchThreads streams stories matching query, best first. An empty query
// streams the current front page.
func (b *Backend) SearchThreads(ctx context.Context, query string, limit int) iter.Seq2[*capability.Thread, error] {
	return func(yield func(*capability.Thread, error) bool) {
		yielded := 0
		for page := 0; yielded < limit; page++ {
			result, err := b.searchPage(ctx, query, page)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, h := range result.Hits {
				if !yield(h.thread(), nil) {
					return
				}
				yielded++
				if yielded >= limit {
					return
				}
			}
			if len(result.Hits) == 0 || page+1 >= result.NbPages {
				return
			}
		}
	}
}

func (b *Backend) searchPage(ctx context.Context, query string, page int) (*searchResponse, error) {
	q := url.Values{}
	q.Set("hitsPerPage", fmt.Sprint(pageSize))
	q.Set("page", fmt.Sprint(page))
	if query == "" {
		q.Set("tags", "front_page")
	} else {
		q.Set("tags", "story")
		q.Set("query", query)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching HN stories: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HN API returned status %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding HN response: %w", err)
	}
	return &result, nil
}

func init() {
	core.RegisterModule(&core.Module{
		Name:         "hackernews",
		Description:  "Hacker News stories via the Algolia search API",
		Version:      "0.3.0",
		RequiresCore: "0.3.0",
		Capabilities: []string{capability.Boards},
		New: func(params map[string]string) (any, error) {
			return New(params)
		},
	})
}
