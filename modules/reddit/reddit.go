// Package reddit implements the boards capability against reddit's public
// JSON search endpoints. An optional "subreddit" parameter restricts
// searches to one subreddit.
package reddit

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

const userAgent = "scour/0.3 (multi-backend content retrieval)"

type post struct {
	Title       string  `json:"title"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	Permalink   string  `json:"permalink"`
	Author      string  `json:"author"`
	CreatedUTC  float64 `json:"created_utc"`
}

func (p post) thread() *capability.Thread {
	return &capability.Thread{
		Title:    p.Title,
		URL:      "https://www.reddit.com" + p.Permalink,
		Author:   p.Author,
		Score:    p.Score,
		Comments: p.NumComments,
		Date:     time.Unix(int64(p.CreatedUTC), 0).UTC(),
	}
}

type listingResponse struct {
	Data struct {
		Children []struct {
			Data post `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type Backend struct {
	client    *http.Client
	baseURL   string
	subreddit string
}

func New(params map[string]string) (*Backend, error) {
	return &Backend{
		client:    &http.Client{Timeout: 30 * time.Second},
		baseURL:   "https://www.reddit.com",
		subreddit: params["subreddit"],
	}, nil
}

// SearchThreads streams posts matching query, ordered by relevance. Reddit's
// search endpoint is not paginated here: one listing is fetched, then
// streamed.
func (b *Backend) SearchThreads(ctx context.Context, query string, limit int) iter.Seq2[*capability.Thread, error] {
	return func(yield func(*capability.Thread, error) bool) {
		posts, err := b.search(ctx, query, limit)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, p := range posts {
			if !yield(p.thread(), nil) {
				return
			}
		}
	}
}

func (b *Backend) search(ctx context.Context, query string, limit int) ([]post, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("sort", "top")
	q.Set("limit", fmt.Sprint(limit))

	endpoint := b.baseURL + "/search.json"
	if b.subreddit != "" {
		q.Set("restrict_sr", "1")
		endpoint = fmt.Sprintf("%s/r/%s/search.json", b.baseURL, b.subreddit)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching reddit posts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit API returned status %d", resp.StatusCode)
	}

	var result listingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding reddit response: %w", err)
	}

	posts := make([]post, 0, len(result.Data.Children))
	for _, child := range result.Data.Children {
		posts = append(posts, child.Data)
	}
	return posts, nil
}

func init() {
	core.RegisterModule(&core.Module{
		Name:         "reddit",
		Description:  "Reddit posts via the public JSON API",
		Version:      "0.3.0",
		RequiresCore: "0.3.0",
		Capabilities: []string{capability.Boards},
		New: func(params map[string]string) (any, error) {
			return New(params)
		},
	})
}
