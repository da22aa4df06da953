package hackernews

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"scour/capability"
)

func TestSearchThreadsPaginatesLazily(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Query().Get("query") != "golang" {
			t.Errorf("unexpected query: %q", r.URL.Query().Get("query"))
		}
		page := r.URL.Query().Get("page")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"page": %s,
			"nbPages": 3,
			"hits": [
				{"title": "Story %s-1", "url": "https://a.com", "points": 10, "objectID": "%s1"},
				{"title": "Story %s-2", "url": "https://b.com", "points": 20, "objectID": "%s2"}
			]
		}`, page, page, page, page, page)
	}))
	defer server.Close()

	b, _ := New(nil)
	b.baseURL = server.URL

	var titles []string
	for thread, err := range b.SearchThreads(context.Background(), "golang", 3) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		titles = append(titles, thread.Title)
	}

	if len(titles) != 3 {
		t.Fatalf("expected 3 threads, got %d: %v", len(titles), titles)
	}
	if titles[0] != "Story 0-1" || titles[2] != "Story 1-1" {
		t.Errorf("unexpected titles: %v", titles)
	}
	// Limit 3 with page size 2 needs exactly two pages.
	if requests != 2 {
		t.Errorf("expected 2 requests, got %d", requests)
	}
}

func TestSearchThreadsStopsEarlyWhenConsumerDoes(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"page": 0, "nbPages": 100, "hits": [
			{"title": "A", "objectID": "1"},
			{"title": "B", "objectID": "2"}
		]}`))
	}))
	defer server.Close()

	b, _ := New(nil)
	b.baseURL = server.URL

	for range b.SearchThreads(context.Background(), "x", 1000) {
		break // consumer abandons the stream after one item
	}

	if requests != 1 {
		t.Errorf("expected 1 request, got %d", requests)
	}
}

func TestSearchThreadsErrorMidStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "0" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"page": 0, "nbPages": 2, "hits": [{"title": "A", "objectID": "1"}]}`))
			return
		}
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	b, _ := New(nil)
	b.baseURL = server.URL

	var threads []*capability.Thread
	var streamErr error
	for thread, err := range b.SearchThreads(context.Background(), "x", 10) {
		if err != nil {
			streamErr = err
			break
		}
		threads = append(threads, thread)
	}

	if len(threads) != 1 {
		t.Fatalf("expected 1 thread before the error, got %d", len(threads))
	}
	if streamErr == nil {
		t.Fatal("expected a mid-stream error")
	}
}

func TestFrontPageWhenQueryEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("tags") != "front_page" {
			t.Errorf("expected front_page tags, got %q", r.URL.Query().Get("tags"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"page": 0, "nbPages": 1, "hits": [{"title": "A", "objectID": "1"}]}`))
	}))
	defer server.Close()

	b, _ := New(nil)
	b.baseURL = server.URL

	for _, err := range b.SearchThreads(context.Background(), "", 5) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestThreadCommentsURLFallback(t *testing.T) {
	h := hit{Title: "Ask HN", ObjectID: "42"}
	thread := h.thread()
	expected := "https://news.ycombinator.com/item?id=42"
	if thread.URL != expected {
		t.Errorf("expected %q, got %q", expected, thread.URL)
	}
}
