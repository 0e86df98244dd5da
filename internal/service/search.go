package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// searchTimeout bounds the upstream call; the proxy must never block a
// request handler indefinitely.
const searchTimeout = 10 * time.Second

// SearchResult is one listing returned by the upstream search API.
// Unknown fields are dropped on decode.
type SearchResult struct {
	Title string `json:"title"`
	Price string `json:"price"`
	URL   string `json:"url"`
	Image string `json:"image"`
}

// SearchService proxies queries to an external search API.
type SearchService struct {
	apiURL string
	client *http.Client
}

// NewSearchService creates a SearchService targeting the given API URL.
func NewSearchService(apiURL string) *SearchService {
	return &SearchService{
		apiURL: apiURL,
		client: &http.Client{Timeout: searchTimeout},
	}
}

// Search forwards the query upstream. On transport failure, a non-2xx
// status, or an undecodable body it returns an empty result set along
// with the error, so callers always have something renderable.
func (s *SearchService) Search(ctx context.Context, query string) ([]SearchResult, error) {
	u, err := url.Parse(s.apiURL)
	if err != nil {
		return []SearchResult{}, fmt.Errorf("parse search api url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return []SearchResult{}, fmt.Errorf("build search request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return []SearchResult{}, fmt.Errorf("search upstream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return []SearchResult{}, fmt.Errorf("search upstream returned status %d", resp.StatusCode)
	}

	var results []SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return []SearchResult{}, fmt.Errorf("decode search results: %w", err)
	}
	if results == nil {
		results = []SearchResult{}
	}
	return results, nil
}
