package feed

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Post is an item of the paged feed.
type Post struct {
	UserID int    `json:"userId"`
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// Source returns one page of posts.
type Source interface {
	FetchPage(ctx context.Context, page, limit int) ([]Post, error)
}

// JSONGetter decodes the JSON document at a URL into out.
type JSONGetter interface {
	GetJSON(ctx context.Context, url string, out any) error
}

// HTTPSource reads pages from a json-server style endpoint using
// _page and _limit query parameters.
type HTTPSource struct {
	baseURL *url.URL
	client  JSONGetter
}

// NewHTTPSource creates a Source for the collection at baseURL.
func NewHTTPSource(baseURL string, client JSONGetter) (*HTTPSource, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL %q: %w", baseURL, err)
	}
	return &HTTPSource{baseURL: u, client: client}, nil
}

// PageURL returns the address of the given page.
func (s *HTTPSource) PageURL(page, limit int) string {
	u := *s.baseURL
	q := u.Query()
	q.Set("_page", strconv.Itoa(page))
	q.Set("_limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()
	return u.String()
}

// FetchPage implements Source.
func (s *HTTPSource) FetchPage(ctx context.Context, page, limit int) ([]Post, error) {
	var posts []Post
	if err := s.client.GetJSON(ctx, s.PageURL(page, limit), &posts); err != nil {
		return nil, fmt.Errorf("failed to fetch page %d: %w", page, err)
	}
	return posts, nil
}
