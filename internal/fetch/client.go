// Package fetch provides the HTTP client shared by the discovery and
// extraction stages, along with the error taxonomy used to classify
// per-URL failures.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fetcher is the page-fetching contract consumed by the crawl engines.
// Implementations return the raw markup or a classified *Error.
type Fetcher interface {
	Get(ctx context.Context, url string) (*Response, error)
}

// Response contains a successfully fetched page.
type Response struct {
	StatusCode  int
	Body        []byte
	ContentType string
	FinalURL    string // after following redirects
}

// Client implements Fetcher over net/http.
type Client struct {
	client    *http.Client
	userAgent string
}

// NewClient creates an HTTP client with the given User-Agent and request
// timeout.
func NewClient(userAgent string, timeout time.Duration) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
	}
}

// Get performs an HTTP GET. All failures, including non-2xx statuses, come
// back as a classified *Error; the caller never sees a Response alongside
// an error.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Kind: KindMalformedURL, URL: url, Err: err}
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{Kind: KindTransient, URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransient, URL: url, Err: fmt.Errorf("read body: %w", err)}
	}

	if kind := classifyStatus(resp.StatusCode); kind != "" {
		return nil, &Error{Kind: kind, URL: url, StatusCode: resp.StatusCode}
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
	}, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}
