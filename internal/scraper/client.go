package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/guedou/ippon/internal/dates"
	"github.com/guedou/ippon/internal/logger"
)

const (
	DefaultBaseURL = "https://www.lequipe.fr"
	Timeout        = 30 * time.Second
)

// browserHeaders is the header set of a desktop Firefox navigation.
var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:109.0) Gecko/20100101 Firefox/117.0",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.5",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
	"Connection":                "keep-alive",
}

// Fetcher retrieves the raw results page of one day.
type Fetcher interface {
	Fetch(ctx context.Context, day dates.Key, sport string) ([]byte, error)
}

// Client fetches live-results pages over HTTP
type Client struct {
	client  *http.Client
	baseURL string
}

// New creates a Client for baseURL. A nil httpClient gets a default client
// with Timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: Timeout}
	}
	return &Client{client: httpClient, baseURL: baseURL}
}

// URL returns the results page address of a day.
func (c *Client) URL(day dates.Key, sport string) string {
	return fmt.Sprintf("%s/%s/Directs/%s", c.baseURL, sport, day)
}

// HTTPClient exposes the underlying client so other downloads share its
// transport and timeout.
func (c *Client) HTTPClient() *http.Client {
	return c.client
}

// Fetch issues a single GET for the day and returns the body verbatim. Only
// transport failures are errors; an unexpected status is logged and its body
// returned as is.
func (c *Client) Fetch(ctx context.Context, day dates.Key, sport string) ([]byte, error) {
	url := c.URL(day, sport)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %s", url)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", url)
	}

	if resp.StatusCode != http.StatusOK {
		logger.Warn("unexpected status code", logger.Fields{
			"url":    url,
			"status": resp.StatusCode,
		})
	}
	return body, nil
}
