package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
)

// Config holds fetcher configuration.
type Config struct {
	BaseURL   string // e.g. "https://www.sefaria.org/api/texts/"
	Corpus    string // e.g. "Sefer_HaChinukh"
	UserAgent string
	Timeout   time.Duration
}

// StatusError reports a non-success HTTP response.
type StatusError struct {
	Ref  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: HTTP %d %s", e.Ref, e.Code, http.StatusText(e.Code))
}

// Fetcher retrieves one corpus item per call from the texts API.
type Fetcher struct {
	config    Config
	collector *colly.Collector
}

// New creates a Fetcher. It fails when the base URL is unusable, which
// callers treat as the run-level fatal condition.
func New(config Config) (*Fetcher, error) {
	if config.Corpus == "" {
		return nil, fmt.Errorf("corpus name is required")
	}
	parsed, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: need http(s)://host", config.BaseURL)
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "taryag/1.0"
	}

	c := colly.NewCollector(
		colly.UserAgent(config.UserAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(config.Timeout)

	return &Fetcher{config: config, collector: c}, nil
}

// Ref returns the resource identifier of an item, e.g. "Sefer_HaChinukh.12".
func (f *Fetcher) Ref(id int) string {
	return fmt.Sprintf("%s.%d", f.config.Corpus, id)
}

// URL returns the full request URL of an item.
func (f *Fetcher) URL(id int) string {
	return f.config.BaseURL + f.Ref(id)
}

// Fetch performs exactly one GET for the item and returns the response body.
// Transport failures and non-2xx responses are returned as errors.
func (f *Fetcher) Fetch(ctx context.Context, id int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ref := f.Ref(id)
	var body []byte
	var status int

	c := f.collector.Clone()
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "application/json")
	})
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	slog.Debug("fetching", "ref", ref, "url", f.URL(id))
	if err := c.Visit(f.URL(id)); err != nil {
		if status >= 300 {
			return nil, &StatusError{Ref: ref, Code: status}
		}
		return nil, fmt.Errorf("fetch %s: %w", ref, err)
	}

	slog.Debug("fetched", "ref", ref, "status", status, "size", len(body))
	return body, nil
}
