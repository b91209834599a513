package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/nao1215/playcrawl/internal/model"
)

// Default endpoints of the store.
const (
	DefaultSearchURL       = "https://play.google.com/store/search"
	DefaultDetailURLPrefix = "https://play.google.com"
	defaultMaxBodySize     = 5 * 1024 * 1024
)

// ErrUnexpectedStatus is returned when a response has a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// HTTPFetcher fetches listing and detail pages over HTTP.
// A single rate limiter spaces every request by the download delay.
type HTTPFetcher struct {
	client       *http.Client
	searchURL    string
	detailPrefix string
	limiter      *rate.Limiter
	maxBodySize  int64
	logger       *slog.Logger
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithSearchURL sets the listing endpoint.
func WithSearchURL(u string) FetcherOption {
	return func(f *HTTPFetcher) {
		if u != "" {
			f.searchURL = u
		}
	}
}

// WithDetailURLPrefix sets the prefix prepended to detail hrefs.
func WithDetailURLPrefix(prefix string) FetcherOption {
	return func(f *HTTPFetcher) {
		if prefix != "" {
			f.detailPrefix = prefix
		}
	}
}

// WithDownloadDelay sets the politeness delay between requests.
// 0 disables the delay.
func WithDownloadDelay(d time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		f.limiter = newLimiter(d)
	}
}

// WithMaxBodySize limits how many bytes of each response body are read.
func WithMaxBodySize(n int64) FetcherOption {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithFetcherLogger sets the logger.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *HTTPFetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewHTTPFetcher creates an HTTPFetcher using client.
// The client carries timeouts, proxy and default headers; see the
// transport package.
func NewHTTPFetcher(client *http.Client, opts ...FetcherOption) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	f := &HTTPFetcher{
		client:       client,
		searchURL:    DefaultSearchURL,
		detailPrefix: DefaultDetailURLPrefix,
		limiter:      newLimiter(0),
		maxBodySize:  defaultMaxBodySize,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// ListingURL returns the listing URL for keyword.
func (f *HTTPFetcher) ListingURL(keyword string) string {
	return f.searchURL + "?q=" + url.QueryEscape(keyword) + "&c=apps"
}

// DetailURL returns the detail page URL for a collected href.
func (f *HTTPFetcher) DetailURL(href string) string {
	return f.detailPrefix + href + "&hl=en"
}

// FetchListing posts the listing form for keyword. A non-empty token
// requests the continuation page.
func (f *HTTPFetcher) FetchListing(ctx context.Context, keyword, token string) (*model.Page, error) {
	form := url.Values{}
	form.Set("ipf", "1")
	form.Set("xhr", "1")
	if token != "" {
		form.Set("pagTok", token)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.ListingURL(keyword), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create listing request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.do(ctx, req)
}

// FetchDetail gets the detail page for href.
func (f *HTTPFetcher) FetchDetail(ctx context.Context, href string) (*model.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.DetailURL(href), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create detail request: %w", err)
	}
	return f.do(ctx, req)
}

func (f *HTTPFetcher) do(ctx context.Context, req *http.Request) (*model.Page, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	f.logger.Debug("request", "method", req.Method, "url", req.URL.String())

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from %s: %w", req.URL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, resp.StatusCode, req.URL)
	}

	page := &model.Page{
		URL:        req.URL.String(),
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Raw:        body,
	}
	page.ContentType = page.GetHeader("Content-Type")
	page.ComputeHash()
	return page, nil
}
