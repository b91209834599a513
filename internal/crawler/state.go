package crawler

import "github.com/nao1215/playcrawl/internal/model"

// CrawlState is the state of one keyword's listing stream.
// It is owned by the controller loop and is not safe for concurrent use.
type CrawlState struct {
	keyword string
	seen    map[string]struct{}
	token   string
	closed  bool
	stats   *model.KeywordStats
}

// NewCrawlState creates the state of a freshly seeded keyword.
// stats receives the keyword's counters; a nil stats gets a private one.
func NewCrawlState(keyword string, stats *model.KeywordStats) *CrawlState {
	if stats == nil {
		stats = &model.KeywordStats{Keyword: keyword}
	}
	return &CrawlState{
		keyword: keyword,
		seen:    make(map[string]struct{}),
		stats:   stats,
	}
}

// Keyword returns the keyword.
func (s *CrawlState) Keyword() string { return s.keyword }

// Token returns the continuation token of the page last requested.
// Empty for the first page.
func (s *CrawlState) Token() string { return s.token }

// Seen returns the set of detail hrefs already enqueued for this keyword.
func (s *CrawlState) Seen() map[string]struct{} { return s.seen }

// Closed reports whether the listing stream has closed.
func (s *CrawlState) Closed() bool { return s.closed }

// Reason returns why the stream closed, or "" while it is open.
func (s *CrawlState) Reason() model.CloseReason { return s.stats.CloseReason }

// Stats returns the keyword's counters.
func (s *CrawlState) Stats() *model.KeywordStats { return s.stats }

// Advance records the token of the next page to request.
func (s *CrawlState) Advance(token string) {
	s.token = token
}

// Close closes the stream. Only the first reason is kept.
func (s *CrawlState) Close(reason model.CloseReason) {
	if s.closed {
		return
	}
	s.closed = true
	s.stats.CloseReason = reason
}
