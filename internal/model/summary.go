package model

import (
	"sort"
	"time"
)

// TerminationReason describes why a crawl ended.
type TerminationReason string

const (
	// ReasonBudgetReached means the item budget was exhausted and the crawl
	// was cancelled.
	ReasonBudgetReached TerminationReason = "budget reached"

	// ReasonPagesExhausted means every keyword ran out of pages and all
	// outstanding requests completed.
	ReasonPagesExhausted TerminationReason = "pages exhausted"

	// ReasonExternallyStopped means the caller cancelled the crawl
	// (for example with SIGINT).
	ReasonExternallyStopped TerminationReason = "externally stopped"
)

// String returns the reason text.
func (r TerminationReason) String() string {
	return string(r)
}

// CloseReason describes why a single keyword's listing stream closed.
type CloseReason string

const (
	// CloseNoMorePages means the last listing page had no continuation token.
	CloseNoMorePages CloseReason = "no more pages"

	// CloseBudgetExhausted means the item budget was exhausted before the
	// next page was requested.
	CloseBudgetExhausted CloseReason = "budget exhausted"

	// CloseTokenParseError means the continuation token could not be decoded.
	CloseTokenParseError CloseReason = "token parse error"

	// CloseFetchFailed means a listing page could not be fetched or parsed.
	CloseFetchFailed CloseReason = "listing fetch failed"

	// CloseStopped means the crawl stopped while the keyword was still open.
	CloseStopped CloseReason = "stopped"
)

// KeywordStats holds per-keyword crawl counters.
type KeywordStats struct {
	// Keyword is the search keyword.
	Keyword string `json:"keyword"`

	// Pages is the number of listing pages received.
	Pages int `json:"pages"`

	// Links is the number of unique detail links collected.
	Links int `json:"links"`

	// Items is the number of items produced from this keyword's links.
	Items int `json:"items"`

	// Failed is the number of detail pages that could not be loaded.
	Failed int `json:"failed"`

	// CloseReason is why the keyword's listing stream closed.
	CloseReason CloseReason `json:"close_reason"`
}

// CrawlSummary is the outcome of a crawl run.
type CrawlSummary struct {
	// Keywords are the keywords crawled, in the order given.
	Keywords []string `json:"keywords"`

	// StartedAt is when the crawl started.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the crawl finished.
	FinishedAt time.Time `json:"finished_at"`

	// MaxItem is the configured item budget (0 = unlimited).
	MaxItem int `json:"max_item"`

	// Items is the total number of items produced.
	Items int `json:"items"`

	// Failed is the total number of detail pages that failed to load.
	Failed int `json:"failed"`

	// ListingPages is the number of listing pages received.
	ListingPages int `json:"listing_pages"`

	// DetailRequests is the number of detail requests issued.
	DetailRequests int `json:"detail_requests"`

	// Reason is why the crawl terminated.
	Reason TerminationReason `json:"reason"`

	// KeywordStats holds per-keyword counters, keyed by keyword.
	KeywordStats map[string]*KeywordStats `json:"keyword_stats"`
}

// NewCrawlSummary creates an empty summary for the given keywords.
func NewCrawlSummary(keywords []string, maxItem int) *CrawlSummary {
	s := &CrawlSummary{
		Keywords:     append([]string(nil), keywords...),
		StartedAt:    time.Now(),
		MaxItem:      maxItem,
		KeywordStats: make(map[string]*KeywordStats, len(keywords)),
	}
	for _, kw := range keywords {
		s.KeywordStats[kw] = &KeywordStats{Keyword: kw}
	}
	return s
}

// Duration returns how long the crawl ran.
func (s *CrawlSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Stats returns the per-keyword stats in keyword order.
// Keywords missing from Keywords are appended in lexical order.
func (s *CrawlSummary) Stats() []KeywordStats {
	result := make([]KeywordStats, 0, len(s.KeywordStats))
	seen := make(map[string]bool, len(s.KeywordStats))
	for _, kw := range s.Keywords {
		if st, ok := s.KeywordStats[kw]; ok && !seen[kw] {
			result = append(result, *st)
			seen[kw] = true
		}
	}

	rest := make([]string, 0)
	for kw := range s.KeywordStats {
		if !seen[kw] {
			rest = append(rest, kw)
		}
	}
	sort.Strings(rest)
	for _, kw := range rest {
		result = append(result, *s.KeywordStats[kw])
	}
	return result
}
