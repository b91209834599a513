// Package model defines the data structures shared across playcrawl.
//
// This package contains the following main types:
//   - Page: A fetched HTTP response (listing or detail page)
//   - Request: A unit of crawl work (listing fetch or detail fetch)
//   - AppItem: One fully loaded app record produced from a detail page
//   - CrawlSummary: The outcome of a crawl run, including the termination reason
//
// The models are kept in their own package so that the crawler, loader,
// pipeline, report and database packages can share them without import
// cycles. All of them serialize to JSON for output and database storage.
package model
