// Package crawler drives a paginated search-listing crawl.
//
// # Architecture
//
// A Controller seeds one listing request per keyword. Each listing
// response yields detail links (deduplicated per keyword) and, when the
// body carries a continuation token, the next listing request for that
// keyword. Detail responses are loaded into items, passed to an Emitter
// and counted against a shared ItemBudget.
//
// Fetches run on goroutines bounded by a weighted semaphore. Their results
// come back as events on a single channel, and one controller loop owns
// every state transition: the per-keyword CrawlState and the budget check
// and increment. The loop is the only writer, so a budget of N produces at
// most N items.
//
// # Components
//
//   - TokenExtractor: pulls the continuation token out of a listing body
//   - LinkCollector: selects detail links and filters the keyword's seen-set
//   - ItemBudget: item counter plus configured maximum
//   - CrawlState: per-keyword seen-set, token and close reason
//   - Controller: the event loop
//   - HTTPFetcher: builds listing and detail requests
//
// # Termination
//
// The crawl ends when every keyword is closed and nothing is in flight,
// when the item budget is reached, or when the parent context is
// cancelled. Budget exhaustion cancels the crawl context with
// ErrBudgetReached as its cause; in-flight requests return promptly and
// their results are discarded.
//
// # Usage
//
//	fetcher := crawler.NewHTTPFetcher(client, crawler.WithDownloadDelay(time.Second))
//	ctrl := crawler.NewController(fetcher, loader.New(), pipeline,
//	    crawler.WithMaxItem(100))
//	summary, err := ctrl.Run(ctx, []string{"cat", "dog"})
package crawler
