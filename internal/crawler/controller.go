package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/nao1215/playcrawl/internal/model"
	"github.com/nao1215/playcrawl/internal/selector"
)

// DefaultConcurrency is the default maximum number of requests in flight.
const DefaultConcurrency = 16

var (
	// ErrBudgetReached is the cancel cause of a crawl stopped by its item
	// budget. It is not returned by Run.
	ErrBudgetReached = errors.New("item budget reached")

	// ErrNoKeywords is returned by Run when no keyword is given.
	ErrNoKeywords = errors.New("no keywords to crawl")
)

// Fetcher retrieves listing and detail pages.
type Fetcher interface {
	// FetchListing fetches one listing page for keyword. token is empty for
	// the first page.
	FetchListing(ctx context.Context, keyword, token string) (*model.Page, error)

	// FetchDetail fetches the detail page of a collected href.
	FetchDetail(ctx context.Context, href string) (*model.Page, error)
}

// ItemLoader turns a detail page into an item.
type ItemLoader interface {
	Load(page *model.Page) (*model.AppItem, error)
}

// Emitter receives every produced item, in detail completion order.
// An error drops the item; it is counted as failed and not against the
// budget.
type Emitter interface {
	Emit(ctx context.Context, item *model.AppItem) error
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(ctx context.Context, item *model.AppItem) error

// Emit calls f(ctx, item).
func (f EmitterFunc) Emit(ctx context.Context, item *model.AppItem) error {
	return f(ctx, item)
}

// Controller runs the listing/detail crawl for a set of keywords.
type Controller struct {
	fetcher     Fetcher
	loader      ItemLoader
	emitter     Emitter
	selector    selector.Selector
	tokens      TokenExtractor
	maxItem     int
	concurrency int
	logger      *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithMaxItem sets the item budget. 0 means unlimited.
func WithMaxItem(n int) Option {
	return func(c *Controller) {
		c.maxItem = n
	}
}

// WithConcurrency sets the maximum number of requests in flight.
// Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithSelector sets the document selector used to collect detail links.
func WithSelector(sel selector.Selector) Option {
	return func(c *Controller) {
		if sel != nil {
			c.selector = sel
		}
	}
}

// WithTokenExtractor replaces the continuation token extractor.
func WithTokenExtractor(t TokenExtractor) Option {
	return func(c *Controller) {
		if t != nil {
			c.tokens = t
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewController creates a Controller.
func NewController(fetcher Fetcher, loader ItemLoader, emitter Emitter, opts ...Option) *Controller {
	c := &Controller{
		fetcher:     fetcher,
		loader:      loader,
		emitter:     emitter,
		selector:    selector.NewCSSSelector(),
		tokens:      NewTokenExtractor(),
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// event is a fetch result delivered to the controller loop.
type event interface {
	request() model.Request
}

type listingResult struct {
	req  model.Request
	page *model.Page
	doc  *selector.Document
	err  error
}

func (r listingResult) request() model.Request { return r.req }

type detailResult struct {
	req  model.Request
	item *model.AppItem
	err  error
}

func (r detailResult) request() model.Request { return r.req }

// run holds the state of one Run call. Only the loop goroutine touches it.
type run struct {
	ctx     context.Context
	cancel  context.CancelCauseFunc
	states  map[string]*CrawlState
	budget  *ItemBudget
	links   *LinkCollector
	summary *model.CrawlSummary
	pending int
	issue   func(model.Request)
}

// Run crawls keywords until every keyword's listing stream is closed and no
// request is in flight, the item budget is reached, or ctx is cancelled.
// The returned summary records which of these ended the crawl. Per-keyword
// and per-item failures are logged and counted, never returned.
func (c *Controller) Run(ctx context.Context, keywords []string) (*model.CrawlSummary, error) {
	if len(keywords) == 0 {
		return nil, ErrNoKeywords
	}
	if c.fetcher == nil || c.loader == nil || c.emitter == nil {
		return nil, errors.New("controller requires a fetcher, a loader and an emitter")
	}

	crawlCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	r := &run{
		ctx:     crawlCtx,
		cancel:  cancel,
		states:  make(map[string]*CrawlState, len(keywords)),
		budget:  NewItemBudget(c.maxItem),
		links:   NewLinkCollector(c.selector),
		summary: model.NewCrawlSummary(keywords, c.maxItem),
	}

	events := make(chan event)
	sem := semaphore.NewWeighted(int64(c.concurrency))
	var g errgroup.Group

	r.issue = func(req model.Request) {
		r.pending++
		if req.Kind == model.RequestDetail {
			r.summary.DetailRequests++
		}
		g.Go(func() error {
			ev := c.fetch(crawlCtx, sem, req)
			select {
			case events <- ev:
			case <-crawlCtx.Done():
			}
			return nil
		})
	}

	for _, kw := range keywords {
		if _, ok := r.states[kw]; ok {
			continue
		}
		r.states[kw] = NewCrawlState(kw, r.summary.KeywordStats[kw])
		c.logger.Debug("keyword seeded", "keyword", kw)
		r.issue(model.NewListingRequest(kw, ""))
	}

loop:
	for r.pending > 0 {
		if crawlCtx.Err() != nil {
			break
		}
		select {
		case <-crawlCtx.Done():
			break loop
		case ev := <-events:
			r.pending--
			switch ev := ev.(type) {
			case listingResult:
				c.handleListing(r, ev)
			case detailResult:
				c.handleDetail(r, ev)
			}
		}
	}

	reason := model.ReasonPagesExhausted
	switch {
	case errors.Is(context.Cause(crawlCtx), ErrBudgetReached):
		reason = model.ReasonBudgetReached
	case ctx.Err() != nil:
		reason = model.ReasonExternallyStopped
	}

	cancel(nil)
	_ = g.Wait()

	closeReason := model.CloseStopped
	if reason == model.ReasonBudgetReached {
		closeReason = model.CloseBudgetExhausted
	}
	for _, st := range r.states {
		st.Close(closeReason)
	}

	r.summary.Reason = reason
	r.summary.FinishedAt = time.Now()
	c.logger.Info("crawl finished",
		"reason", reason.String(),
		"items", r.summary.Items,
		"failed", r.summary.Failed,
		"listing_pages", r.summary.ListingPages,
	)
	return r.summary, nil
}

// fetch performs req on the calling goroutine. Detail pages are loaded
// here so parsing runs concurrently; every decision is left to the loop.
func (c *Controller) fetch(ctx context.Context, sem *semaphore.Weighted, req model.Request) event {
	if err := sem.Acquire(ctx, 1); err != nil {
		if req.Kind == model.RequestListing {
			return listingResult{req: req, err: err}
		}
		return detailResult{req: req, err: err}
	}

	if req.Kind == model.RequestListing {
		page, err := c.fetcher.FetchListing(ctx, req.Keyword, req.Token)
		sem.Release(1)
		if err != nil {
			return listingResult{req: req, err: err}
		}
		doc, err := selector.ParseBytes(page.URL, page.Raw)
		return listingResult{req: req, page: page, doc: doc, err: err}
	}

	page, err := c.fetcher.FetchDetail(ctx, req.URL)
	sem.Release(1)
	if err != nil {
		return detailResult{req: req, err: err}
	}
	item, err := c.loader.Load(page)
	if err != nil {
		return detailResult{req: req, err: fmt.Errorf("failed to load %s: %w", page.URL, err)}
	}
	if item.Keyword == "" {
		item.Keyword = req.Keyword
	}
	return detailResult{req: req, item: item}
}

func (c *Controller) handleListing(r *run, res listingResult) {
	st := r.states[res.req.Keyword]
	if st == nil || st.Closed() {
		return
	}

	if res.err != nil {
		c.logger.Warn("listing fetch failed", "keyword", st.Keyword(), "page_token", res.req.Token, "error", res.err)
		st.Close(model.CloseFetchFailed)
		return
	}

	st.Stats().Pages++
	r.summary.ListingPages++

	if r.budget.Exhausted() {
		st.Close(model.CloseBudgetExhausted)
		return
	}

	links := r.links.Collect(res.doc, st.Seen())
	st.Stats().Links += len(links)
	if res.req.IsFirstPage() && len(links) == 0 {
		c.logger.Info("no search results", "keyword", st.Keyword())
	}
	for _, href := range links {
		r.issue(model.NewDetailRequest(st.Keyword(), href))
	}

	token, err := c.tokens.Extract(res.page.Raw)
	switch {
	case err != nil:
		c.logger.Warn("continuation token parse error", "keyword", st.Keyword(), "error", err)
		st.Close(model.CloseTokenParseError)
	case token == "":
		st.Close(model.CloseNoMorePages)
	default:
		st.Advance(token)
		r.issue(model.NewListingRequest(st.Keyword(), token))
	}

	c.logger.Debug("listing page processed",
		"keyword", st.Keyword(),
		"page", st.Stats().Pages,
		"links", len(links),
		"page_token", token,
		"closed", st.Closed(),
	)
}

func (c *Controller) handleDetail(r *run, res detailResult) {
	st := r.states[res.req.Keyword]

	if r.budget.Exhausted() {
		r.cancel(ErrBudgetReached)
		return
	}

	if res.err != nil {
		c.logger.Warn("detail fetch failed", "keyword", res.req.Keyword, "url", res.req.URL, "error", res.err)
		c.countFailure(r, st)
		return
	}

	if err := c.emitter.Emit(r.ctx, res.item); err != nil {
		c.logger.Warn("item dropped", "keyword", res.req.Keyword, "url", res.item.URL, "error", err)
		c.countFailure(r, st)
		return
	}

	count := r.budget.RecordSuccess()
	r.summary.Items++
	if st != nil {
		st.Stats().Items++
	}
	c.logger.Info("item produced", "keyword", res.req.Keyword, "app_id", res.item.AppID, "count", count)

	if r.budget.Exhausted() {
		c.logger.Info("item budget reached", "max_item", r.budget.Max())
		r.cancel(ErrBudgetReached)
	}
}

func (c *Controller) countFailure(r *run, st *CrawlState) {
	r.summary.Failed++
	if st != nil {
		st.Stats().Failed++
	}
}
