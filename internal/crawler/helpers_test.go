package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nao1215/playcrawl/internal/model"
)

// listingBody renders a listing page with one result card per href and,
// when token is not empty, the streamed literal carrying the token.
func listingBody(token string, hrefs ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>\n")
	for _, href := range hrefs {
		fmt.Fprintf(&b, `<div class="card"><div class="details">`+
			`<a class="card-click-target" tabindex="-1" aria-hidden="true" href="%s"></a>`+
			`<a class="title" href="%s">title</a></div></div>`+"\n", href, href)
	}
	if token != "" {
		fmt.Fprintf(&b, `<script>AF_initDataCallback('[[null,\42%s\42]]\n');</script>`+"\n", token)
	}
	b.WriteString("</body></html>")
	return b.String()
}

var errNotFound = errors.New("not found")

// fakeSite is an in-memory Fetcher. Requests made after the crawl context
// is done fail without being recorded, like a real client would.
type fakeSite struct {
	mu sync.Mutex

	// listings maps keyword -> token -> body.
	listings map[string]map[string]string

	// nextListing, when set, generates listing pages for any keyword.
	nextListing func(keyword, token string) (string, bool)

	// blockDetail makes detail fetches of matching hrefs wait for ctx.
	blockDetail func(href string) bool

	listingCalls []model.Request
	detailCalls  []string
}

func newFakeSite() *fakeSite {
	return &fakeSite{listings: make(map[string]map[string]string)}
}

func (f *fakeSite) addListing(keyword, token, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listings[keyword] == nil {
		f.listings[keyword] = make(map[string]string)
	}
	f.listings[keyword][token] = body
}

func (f *fakeSite) FetchListing(ctx context.Context, keyword, token string) (*model.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.listingCalls = append(f.listingCalls, model.NewListingRequest(keyword, token))
	body, ok := f.listings[keyword][token]
	gen := f.nextListing
	f.mu.Unlock()

	if !ok && gen != nil {
		body, ok = gen(keyword, token)
	}
	if !ok {
		return nil, fmt.Errorf("listing %s/%s: %w", keyword, token, errNotFound)
	}
	return &model.Page{
		URL:         "https://play.test/store/search?q=" + keyword,
		StatusCode:  200,
		ContentType: "text/html; charset=utf-8",
		Raw:         []byte(body),
	}, nil
}

func (f *fakeSite) FetchDetail(ctx context.Context, href string) (*model.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.detailCalls = append(f.detailCalls, href)
	block := f.blockDetail
	f.mu.Unlock()

	if block != nil && block(href) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &model.Page{
		URL:         "https://play.test" + href + "&hl=en",
		StatusCode:  200,
		ContentType: "text/html",
		Raw:         []byte("<html><body><h1>" + href + "</h1></body></html>"),
	}, nil
}

func (f *fakeSite) details() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.detailCalls...)
}

func (f *fakeSite) listingsFor(keyword string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	tokens := make([]string, 0)
	for _, r := range f.listingCalls {
		if r.Keyword == keyword {
			tokens = append(tokens, r.Token)
		}
	}
	return tokens
}

// urlLoader builds an item from the page URL. URLs containing "broken"
// fail to load.
type urlLoader struct{}

func (urlLoader) Load(page *model.Page) (*model.AppItem, error) {
	if strings.Contains(page.URL, "broken") {
		return nil, errors.New("missing name")
	}
	return &model.AppItem{URL: page.URL, Name: page.URL}, nil
}

// collector is an Emitter that records items.
type collector struct {
	mu     sync.Mutex
	items  []*model.AppItem
	reject func(*model.AppItem) bool
}

func (c *collector) Emit(_ context.Context, item *model.AppItem) error {
	if c.reject != nil && c.reject(item) {
		return errors.New("rejected")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, item)
	return nil
}

func (c *collector) byKeyword() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int)
	for _, it := range c.items {
		out[it.Keyword]++
	}
	return out
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func countOf(values []string) map[string]int {
	out := make(map[string]int, len(values))
	for _, v := range values {
		out[v]++
	}
	return out
}
