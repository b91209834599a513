package loader

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/nao1215/playcrawl/internal/model"
	"github.com/nao1215/playcrawl/internal/selector"
)

// ErrMissingName is returned when a detail page has no app name.
var ErrMissingName = errors.New("app name not found")

// Field queries against the detail page markup. Each field lists
// alternatives; the first one yielding a value wins.
var (
	nameQueries            = []string{`h1[itemprop="name"]`, `.id-app-title`, `meta[itemprop="name"]@content`}
	developerQueries       = []string{`[itemprop="author"] [itemprop="name"]`, `a.document-subtitle.primary`}
	genreQueries           = []string{`[itemprop="genre"]`}
	priceQueries           = []string{`meta[itemprop="price"]@content`}
	ratingQueries          = []string{`meta[itemprop="ratingValue"]@content`, `.score`}
	ratingCountQueries     = []string{`meta[itemprop="ratingCount"]@content`, `.reviews-num`}
	descriptionQueries     = []string{`[itemprop="description"]`}
	updatedQueries         = []string{`[itemprop="datePublished"]`}
	installsQueries        = []string{`[itemprop="numDownloads"]`}
	versionQueries         = []string{`[itemprop="softwareVersion"]`}
	operatingSystemQueries = []string{`[itemprop="operatingSystems"]`}
	contentRatingQueries   = []string{`[itemprop="contentRating"]`}
	fileSizeQueries        = []string{`[itemprop="fileSize"]`}
)

// AppLoader loads AppItems from detail pages.
type AppLoader struct {
	selector selector.Selector
}

// Option configures an AppLoader.
type Option func(*AppLoader)

// WithSelector replaces the document selector.
func WithSelector(sel selector.Selector) Option {
	return func(l *AppLoader) {
		if sel != nil {
			l.selector = sel
		}
	}
}

// New creates an AppLoader using CSS selection.
func New(opts ...Option) *AppLoader {
	l := &AppLoader{selector: selector.NewCSSSelector()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load parses page and extracts an item. Values are whitespace-collapsed;
// the app ID comes from the "id" query parameter of the page URL.
func (l *AppLoader) Load(page *model.Page) (*model.AppItem, error) {
	doc, err := selector.Parse(page)
	if err != nil {
		return nil, err
	}

	item := &model.AppItem{
		AppID:           appID(page.URL),
		URL:             page.URL,
		Name:            l.first(doc, nameQueries),
		Developer:       l.first(doc, developerQueries),
		Genre:           l.first(doc, genreQueries),
		Price:           l.first(doc, priceQueries),
		Rating:          l.first(doc, ratingQueries),
		RatingCount:     l.first(doc, ratingCountQueries),
		Description:     l.first(doc, descriptionQueries),
		Updated:         l.first(doc, updatedQueries),
		Installs:        l.first(doc, installsQueries),
		Version:         l.first(doc, versionQueries),
		OperatingSystem: l.first(doc, operatingSystemQueries),
		ContentRating:   l.first(doc, contentRatingQueries),
		FileSize:        l.first(doc, fileSizeQueries),
	}

	if item.Name == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingName, page.URL)
	}
	return item, nil
}

func (l *AppLoader) first(doc *selector.Document, queries []string) string {
	for _, q := range queries {
		if v := selector.First(l.selector, doc, q); v != "" {
			return collapse(v)
		}
	}
	return ""
}

func appID(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("id")
}
