package selector

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/nao1215/playcrawl/internal/model"
)

// ErrNotHTML is returned when a page does not carry an HTML content type.
var ErrNotHTML = errors.New("page is not HTML")

// Document is a parsed HTML page.
type Document struct {
	// URL is the address the page was fetched from.
	URL string

	root *html.Node
	doc  *goquery.Document
}

// Parse parses the raw body of page into a Document.
// golang.org/x/net/html tolerates malformed markup, so an error here means
// the page is not HTML at all or the reader failed.
func Parse(page *model.Page) (*Document, error) {
	if page == nil {
		return nil, errors.New("nil page")
	}
	if !page.IsHTML() {
		return nil, fmt.Errorf("%w: %s", ErrNotHTML, page.ContentType)
	}
	return ParseBytes(page.URL, page.Raw)
}

// ParseBytes parses an HTML body fetched from url.
func ParseBytes(url string, body []byte) (*Document, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML from %s: %w", url, err)
	}
	return &Document{
		URL:  url,
		root: root,
		doc:  goquery.NewDocumentFromNode(root),
	}, nil
}

// Title returns the trimmed content of the <title> element.
func (d *Document) Title() string {
	return collapseSpace(d.doc.Find("title").First().Text())
}
