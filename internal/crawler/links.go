package crawler

import (
	"strings"

	"github.com/nao1215/playcrawl/internal/selector"
)

// DetailLinkQuery selects the detail page href of every result card in a
// search listing.
const DetailLinkQuery = `div[class="details"] > a[class="card-click-target"][tabindex="-1"][aria-hidden="true"]@href`

// LinkCollector extracts detail links from listing documents.
type LinkCollector struct {
	selector selector.Selector
	query    string
}

// NewLinkCollector creates a LinkCollector that runs DetailLinkQuery with sel.
func NewLinkCollector(sel selector.Selector) *LinkCollector {
	return &LinkCollector{selector: sel, query: DetailLinkQuery}
}

// Collect returns the hrefs in doc that are not yet in seen, in document
// order, and adds them to seen. Duplicates within the page are dropped and
// empty hrefs are skipped.
func (c *LinkCollector) Collect(doc *selector.Document, seen map[string]struct{}) []string {
	links := make([]string, 0)
	for _, href := range c.selector.Select(doc, c.query) {
		href = strings.TrimSpace(href)
		if href == "" {
			continue
		}
		if _, ok := seen[href]; ok {
			continue
		}
		seen[href] = struct{}{}
		links = append(links, href)
	}
	return links
}
