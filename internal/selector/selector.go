package selector

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selector answers a query against a document.
type Selector interface {
	Select(doc *Document, query string) []string
}

// CSSSelector is the Selector backed by goquery (cascadia) CSS matching.
type CSSSelector struct{}

// NewCSSSelector returns a CSSSelector.
func NewCSSSelector() *CSSSelector {
	return &CSSSelector{}
}

// Select runs query against doc.
// With an "@attr" suffix it returns the attribute values of the matches,
// skipping matches without the attribute. Otherwise it returns the
// whitespace-collapsed text of each match, skipping empty text.
// An invalid CSS selector matches nothing.
func (s *CSSSelector) Select(doc *Document, query string) []string {
	if doc == nil || doc.doc == nil {
		return nil
	}

	css, attr := splitQuery(query)
	if css == "" {
		return nil
	}

	var values []string
	doc.doc.Find(css).Each(func(_ int, sel *goquery.Selection) {
		if attr != "" {
			if v, ok := sel.Attr(attr); ok {
				values = append(values, v)
			}
			return
		}
		if text := collapseSpace(sel.Text()); text != "" {
			values = append(values, text)
		}
	})
	return values
}

// First returns the first result of query, or "".
func First(s Selector, doc *Document, query string) string {
	values := s.Select(doc, query)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// splitQuery separates a trailing "@attr" from the CSS part. An "@" inside
// brackets or quotes belongs to the selector.
func splitQuery(query string) (css, attr string) {
	query = strings.TrimSpace(query)
	i := strings.LastIndex(query, "@")
	if i < 0 {
		return query, ""
	}
	tail := query[i+1:]
	if tail == "" || strings.ContainsAny(tail, `]"' >+~:()[`) {
		return query, ""
	}
	return strings.TrimSpace(query[:i]), tail
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
