package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Page represents a fetched web page, either a search listing or an app
// detail page. It holds the raw response body; parsing into a document is
// done by the selector package.
type Page struct {
	// URL is the final URL that was requested.
	URL string `json:"url"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// Headers contains all HTTP response headers in canonical form.
	Headers map[string][]string `json:"headers,omitempty"`

	// ContentType is the MIME type of the response.
	ContentType string `json:"content_type"`

	// Raw contains the raw response body bytes, limited by the fetcher's
	// maximum body size.
	Raw []byte `json:"-"`

	// Hash is the SHA-256 hash of the raw content.
	Hash string `json:"hash"`
}

// ComputeHash calculates and sets the SHA-256 hash of the page's raw content.
// This should be called after setting the Raw field.
func (p *Page) ComputeHash() {
	if len(p.Raw) == 0 {
		p.Hash = ""
		return
	}

	hash := sha256.Sum256(p.Raw)
	p.Hash = hex.EncodeToString(hash[:])
}

// GetHeader returns the first value of the specified header.
// Returns empty string if the header is not present.
func (p *Page) GetHeader(name string) string {
	if values, ok := p.Headers[name]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}

// IsHTML returns true if the page content type indicates HTML.
// Pages without a content type are treated as HTML because the listing
// endpoint does not always send one.
func (p *Page) IsHTML() bool {
	if p.ContentType == "" {
		return true
	}
	return strings.HasPrefix(p.ContentType, "text/html") ||
		strings.HasPrefix(p.ContentType, "application/xhtml+xml")
}
