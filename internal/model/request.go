package model

import "fmt"

// RequestKind identifies what a Request fetches.
type RequestKind int

const (
	// RequestListing fetches one page of search results for a keyword.
	RequestListing RequestKind = iota

	// RequestDetail fetches a single app detail page.
	RequestDetail
)

// String returns the request kind name used in logs.
func (k RequestKind) String() string {
	switch k {
	case RequestListing:
		return "listing"
	case RequestDetail:
		return "detail"
	default:
		return fmt.Sprintf("RequestKind(%d)", int(k))
	}
}

// Request is a unit of crawl work. It carries no mutable state; everything
// shared between requests lives in the crawl state and the item budget.
type Request struct {
	// Kind is the request type.
	Kind RequestKind

	// Keyword is the search keyword this request belongs to.
	Keyword string

	// Token is the continuation token for listing requests.
	// Empty for the first page of a keyword.
	Token string

	// URL is the collected detail href for detail requests.
	// It is relative to the store's detail URL prefix.
	URL string
}

// NewListingRequest creates a listing request for the given keyword.
func NewListingRequest(keyword, token string) Request {
	return Request{Kind: RequestListing, Keyword: keyword, Token: token}
}

// NewDetailRequest creates a detail request for the given href.
func NewDetailRequest(keyword, href string) Request {
	return Request{Kind: RequestDetail, Keyword: keyword, URL: href}
}

// IsFirstPage reports whether this is the first listing page of a keyword.
func (r Request) IsFirstPage() bool {
	return r.Kind == RequestListing && r.Token == ""
}
