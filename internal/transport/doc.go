// Package transport builds the HTTP clients used by the crawler.
//
// Clients carry a request timeout, a cookie jar and a redirect cap, and
// inject the configured User-Agent, Accept-Language and extra headers into
// every request, redirects included. An optional SOCKS5 proxy is supported
// through golang.org/x/net/proxy.
package transport
