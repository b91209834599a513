// Package log provides the slog handler used by playcrawl.
//
// SecureHandler wraps any slog.Handler and masks attribute values that look
// like credentials before they reach the output:
//   - HTTP headers (Authorization, Cookie, Set-Cookie, Proxy-Authorization)
//   - keys containing words such as password, secret or auth
//   - values that look like bearer/basic credentials or JWTs
//   - user:password pairs embedded in proxy URLs
//
// Crawl bookkeeping keys such as page_token (the listing continuation
// token) are not credentials and are logged verbatim.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("listing fetched", "keyword", "cat", "page_token", tok)
package log
