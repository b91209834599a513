// Package selector parses HTML pages and answers CSS queries against them.
//
// Queries are CSS selectors optionally suffixed with "@attr":
//
//	div.details > a.title@href   // attribute values of the matches
//	h1[itemprop="name"]          // trimmed text of the matches
//
// Results are always in document order.
package selector
