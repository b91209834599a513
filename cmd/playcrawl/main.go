// Package main provides the entry point for the playcrawl CLI.
//
// playcrawl crawls Play Store search results for one or more keywords and
// writes every app it finds to a CSV or JSON Lines file.
//
// Usage:
//
//	playcrawl crawl --keywords "cat,dog" --max-item 100
//	playcrawl history
//
// See --help for all available options.
package main

func main() {
	Execute()
}
