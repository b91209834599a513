// Package report writes crawl output.
//
// Item writers serialize produced items as they arrive:
//   - CSVWriter: header row plus one row per item
//   - JSONLinesWriter: one JSON object per line
//
// Summary writers render the outcome of a crawl:
//   - SimpleWriter: plain text for the terminal
//   - MarkdownWriter: tables and a mermaid pie chart
//   - JSONWriter: the summary (or any value) as JSON
//
// Writers of the same kind share an interface so they can be combined
// with MultiWriter.
package report
