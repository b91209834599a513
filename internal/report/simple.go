package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/playcrawl/internal/model"
)

// SimpleWriter renders the crawl summary as plain text for the terminal.
type SimpleWriter struct {
	baseWriter

	// verbose adds the per-keyword close reasons and request counts.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary.
func (w *SimpleWriter) Write(summary *model.CrawlSummary) (int, error) {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")
	sb.WriteString("CRAWL SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Keywords:       %s\n", strings.Join(summary.Keywords, ", "))
	fmt.Fprintf(&sb, "Result:         %s\n", Title(summary.Reason.String()))
	fmt.Fprintf(&sb, "Items:          %s\n", itemsText(summary))
	fmt.Fprintf(&sb, "Failed:         %d\n", summary.Failed)
	fmt.Fprintf(&sb, "Listing pages:  %d\n", summary.ListingPages)
	if w.verbose {
		fmt.Fprintf(&sb, "Detail fetches: %d\n", summary.DetailRequests)
	}
	fmt.Fprintf(&sb, "Duration:       %s\n", summary.Duration().Round(timeRounding))

	stats := summary.Stats()
	if len(stats) > 1 || w.verbose {
		sb.WriteString(strings.Repeat("-", 60))
		sb.WriteString("\n")
		for _, st := range stats {
			fmt.Fprintf(&sb, "  %-20s items=%d pages=%d links=%d failed=%d",
				st.Keyword, st.Items, st.Pages, st.Links, st.Failed)
			if w.verbose && st.CloseReason != "" {
				fmt.Fprintf(&sb, " (%s)", st.CloseReason)
			}
			sb.WriteString("\n")
		}
	}
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

// itemsText formats the item count with the budget, e.g. "3 / 10".
func itemsText(summary *model.CrawlSummary) string {
	if summary.MaxItem > 0 {
		return fmt.Sprintf("%d / %d", summary.Items, summary.MaxItem)
	}
	return fmt.Sprintf("%d", summary.Items)
}
