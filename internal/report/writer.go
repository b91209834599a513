package report

import (
	"io"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/playcrawl/internal/model"
)

// Writer renders a crawl summary.
type Writer interface {
	// Write outputs the summary and returns the number of bytes written.
	Write(summary *model.CrawlSummary) (int, error)
}

// MultiWriter writes a summary to several Writers in turn.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to every Writer and stops on the first error.
func (m *MultiWriter) Write(summary *model.CrawlSummary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter holds the output destination shared by summary writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// Title returns s in title case, e.g. "budget reached" -> "Budget Reached".
// A Caser keeps state, so one is created per call.
func Title(s string) string {
	return cases.Title(language.English).String(s)
}
