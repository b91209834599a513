package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/playcrawl/internal/model"
)

// timeRounding is the precision of durations in summaries.
const timeRounding = time.Millisecond

// JSONWriter renders the crawl summary, or any value, as JSON.
type JSONWriter struct {
	baseWriter

	indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary.
func (w *JSONWriter) Write(summary *model.CrawlSummary) (int, error) {
	return w.WriteValue(summary)
}

// WriteValue marshals v and writes it followed by a newline.
func (w *JSONWriter) WriteValue(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent != "" {
		data, err = json.MarshalIndent(v, "", w.indent)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}
