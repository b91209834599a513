package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nao1215/playcrawl/internal/model"
)

// ItemWriter serializes items one at a time.
type ItemWriter interface {
	// WriteItem writes one item. Implementations flush per item so a
	// crawl stopped midway leaves every accepted item on disk.
	WriteItem(item *model.AppItem) error

	// Close flushes and releases the destination.
	Close() error
}

// ItemFormat is the serialization format of an ItemWriter.
type ItemFormat string

const (
	// FormatCSV writes comma-separated values with a header row.
	FormatCSV ItemFormat = "csv"

	// FormatJSONLines writes one JSON object per line.
	FormatJSONLines ItemFormat = "jsonl"
)

// FormatForPath picks the format from the file extension. .json, .jsonl
// and .ndjson select JSON Lines; anything else is CSV.
func FormatForPath(path string) ItemFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonl", ".ndjson":
		return FormatJSONLines
	default:
		return FormatCSV
	}
}

// NewItemWriterForPath creates the parent directories of path, creates (or
// truncates) the file with 0600 permissions and returns a writer for the
// format matching its extension.
func NewItemWriterForPath(path string) (ItemWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}

	if FormatForPath(path) == FormatJSONLines {
		return NewJSONLinesWriter(f), nil
	}
	return NewCSVWriter(f), nil
}

// CSVWriter writes items as CSV rows in model.ItemFields order.
// The header row is written before the first item.
type CSVWriter struct {
	mu          sync.Mutex
	w           *csv.Writer
	closer      io.Closer
	wroteHeader bool
}

// NewCSVWriter creates a CSVWriter. If output is an io.Closer it is closed
// by Close.
func NewCSVWriter(output io.Writer) *CSVWriter {
	w := &CSVWriter{w: csv.NewWriter(output)}
	if c, ok := output.(io.Closer); ok {
		w.closer = c
	}
	return w
}

// WriteItem writes one row.
func (w *CSVWriter) WriteItem(item *model.AppItem) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.wroteHeader {
		if err := w.w.Write(model.ItemFields); err != nil {
			return err
		}
		w.wroteHeader = true
	}
	if err := w.w.Write(item.Values()); err != nil {
		return err
	}
	w.w.Flush()
	return w.w.Error()
}

// Close writes the header if no item was written, flushes and closes.
func (w *CSVWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error
	if !w.wroteHeader {
		errs = append(errs, w.w.Write(model.ItemFields))
		w.wroteHeader = true
	}
	w.w.Flush()
	errs = append(errs, w.w.Error())
	if w.closer != nil {
		errs = append(errs, w.closer.Close())
		w.closer = nil
	}
	return errors.Join(errs...)
}

// JSONLinesWriter writes each item as one JSON object per line.
type JSONLinesWriter struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
}

// NewJSONLinesWriter creates a JSONLinesWriter. If output is an io.Closer
// it is closed by Close.
func NewJSONLinesWriter(output io.Writer) *JSONLinesWriter {
	enc := json.NewEncoder(output)
	enc.SetEscapeHTML(false)
	w := &JSONLinesWriter{enc: enc}
	if c, ok := output.(io.Closer); ok {
		w.closer = c
	}
	return w
}

// WriteItem writes one line.
func (w *JSONLinesWriter) WriteItem(item *model.AppItem) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(item)
}

// Close closes the destination.
func (w *JSONLinesWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closer == nil {
		return nil
	}
	err := w.closer.Close()
	w.closer = nil
	return err
}
