package pipeline

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/nao1215/playcrawl/internal/model"
	"github.com/nao1215/playcrawl/internal/report"
)

// ValidateStep drops items without a name or URL.
type ValidateStep struct{}

// NewValidateStep creates a ValidateStep.
func NewValidateStep() *ValidateStep {
	return &ValidateStep{}
}

// Name returns the step name.
func (s *ValidateStep) Name() string {
	return "validate"
}

// Do checks the required fields.
func (s *ValidateStep) Do(_ context.Context, item *model.AppItem) error {
	if strings.TrimSpace(item.URL) == "" {
		return fmt.Errorf("%w: missing url", ErrDropItem)
	}
	if strings.TrimSpace(item.Name) == "" {
		return fmt.Errorf("%w: missing name (%s)", ErrDropItem, item.URL)
	}
	return nil
}

// FingerprintStep stamps items with a content fingerprint and scrape time.
type FingerprintStep struct {
	now func() time.Time
}

// NewFingerprintStep creates a FingerprintStep.
func NewFingerprintStep() *FingerprintStep {
	return &FingerprintStep{now: time.Now}
}

// Name returns the step name.
func (s *FingerprintStep) Name() string {
	return "fingerprint"
}

// Do sets Fingerprint and ScrapedAt.
func (s *FingerprintStep) Do(_ context.Context, item *model.AppItem) error {
	item.Fingerprint = Fingerprint(item)
	item.ScrapedAt = s.now().UTC()
	return nil
}

// Fingerprint returns the hex SHA3-256 digest of the item's URL and name.
func Fingerprint(item *model.AppItem) string {
	sum := sha3.Sum256([]byte(item.URL + "\x00" + item.Name))
	return hex.EncodeToString(sum[:])
}

// ExportStep writes items to an item writer.
type ExportStep struct {
	mu     sync.Mutex
	writer report.ItemWriter
}

// NewExportStep creates an ExportStep writing to w.
func NewExportStep(w report.ItemWriter) *ExportStep {
	return &ExportStep{writer: w}
}

// Name returns the step name.
func (s *ExportStep) Name() string {
	return "export"
}

// Do writes the item.
func (s *ExportStep) Do(_ context.Context, item *model.AppItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writer.WriteItem(item)
}

// Close closes the underlying writer.
func (s *ExportStep) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writer.Close()
}

// ItemStore persists items of a crawl run.
type ItemStore interface {
	SaveItem(ctx context.Context, runID int64, item *model.AppItem) error
}

// StoreStep saves items into the crawl database.
// Storage failures are logged and never reject the item.
type StoreStep struct {
	store  ItemStore
	runID  int64
	logger *slog.Logger
}

// NewStoreStep creates a StoreStep saving items under runID.
func NewStoreStep(store ItemStore, runID int64, logger *slog.Logger) *StoreStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreStep{store: store, runID: runID, logger: logger}
}

// Name returns the step name.
func (s *StoreStep) Name() string {
	return "store"
}

// Do saves the item.
func (s *StoreStep) Do(ctx context.Context, item *model.AppItem) error {
	if err := s.store.SaveItem(ctx, s.runID, item); err != nil {
		s.logger.Warn("failed to store item", "run_id", s.runID, "url", item.URL, "error", err)
	}
	return nil
}
