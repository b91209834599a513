package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/playcrawl/internal/model"
)

// FileName is the database file created inside the database directory.
const FileName = "playcrawl.db"

// ErrRunNotFound is returned when a crawl run id does not exist.
var ErrRunNotFound = errors.New("crawl run not found")

// CrawlDB stores crawl runs and the items they produced.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

func (cdb *CrawlDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		keywords TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		max_item INTEGER NOT NULL DEFAULT 0,
		items INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		listing_pages INTEGER NOT NULL DEFAULT 0,
		detail_requests INTEGER NOT NULL DEFAULT 0,
		reason TEXT NOT NULL DEFAULT '',
		keyword_stats TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON crawl_runs(started_at);

	CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES crawl_runs(id),
		app_id TEXT,
		url TEXT NOT NULL,
		name TEXT NOT NULL,
		developer TEXT,
		genre TEXT,
		price TEXT,
		rating TEXT,
		rating_count TEXT,
		description TEXT,
		updated TEXT,
		installs TEXT,
		version TEXT,
		operating_system TEXT,
		content_rating TEXT,
		file_size TEXT,
		keyword TEXT,
		fingerprint TEXT,
		scraped_at TEXT,
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_items_run ON items(run_id);
	CREATE INDEX IF NOT EXISTS idx_items_app ON items(app_id);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// Run is a stored crawl run.
type Run struct {
	ID             int64                          `json:"id"`
	Keywords       []string                       `json:"keywords"`
	StartedAt      time.Time                      `json:"started_at"`
	FinishedAt     time.Time                      `json:"finished_at"`
	MaxItem        int                            `json:"max_item"`
	Items          int                            `json:"items"`
	Failed         int                            `json:"failed"`
	ListingPages   int                            `json:"listing_pages"`
	DetailRequests int                            `json:"detail_requests"`
	Reason         model.TerminationReason        `json:"reason"`
	KeywordStats   map[string]*model.KeywordStats `json:"keyword_stats,omitempty"`
}

// Finished reports whether the run recorded a termination reason.
func (r *Run) Finished() bool {
	return r.Reason != ""
}

// Summary converts the run back into a crawl summary.
func (r *Run) Summary() *model.CrawlSummary {
	s := &model.CrawlSummary{
		Keywords:       append([]string(nil), r.Keywords...),
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		MaxItem:        r.MaxItem,
		Items:          r.Items,
		Failed:         r.Failed,
		ListingPages:   r.ListingPages,
		DetailRequests: r.DetailRequests,
		Reason:         r.Reason,
		KeywordStats:   r.KeywordStats,
	}
	if s.KeywordStats == nil {
		s.KeywordStats = make(map[string]*model.KeywordStats)
	}
	return s
}

// CreateRun records the start of a crawl and returns the new run id.
func (cdb *CrawlDB) CreateRun(ctx context.Context, keywords []string, maxItem int, startedAt time.Time) (int64, error) {
	keywordsJSON, err := json.Marshal(keywords)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize keywords: %w", err)
	}

	result, err := cdb.db.ExecContext(ctx,
		`INSERT INTO crawl_runs (keywords, started_at, max_item) VALUES (?, ?, ?)`,
		string(keywordsJSON),
		formatTimestamp(startedAt),
		maxItem,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create crawl run: %w", err)
	}
	return result.LastInsertId()
}

// FinishRun stores the final summary of a crawl run.
func (cdb *CrawlDB) FinishRun(ctx context.Context, id int64, summary *model.CrawlSummary) error {
	statsJSON, err := json.Marshal(summary.KeywordStats)
	if err != nil {
		return fmt.Errorf("failed to serialize keyword stats: %w", err)
	}

	query := `
	UPDATE crawl_runs SET
		finished_at = ?,
		items = ?,
		failed = ?,
		listing_pages = ?,
		detail_requests = ?,
		reason = ?,
		keyword_stats = ?
	WHERE id = ?
	`

	result, err := cdb.db.ExecContext(ctx, query,
		formatTimestamp(summary.FinishedAt),
		summary.Items,
		summary.Failed,
		summary.ListingPages,
		summary.DetailRequests,
		string(summary.Reason),
		string(statsJSON),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish crawl run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish crawl run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	return nil
}

// SaveItem inserts or updates an item of a run.
// Uses UPSERT so the same URL is stored once per run.
func (cdb *CrawlDB) SaveItem(ctx context.Context, runID int64, item *model.AppItem) error {
	query := `
	INSERT INTO items (
		run_id, app_id, url, name, developer, genre, price, rating, rating_count,
		description, updated, installs, version, operating_system, content_rating,
		file_size, keyword, fingerprint, scraped_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, url) DO UPDATE SET
		app_id = excluded.app_id,
		name = excluded.name,
		developer = excluded.developer,
		genre = excluded.genre,
		price = excluded.price,
		rating = excluded.rating,
		rating_count = excluded.rating_count,
		description = excluded.description,
		updated = excluded.updated,
		installs = excluded.installs,
		version = excluded.version,
		operating_system = excluded.operating_system,
		content_rating = excluded.content_rating,
		file_size = excluded.file_size,
		keyword = excluded.keyword,
		fingerprint = excluded.fingerprint,
		scraped_at = excluded.scraped_at
	`

	_, err := cdb.db.ExecContext(ctx, query,
		runID,
		item.AppID,
		item.URL,
		item.Name,
		item.Developer,
		item.Genre,
		item.Price,
		item.Rating,
		item.RatingCount,
		item.Description,
		item.Updated,
		item.Installs,
		item.Version,
		item.OperatingSystem,
		item.ContentRating,
		item.FileSize,
		item.Keyword,
		item.Fingerprint,
		formatTimestamp(item.ScrapedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}
	return nil
}

const runColumns = `id, keywords, started_at, finished_at, max_item, items, failed,
	listing_pages, detail_requests, reason, keyword_stats`

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run          Run
		keywordsJSON string
		startedAt    string
		finishedAt   sql.NullString
		reason       string
		statsJSON    sql.NullString
	)
	if err := row.Scan(
		&run.ID,
		&keywordsJSON,
		&startedAt,
		&finishedAt,
		&run.MaxItem,
		&run.Items,
		&run.Failed,
		&run.ListingPages,
		&run.DetailRequests,
		&reason,
		&statsJSON,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(keywordsJSON), &run.Keywords); err != nil {
		return nil, fmt.Errorf("failed to parse keywords: %w", err)
	}
	run.StartedAt = parseTimestamp(startedAt)
	if finishedAt.Valid {
		run.FinishedAt = parseTimestamp(finishedAt.String)
	}
	run.Reason = model.TerminationReason(reason)
	if statsJSON.Valid && statsJSON.String != "" && statsJSON.String != "null" {
		if err := json.Unmarshal([]byte(statsJSON.String), &run.KeywordStats); err != nil {
			return nil, fmt.Errorf("failed to parse keyword stats: %w", err)
		}
	}
	return &run, nil
}

// GetRun retrieves a crawl run by id.
func (cdb *CrawlDB) GetRun(ctx context.Context, id int64) (*Run, error) {
	row := cdb.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM crawl_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A limit <= 0 returns all runs.
func (cdb *CrawlDB) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM crawl_runs ORDER BY id DESC`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list crawl runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan crawl run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListItems returns the items of a run in insertion order.
func (cdb *CrawlDB) ListItems(ctx context.Context, runID int64) ([]*model.AppItem, error) {
	query := `
	SELECT ` + strings.Join(model.ItemFields, ", ") + `
	FROM items
	WHERE run_id = ?
	ORDER BY id
	`

	rows, err := cdb.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := make([]*model.AppItem, 0)
	for rows.Next() {
		var (
			item      model.AppItem
			scrapedAt sql.NullString
		)
		if err := rows.Scan(
			&item.AppID,
			&item.URL,
			&item.Name,
			&item.Developer,
			&item.Genre,
			&item.Price,
			&item.Rating,
			&item.RatingCount,
			&item.Description,
			&item.Updated,
			&item.Installs,
			&item.Version,
			&item.OperatingSystem,
			&item.ContentRating,
			&item.FileSize,
			&item.Keyword,
			&item.Fingerprint,
			&scrapedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		if scrapedAt.Valid {
			item.ScrapedAt = parseTimestamp(scrapedAt.String)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

// CountItems returns the number of items stored for a run.
func (cdb *CrawlDB) CountItems(ctx context.Context, runID int64) (int, error) {
	var count int
	err := cdb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE run_id = ?`, runID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

// formatTimestamp stores times as UTC RFC3339 text. Zero times are stored as NULL.
func formatTimestamp(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// More specific formats come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses s with each of timestampFormats and returns the
// zero time if none match.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
