// Package database provides SQLite-based crawl history for playcrawl.
//
// Each crawl is stored as a row in crawl_runs with its final summary, and
// every accepted item is stored in items keyed by (run_id, url).
//
// The database uses modernc.org/sqlite, so it needs no cgo and lives in a
// single file under the XDG data directory.
package database
