package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and the Parse functions.
// Parse functions wrap them with the offending value, so callers can use
// errors.Is() while users still see which parameter failed.
var (
	// ErrNoKeywords is returned when no search keyword is given.
	// At least one non-blank keyword is required to start a crawl.
	ErrNoKeywords = errors.New(`"keywords" parameter is required`)

	// ErrInvalidMaxItem is returned when max_item is not a non-negative integer.
	ErrInvalidMaxItem = errors.New(`"max_item" parameter is invalid`)

	// ErrInvalidDownloadDelay is returned when download_delay is not a
	// non-negative integer number of seconds.
	ErrInvalidDownloadDelay = errors.New(`"download_delay" parameter is invalid`)

	// ErrInvalidOutput is returned when the output path is empty or blank.
	ErrInvalidOutput = errors.New(`"output" parameter is invalid`)

	// ErrInvalidConcurrency is returned when concurrency is not positive.
	// Zero concurrent requests would never make progress.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to apply the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)
