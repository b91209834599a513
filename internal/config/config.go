package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultOutput is the file items are written to when no output is given.
	DefaultOutput = "item.csv"

	// DefaultMaxItem of 0 means the item budget is unlimited.
	DefaultMaxItem = 0

	// DefaultDownloadDelay of 0 disables the politeness delay.
	DefaultDownloadDelay = 0 * time.Second

	// DefaultConcurrency is the maximum number of requests in flight at once.
	DefaultConcurrency = 16

	// DefaultTimeout is the per-request timeout, including reading the body.
	DefaultTimeout = 180 * time.Second

	// DefaultUserAgent identifies playcrawl in HTTP requests.
	DefaultUserAgent = "playcrawl/1.0 (+https://github.com/nao1215/playcrawl)"

	// DefaultMaxBodySize limits the response body size read per request.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultSearchURL is the search listing endpoint.
	// The keyword and category are added as query parameters.
	DefaultSearchURL = "https://play.google.com/store/search"

	// DefaultDetailURLPrefix is prepended to collected detail hrefs.
	DefaultDetailURLPrefix = "https://play.google.com"

	// AppName is the application name used for XDG directory paths.
	AppName = "playcrawl"
)

// Config holds all configuration options for a crawl.
// It is populated from the configuration file and CLI flags and passed
// down explicitly; no package keeps configuration in globals.
type Config struct {
	// Keywords are the trimmed search keywords. Each keyword is crawled
	// independently with its own continuation stream and dedup scope.
	Keywords []string

	// MaxItem is the item budget. 0 means unlimited.
	MaxItem int

	// DownloadDelay is the politeness delay between requests.
	DownloadDelay time.Duration

	// Output is the destination path for serialized items.
	// The file extension selects the format (.csv or .jsonl).
	Output string

	// Concurrency is the maximum number of requests in flight.
	Concurrency int

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	// Empty means direct connections.
	ProxyAddress string

	// Headers are extra HTTP headers sent with every request.
	Headers map[string]string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// SearchURL is the listing endpoint. Overridable for testing against
	// a local server.
	SearchURL string

	// DetailURLPrefix is prepended to collected detail hrefs.
	DetailURLPrefix string

	// SaveToDB enables recording the run and its items in the crawl database.
	SaveToDB bool

	// DBDir is the directory holding the SQLite database.
	// Defaults to the XDG data directory.
	DBDir string

	// MarkdownSummary prints the final summary as Markdown instead of text.
	MarkdownSummary bool

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the configuration file to load.
	// Empty means search the default locations.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
// Keywords are left empty; they must always be supplied by the user.
func NewConfig() *Config {
	return &Config{
		MaxItem:         DefaultMaxItem,
		DownloadDelay:   DefaultDownloadDelay,
		Output:          DefaultOutput,
		Concurrency:     DefaultConcurrency,
		Timeout:         DefaultTimeout,
		UserAgent:       DefaultUserAgent,
		MaxBodySize:     DefaultMaxBodySize,
		SearchURL:       DefaultSearchURL,
		DetailURLPrefix: DefaultDetailURLPrefix,
		SaveToDB:        true,
		DBDir:           XDGDataDir(),
		Headers:         make(map[string]string),
	}
}

// XDGDataDir returns the XDG data directory for playcrawl.
// On Linux: ~/.local/share/playcrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for playcrawl.
// On Linux: ~/.config/playcrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found, so a configuration error is reported
// before any request is issued.
func (c *Config) Validate() error {
	if len(c.Keywords) == 0 {
		return ErrNoKeywords
	}

	if c.MaxItem < 0 {
		return ErrInvalidMaxItem
	}

	if c.DownloadDelay < 0 {
		return ErrInvalidDownloadDelay
	}

	if c.Output == "" {
		return ErrInvalidOutput
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}
