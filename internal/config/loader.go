package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".playcrawl"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the on-disk representation of the .playcrawl configuration file.
// Pointer fields distinguish "not set" from zero values so that an explicit
// max_item: 0 still overrides a previous value.
type File struct {
	Keywords      []string          `yaml:"keywords"`
	MaxItem       *int              `yaml:"max_item"`
	DownloadDelay *int              `yaml:"download_delay"`
	Output        *string           `yaml:"output"`
	Concurrency   *int              `yaml:"concurrency"`
	Timeout       string            `yaml:"timeout"`
	UserAgent     string            `yaml:"user_agent"`
	Proxy         string            `yaml:"proxy"`
	Headers       map[string]string `yaml:"headers"`
	MaxBodySize   *int64            `yaml:"max_body_size"`
	SaveToDB      *bool             `yaml:"save_to_db"`
	DBDir         string            `yaml:"db_dir"`
	Markdown      *bool             `yaml:"markdown"`
}

// LoadConfigFile loads a configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if cf.Headers == nil {
		cf.Headers = make(map[string]string)
	}

	return &cf, nil
}

// ApplyTo copies every value set in the file into cfg.
// Values go through the same parsers as CLI input, so a file with
// max_item: -1 fails exactly like --max-item -1.
func (f *File) ApplyTo(cfg *Config) error {
	if len(f.Keywords) > 0 {
		keywords, err := ParseKeywords(strings.Join(f.Keywords, ","))
		if err != nil {
			return err
		}
		cfg.Keywords = keywords
	}

	if f.MaxItem != nil {
		if *f.MaxItem < 0 {
			return fmt.Errorf("%w: %d", ErrInvalidMaxItem, *f.MaxItem)
		}
		cfg.MaxItem = *f.MaxItem
	}

	if f.DownloadDelay != nil {
		if *f.DownloadDelay < 0 {
			return fmt.Errorf("%w: %d", ErrInvalidDownloadDelay, *f.DownloadDelay)
		}
		cfg.DownloadDelay = time.Duration(*f.DownloadDelay) * time.Second
	}

	if f.Output != nil {
		output, err := ParseOutput(*f.Output)
		if err != nil {
			return err
		}
		cfg.Output = output
	}

	if f.Concurrency != nil {
		if *f.Concurrency <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidConcurrency, *f.Concurrency)
		}
		cfg.Concurrency = *f.Concurrency
	}

	if f.Timeout != "" {
		d, err := time.ParseDuration(f.Timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: %q", ErrInvalidTimeout, f.Timeout)
		}
		cfg.Timeout = d
	}

	if f.UserAgent != "" {
		cfg.UserAgent = f.UserAgent
	}
	if f.Proxy != "" {
		cfg.ProxyAddress = f.Proxy
	}
	for k, v := range f.Headers {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string)
		}
		cfg.Headers[k] = v
	}

	if f.MaxBodySize != nil {
		if *f.MaxBodySize < 0 {
			return fmt.Errorf("%w: %d", ErrInvalidMaxBodySize, *f.MaxBodySize)
		}
		cfg.MaxBodySize = *f.MaxBodySize
	}

	if f.SaveToDB != nil {
		cfg.SaveToDB = *f.SaveToDB
	}
	if f.DBDir != "" {
		cfg.DBDir = f.DBDir
	}
	if f.Markdown != nil {
		cfg.MarkdownSummary = *f.Markdown
	}

	return nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .playcrawl in the current directory
// 3. Look for .playcrawl in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
