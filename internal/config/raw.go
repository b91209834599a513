package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Raw holds the four core crawl options exactly as the user typed them.
// Nil fields mean "not given" and leave the current value untouched; a
// given empty string is parsed (and rejected) like any other value.
type Raw struct {
	Keywords      *string
	MaxItem       *string
	DownloadDelay *string
	Output        *string
}

// Apply parses the raw values and stores them into cfg.
// The first invalid parameter is returned as an error naming the parameter
// and the rejected value; cfg may be partially updated in that case.
func (r Raw) Apply(cfg *Config) error {
	if r.Keywords != nil {
		keywords, err := ParseKeywords(*r.Keywords)
		if err != nil {
			return err
		}
		cfg.Keywords = keywords
	}

	if r.MaxItem != nil {
		maxItem, err := ParseMaxItem(*r.MaxItem)
		if err != nil {
			return err
		}
		cfg.MaxItem = maxItem
	}

	if r.DownloadDelay != nil {
		delay, err := ParseDownloadDelay(*r.DownloadDelay)
		if err != nil {
			return err
		}
		cfg.DownloadDelay = delay
	}

	if r.Output != nil {
		output, err := ParseOutput(*r.Output)
		if err != nil {
			return err
		}
		cfg.Output = output
	}

	return nil
}

// ParseKeywords splits a comma-separated keyword list.
// Each keyword is trimmed, blank entries are dropped and repeated keywords
// are collapsed to their first occurrence. An empty result is ErrNoKeywords.
func ParseKeywords(s string) ([]string, error) {
	parts := strings.Split(s, ",")
	keywords := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, part := range parts {
		kw := strings.TrimSpace(part)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		keywords = append(keywords, kw)
	}

	if len(keywords) == 0 {
		return nil, ErrNoKeywords
	}
	return keywords, nil
}

// ParseMaxItem parses the item budget. It must be a non-negative integer.
func ParseMaxItem(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMaxItem, s)
	}
	return n, nil
}

// ParseDownloadDelay parses the politeness delay, a non-negative integer
// number of seconds.
func ParseDownloadDelay(s string) (time.Duration, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDownloadDelay, s)
	}
	return time.Duration(n) * time.Second, nil
}

// ParseOutput trims the output path. A blank path is rejected.
func ParseOutput(s string) (string, error) {
	output := strings.TrimSpace(s)
	if output == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidOutput, s)
	}
	return output, nil
}

// Parse applies the raw values on top of the defaults and validates the
// result.
func (r Raw) Parse() (*Config, error) {
	cfg := NewConfig()
	if err := r.Apply(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
