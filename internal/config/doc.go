// Package config provides configuration structures and utilities for playcrawl.
// It defines the crawl options (keywords, item budget, politeness delay,
// output destination), their parsing and validation, and the optional YAML
// configuration file.
package config
