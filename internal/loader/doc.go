// Package loader turns app detail pages into items.
package loader
