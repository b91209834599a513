package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPage_ComputeHash(t *testing.T) {
	t.Parallel()

	page := &Page{Raw: []byte("Hello, World!")}
	page.ComputeHash()
	assert.Equal(t, "dffd6021bb2bd5b0af676290809ec3a53191dd81c7f70a4b28688a362182986f", page.Hash)

	empty := &Page{Hash: "stale"}
	empty.ComputeHash()
	assert.Empty(t, empty.Hash)
}

func TestPage_GetHeader(t *testing.T) {
	t.Parallel()

	page := &Page{Headers: map[string][]string{
		"Content-Type": {"text/html; charset=utf-8"},
		"Set-Cookie":   {"a=1", "b=2"},
	}}
	assert.Equal(t, "text/html; charset=utf-8", page.GetHeader("Content-Type"))
	assert.Equal(t, "a=1", page.GetHeader("Set-Cookie"))
	assert.Empty(t, page.GetHeader("X-Missing"))
	assert.Empty(t, (&Page{}).GetHeader("Content-Type"))
}

func TestPage_IsHTML(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"":                         true,
		"text/html":                true,
		"text/html; charset=utf-8": true,
		"application/xhtml+xml":    true,
		"application/json":         false,
		"text/plain":               false,
	}
	for contentType, want := range tests {
		assert.Equal(t, want, (&Page{ContentType: contentType}).IsHTML(), contentType)
	}
}
