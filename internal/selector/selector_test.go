package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/playcrawl/internal/model"
)

const listingHTML = `<html><head><title> Search  results </title></head><body>
<div class="card">
  <div class="details">
    <a class="card-click-target" tabindex="-1" aria-hidden="true" href="/store/apps/details?id=com.example.one">One</a>
    <a class="title" href="/store/apps/details?id=com.example.one">  Example
      One </a>
  </div>
</div>
<div class="card">
  <div class="details">
    <a class="card-click-target" tabindex="-1" aria-hidden="true" href="/store/apps/details?id=com.example.two">Two</a>
    <a class="title">   </a>
  </div>
</div>
<a class="card-click-target" tabindex="-1" aria-hidden="true" href="/outside">Outside</a>
</body></html>`

func parseListing(t *testing.T) *Document {
	t.Helper()
	doc, err := Parse(&model.Page{
		URL:         "https://play.google.com/store/search?q=cat&c=apps",
		ContentType: "text/html; charset=utf-8",
		Raw:         []byte(listingHTML),
	})
	require.NoError(t, err)
	return doc
}

func TestCSSSelector_Select(t *testing.T) {
	t.Parallel()

	doc := parseListing(t)
	s := NewCSSSelector()

	t.Run("attribute values in document order", func(t *testing.T) {
		t.Parallel()
		got := s.Select(doc, `div[class="details"] > a[class="card-click-target"][tabindex="-1"][aria-hidden="true"]@href`)
		assert.Equal(t, []string{
			"/store/apps/details?id=com.example.one",
			"/store/apps/details?id=com.example.two",
		}, got)
	})

	t.Run("missing attributes are skipped", func(t *testing.T) {
		t.Parallel()
		got := s.Select(doc, "a.title@href")
		assert.Equal(t, []string{"/store/apps/details?id=com.example.one"}, got)
	})

	t.Run("text is collapsed and empty text skipped", func(t *testing.T) {
		t.Parallel()
		got := s.Select(doc, "a.title")
		assert.Equal(t, []string{"Example One"}, got)
	})

	t.Run("no match returns nil", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, s.Select(doc, "span.none@href"))
	})

	t.Run("invalid selector matches nothing", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, s.Select(doc, "div[[[@href"))
	})

	t.Run("nil document", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, s.Select(nil, "a"))
	})
}

func TestFirst(t *testing.T) {
	t.Parallel()

	doc := parseListing(t)
	s := NewCSSSelector()
	assert.Equal(t, "/store/apps/details?id=com.example.one", First(s, doc, "a@href"))
	assert.Empty(t, First(s, doc, "table"))
}

func TestSplitQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query string
		css   string
		attr  string
	}{
		{"a@href", "a", "href"},
		{" div > a @href ", "div > a", "href"},
		{`a[title="x@y"]`, `a[title="x@y"]`, ""},
		{"h1", "h1", ""},
		{"a@", "a@", ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.query, func(t *testing.T) {
			t.Parallel()
			css, attr := splitQuery(tt.query)
			assert.Equal(t, tt.css, css)
			assert.Equal(t, tt.attr, attr)
		})
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("title", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Search results", parseListing(t).Title())
	})

	t.Run("non-HTML content type is rejected", func(t *testing.T) {
		t.Parallel()
		_, err := Parse(&model.Page{ContentType: "image/png", Raw: []byte{0x89}})
		assert.ErrorIs(t, err, ErrNotHTML)
	})

	t.Run("nil page", func(t *testing.T) {
		t.Parallel()
		_, err := Parse(nil)
		assert.Error(t, err)
	})
}
