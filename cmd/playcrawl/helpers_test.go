package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// executeCmd runs the root command with args and returns stdout and stderr.
func executeCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

// emptyConfig writes an empty configuration file so tests never pick up a
// .playcrawl from the working or home directory.
func emptyConfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("# empty\n"), 0o600))
	return path
}

// storeServer serves a two-page search listing for any keyword and a
// detail page for every app id.
func storeServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/store/search", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.PostForm.Get("pagTok") == "" {
			fmt.Fprint(w, listing("tok:S:2", "com.a", "com.b"))
			return
		}
		fmt.Fprint(w, listing("", "com.c", "com.a"))
	})
	mux.HandleFunc("/store/apps/details", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<html><body><h1 itemprop="name">App %s</h1>`+
			`<meta itemprop="ratingValue" content="4.0"></body></html>`, id)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func listing(token string, ids ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, id := range ids {
		fmt.Fprintf(&b, `<div class="card"><div class="details">`+
			`<a class="card-click-target" tabindex="-1" aria-hidden="true" href="/store/apps/details?id=%s"></a>`+
			`</div></div>`, id)
	}
	if token != "" {
		fmt.Fprintf(&b, `<script>AF_initDataCallback('[[null,\42%s\42]]\n');</script>`, token)
	}
	b.WriteString("</body></html>")
	return b.String()
}

// crawlArgs returns the crawl arguments pointing at server.
func crawlArgs(t *testing.T, server *httptest.Server, extra ...string) []string {
	t.Helper()

	args := []string{
		"crawl",
		"--config", emptyConfig(t),
		"--search-url", server.URL + "/store/search",
		"--detail-url-prefix", server.URL,
	}
	return append(args, extra...)
}
