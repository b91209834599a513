package transport

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("defaults without proxy", func(t *testing.T) {
		t.Parallel()

		c, err := NewClient()
		require.NoError(t, err)
		assert.Empty(t, c.ProxyAddress())
		assert.Equal(t, DefaultTimeout, c.HTTPClient().Timeout)
		assert.NotNil(t, c.HTTPClient().Jar)
	})

	t.Run("valid proxy addresses", func(t *testing.T) {
		t.Parallel()

		tests := map[string]string{
			"127.0.0.1:9050":               "127.0.0.1:9050",
			"localhost:1080":               "localhost:1080",
			"socks5://127.0.0.1:9050":      "127.0.0.1:9050",
			"user:secret@proxy.local:1080": "proxy.local:1080",
			"[::1]:9050":                   "[::1]:9050",
		}
		for in, want := range tests {
			c, err := NewClient(WithProxy(in))
			require.NoError(t, err, in)
			assert.Equal(t, want, c.ProxyAddress(), in)
		}
	})

	t.Run("invalid proxy addresses", func(t *testing.T) {
		t.Parallel()

		for _, in := range []string{
			"127.0.0.1",
			":9050",
			"127.0.0.1:",
			"127.0.0.1:0",
			"127.0.0.1:65536",
			"127.0.0.1:port",
			":pass@127.0.0.1:9050",
		} {
			_, err := NewClient(WithProxy(in))
			assert.ErrorIs(t, err, ErrInvalidProxyAddress, in)
		}
	})
}

func TestHTTPClient_InjectsHeaders(t *testing.T) {
	t.Parallel()

	got := make(chan http.Header, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c, err := NewClient(
		WithUserAgent("playcrawl-test/1.0"),
		WithHeaders(map[string]string{"X-Trace": "abc"}),
		WithTimeout(5*time.Second),
	)
	require.NoError(t, err)

	resp, err := c.HTTPClient().Get(server.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	h := <-got
	assert.Equal(t, "playcrawl-test/1.0", h.Get("User-Agent"))
	assert.Equal(t, DefaultAcceptLanguage, h.Get("Accept-Language"))
	assert.Equal(t, "abc", h.Get("X-Trace"))
}

func TestHTTPClient_HeadersOverrideDefaults(t *testing.T) {
	t.Parallel()

	got := make(chan http.Header, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Clone()
	}))
	defer server.Close()

	c, err := NewClient(
		WithUserAgent("ua"),
		WithAcceptLanguage("ja"),
		WithHeaders(map[string]string{"Accept-Language": "fr"}),
	)
	require.NoError(t, err)

	resp, err := c.HTTPClient().Get(server.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "fr", (<-got).Get("Accept-Language"))
}

func TestHTTPClient_RedirectCap(t *testing.T) {
	t.Parallel()

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n, _ := strconv.Atoi(r.URL.Query().Get("n"))
		http.Redirect(w, r, server.URL+"/?n="+strconv.Itoa(n+1), http.StatusFound)
	}))
	defer server.Close()

	c, err := NewClient()
	require.NoError(t, err)

	resp, err := c.HTTPClient().Get(server.URL + "/?n=0")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, server.URL+"/?n=10", resp.Header.Get("Location"))
}

// fakeProxy accepts one connection, reads the greeting and answers with reply.
func fakeProxy(t *testing.T, reply []byte) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 3)
		_, _ = conn.Read(buf)
		if reply != nil {
			_, _ = conn.Write(reply)
		}
		time.Sleep(100 * time.Millisecond)
	}()
	return ln.Addr().String()
}

func TestCheckProxy(t *testing.T) {
	t.Parallel()

	t.Run("no proxy configured", func(t *testing.T) {
		t.Parallel()

		c, err := NewClient()
		require.NoError(t, err)
		assert.Equal(t, ProxyStatusOK, c.CheckProxy(context.Background()))
	})

	t.Run("socks5 proxy", func(t *testing.T) {
		t.Parallel()

		c, err := NewClient(WithProxy(fakeProxy(t, []byte{0x05, 0x00})))
		require.NoError(t, err)
		assert.Equal(t, ProxyStatusOK, c.CheckProxy(context.Background()))
	})

	t.Run("socks5 proxy with credentials", func(t *testing.T) {
		t.Parallel()

		c, err := NewClient(WithProxy("u:p@" + fakeProxy(t, []byte{0x05, 0x02})))
		require.NoError(t, err)
		assert.Equal(t, ProxyStatusOK, c.CheckProxy(context.Background()))
	})

	t.Run("not socks5", func(t *testing.T) {
		t.Parallel()

		c, err := NewClient(WithProxy(fakeProxy(t, []byte("HTTP/1.1 400"))))
		require.NoError(t, err)
		status := c.CheckProxy(context.Background())
		assert.Equal(t, ProxyStatusWrongType, status)
		assert.ErrorIs(t, status.Error(), ErrProxyNotSOCKS5)
	})

	t.Run("rejects all methods", func(t *testing.T) {
		t.Parallel()

		c, err := NewClient(WithProxy(fakeProxy(t, []byte{0x05, 0xFF})))
		require.NoError(t, err)
		assert.Equal(t, ProxyStatusWrongType, c.CheckProxy(context.Background()))
	})

	t.Run("nothing listening", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addr := ln.Addr().String()
		require.NoError(t, ln.Close())

		c, err := NewClient(WithProxy(addr))
		require.NoError(t, err)
		assert.Equal(t, ProxyStatusCannotConnect, c.CheckProxy(context.Background()))
	})
}

func TestProxyStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "OK", ProxyStatusOK.String())
	assert.Equal(t, "timeout", ProxyStatusTimeout.String())
	assert.Equal(t, "unknown", ProxyStatus(99).String())
	assert.NoError(t, ProxyStatusOK.Error())
	assert.ErrorIs(t, ProxyStatusCannotConnect.Error(), ErrProxyCannotConnect)
	assert.ErrorIs(t, ProxyStatusTimeout.Error(), ErrProxyTimeout)
}
