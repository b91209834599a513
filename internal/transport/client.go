package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

const (
	// DefaultTimeout is the request timeout used when none is configured.
	DefaultTimeout = 180 * time.Second

	// DefaultAcceptLanguage pins store pages to English.
	DefaultAcceptLanguage = "en-US,en;q=0.9"

	// maxRedirects is the redirect cap of clients built by NewClient.
	maxRedirects = 10

	// checkProxyTimeout bounds the SOCKS5 greeting done by CheckProxy.
	checkProxyTimeout = 2 * time.Second
)

// SOCKS5 protocol constants
const (
	socks5Version      = 0x05
	socks5AuthNone     = 0x00
	socks5AuthPassword = 0x02
)

// Client builds HTTP clients for crawling.
// When a proxy address is configured every connection goes through a
// SOCKS5 dialer.
type Client struct {
	proxyAddress   string
	proxyAuth      *proxy.Auth
	dialer         proxy.ContextDialer
	timeout        time.Duration
	userAgent      string
	acceptLanguage string
	headers        map[string]string
	logger         *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithUserAgent sets the User-Agent sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithAcceptLanguage sets the Accept-Language sent with every request.
func WithAcceptLanguage(lang string) Option {
	return func(c *Client) {
		c.acceptLanguage = lang
	}
}

// WithHeaders adds extra headers sent with every request.
// They override User-Agent and Accept-Language when they name them.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithProxy routes connections through the SOCKS5 proxy at address
// ("host:port" or "user:pass@host:port"). An empty address disables the proxy.
func WithProxy(address string) Option {
	return func(c *Client) {
		c.proxyAddress = address
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client. It validates the proxy address but does not
// contact the proxy; call CheckProxy for that.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		timeout:        DefaultTimeout,
		acceptLanguage: DefaultAcceptLanguage,
		headers:        make(map[string]string),
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.proxyAddress == "" {
		return c, nil
	}

	hostPort, auth, err := parseProxyAddress(c.proxyAddress)
	if err != nil {
		return nil, err
	}
	d, err := proxy.SOCKS5("tcp", hostPort, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("SOCKS5 dialer for %s does not support contexts", hostPort)
	}
	c.proxyAddress = hostPort
	c.proxyAuth = auth
	c.dialer = cd
	c.logger.Debug("using SOCKS5 proxy", "proxy", hostPort)
	return c, nil
}

// parseProxyAddress splits "user:pass@host:port" into its parts.
func parseProxyAddress(address string) (string, *proxy.Auth, error) {
	address = strings.TrimPrefix(address, "socks5://")

	var auth *proxy.Auth
	if creds, hostPort, ok := strings.Cut(address, "@"); ok {
		user, pass, _ := strings.Cut(creds, ":")
		if user == "" {
			return "", nil, ErrInvalidProxyAddress
		}
		auth = &proxy.Auth{User: user, Password: pass}
		address = hostPort
	}

	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return "", nil, ErrInvalidProxyAddress
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return "", nil, ErrInvalidProxyAddress
	}
	return address, auth, nil
}

// ProxyAddress returns the proxy "host:port", or "" without a proxy.
func (c *Client) ProxyAddress() string {
	return c.proxyAddress
}

// HTTPClient returns a new HTTP client with a cookie jar, a redirect cap
// and the configured headers injected into every request.
func (c *Client) HTTPClient() *http.Client {
	base := http.DefaultTransport.(*http.Transport).Clone()
	if c.dialer != nil {
		base.Proxy = nil
		base.DialContext = c.dialer.DialContext
	}

	headers := make(map[string]string, len(c.headers)+2)
	if c.userAgent != "" {
		headers["User-Agent"] = c.userAgent
	}
	if c.acceptLanguage != "" {
		headers["Accept-Language"] = c.acceptLanguage
	}
	for k, v := range c.headers {
		headers[k] = v
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	return &http.Client{
		Transport: &headerInjectingTransport{base: base, headers: headers},
		Timeout:   c.timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

// CheckProxy verifies that the configured proxy speaks SOCKS5 by performing
// the method negotiation. Without a proxy it returns ProxyStatusOK.
func (c *Client) CheckProxy(ctx context.Context) ProxyStatus {
	if c.proxyAddress == "" {
		return ProxyStatusOK
	}

	ctx, cancel := context.WithTimeout(ctx, checkProxyTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.proxyAddress)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ProxyStatusTimeout
		}
		return ProxyStatusCannotConnect
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		return ProxyStatusCannotConnect
	}

	method := byte(socks5AuthNone)
	if c.proxyAuth != nil {
		method = socks5AuthPassword
	}
	if _, err := conn.Write([]byte{socks5Version, 0x01, method}); err != nil {
		return ProxyStatusCannotConnect
	}

	resp := make([]byte, 2)
	if _, err := io.ReadFull(conn, resp); err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return ProxyStatusTimeout
		}
		return ProxyStatusWrongType
	}
	if resp[0] != socks5Version || resp[1] != method {
		return ProxyStatusWrongType
	}
	return ProxyStatusOK
}

// headerInjectingTransport wraps an http.RoundTripper to inject
// headers into every request.
type headerInjectingTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	for key, value := range t.headers {
		clone.Header.Set(key, value)
	}
	return t.base.RoundTrip(clone)
}
