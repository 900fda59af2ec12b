package httpclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Client opens long-lived streaming GET requests. Dialing and the TLS
// handshake are bounded by the connect timeout; reading the body is not.
type Client struct {
	userAgent  string
	httpClient *http.Client
}

// APIError represents a non-2xx HTTP response.
type APIError struct {
	StatusCode int
	Body       string // first 512 bytes
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the same request may succeed later: server
// errors and 429 Too Many Requests.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// CheckResponse returns nil for a 2xx response. Otherwise it consumes up to
// 512 bytes of the body, closes it, and returns an *APIError.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	resp.Body.Close()
	return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
}

// Option configures Client behavior.
type Option func(*Client)

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithTransport replaces the HTTP transport. Used by tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.httpClient.Transport = rt }
}

// New creates a Client whose connections must be established within connectTimeout.
func New(connectTimeout time.Duration, opts ...Option) *Client {
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: connectTimeout, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout: connectTimeout,
		MaxIdleConns:        4,
		IdleConnTimeout:     90 * time.Second,
	}
	c := &Client{
		userAgent: "jobtray",
		// No Client.Timeout: it would cap the whole stream, not just the connect.
		httpClient: &http.Client{Transport: tr},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stream sends a GET request and returns the response body for incremental
// reading. The caller must close it. Returns *APIError for non-2xx responses.
// Cancelling ctx aborts an in-flight read.
func (c *Client) Stream(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/x-ndjson, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if err := CheckResponse(resp); err != nil {
		return nil, err
	}
	return resp.Body, nil
}
