// internal/canvas/client.go
// Package canvas is a read-only client for the Canvas LMS REST API together
// with the response shaping performed by each tool.
package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mwiater/canvasmcp/internal/logging"
)

const (
	// APIPrefix is prepended to every resource path.
	APIPrefix = "/api/v1/"
	// DefaultMaxConcurrency bounds per-course fan-out when no option overrides it.
	DefaultMaxConcurrency = 4
	// DefaultTimeout mirrors the per-request timeout of the hosted server.
	DefaultTimeout = 30 * time.Second
	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 16 << 20
)

// defaultHTTPClient is shared so connections are pooled across calls; no
// credentials live on it.
var defaultHTTPClient = &http.Client{Timeout: DefaultTimeout}

// Connection is the caller-supplied Canvas endpoint and bearer token. It is
// built for a single tool invocation and never stored.
type Connection struct {
	BaseURL  string
	APIToken string
}

// Validate checks that the connection can be used to build requests.
func (c Connection) Validate() error {
	base := strings.TrimSpace(c.BaseURL)
	if base == "" {
		return invalidArgument("canvas_url is required")
	}
	if strings.TrimSpace(c.APIToken) == "" {
		return invalidArgument("api_token is required")
	}
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalidArgument("canvas_url must be an absolute http(s) URL (got %q)", base)
	}
	return nil
}

// Client issues GET requests against one Canvas instance on behalf of one call.
type Client struct {
	conn           Connection
	base           string
	httpClient     *http.Client
	now            func() time.Time
	maxConcurrency int
	userAgent      string
	debug          bool
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the shared HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithClock overrides the time source used for bucketing and windows.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMaxConcurrency bounds the number of concurrent per-course requests.
func WithMaxConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxConcurrency = n
		}
	}
}

// WithUserAgent sets the User-Agent header sent upstream.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// WithDebug logs every upstream request.
func WithDebug(enabled bool) Option {
	return func(c *Client) { c.debug = enabled }
}

// NewClient validates conn and returns a Client scoped to it.
func NewClient(conn Connection, opts ...Option) (*Client, error) {
	if err := conn.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		conn:           conn,
		base:           strings.TrimRight(strings.TrimSpace(conn.BaseURL), "/"),
		httpClient:     defaultHTTPClient,
		now:            time.Now,
		maxConcurrency: DefaultMaxConcurrency,
		userAgent:      "canvasmcp/dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Now returns the client's current time in UTC.
func (c *Client) Now() time.Time {
	return c.now().UTC()
}

// Get fetches path (relative to the API prefix) and returns the decoded JSON body unchanged.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	endpoint, err := c.endpoint(path, query)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, upstreamError("failed to create request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.conn.APIToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, upstreamError("request to "+path+" cancelled", ctxErr)
		}
		return nil, upstreamError("request to "+path+" failed", stripURL(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, upstreamError("failed to read response from "+path, err)
	}
	if c.debug {
		logging.LogEvent("Canvas GET: path=%s status=%d bytes=%d elapsed=%s", path, resp.StatusCode, len(body), time.Since(start).Round(time.Millisecond))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, path, body)
	}
	if !json.Valid(body) {
		return nil, upstreamError("canvas returned malformed JSON for "+path, nil)
	}
	return json.RawMessage(body), nil
}

// GetInto fetches path and decodes the body into out.
func (c *Client) GetInto(ctx context.Context, path string, query url.Values, out any) error {
	raw, err := c.Get(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return upstreamError(fmt.Sprintf("unexpected response shape for %s", path), err)
	}
	return nil
}

func (c *Client) endpoint(path string, query url.Values) (string, error) {
	p := strings.TrimLeft(strings.TrimSpace(path), "/")
	if p == "" {
		return "", invalidArgument("resource path is required")
	}
	if p == "api/v1" || strings.HasPrefix(p, "api/v1/") {
		return "", invalidArgument("resource path %q must not include the API prefix", path)
	}
	u := c.base + APIPrefix + p
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u, nil
}

// scrubbedError hides the text of a transport failure, which names the
// Canvas host, while keeping the cause matchable with errors.Is.
type scrubbedError struct {
	msg string
	err error
}

func (e *scrubbedError) Error() string { return e.msg }

func (e *scrubbedError) Unwrap() error { return e.err }

// stripURL replaces a transport error with a message that does not mention
// the request URL or the remote address.
func stripURL(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	msg := strings.ToLower(ue.Op) + " request failed"
	var dnsErr *net.DNSError
	var opErr *net.OpError
	switch {
	case ue.Timeout():
		msg += ": timeout"
	case errors.As(ue.Err, &dnsErr):
		msg += ": host lookup failed"
	case errors.As(ue.Err, &opErr):
		msg += ": " + opErr.Op + " failed"
	}
	return &scrubbedError{msg: msg, err: ue.Err}
}
