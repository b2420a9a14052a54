// Package client talks to the Django REST admin backend on behalf of a
// signed-in user.
//
// Every request carries the stored access token. A 401 triggers one token
// refresh shared by all concurrent callers, after which the request is
// retried exactly once; a second 401 clears the session and surfaces
// ErrSessionExpired. Repeated refresh failures inside a sliding window
// throttle further attempts with ErrRefreshThrottled.
//
//	c, err := client.New("http://localhost:8000", client.WithStore(store))
//	if _, err := c.SignIn(ctx, "admin", "secret"); err != nil { ... }
//	cfg, err := c.AdminConfig(ctx)
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/goliatone/go-modeladmin/pkg/session"
)

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	store      session.Store
	logger     *slog.Logger
	metrics    *Metrics
	tracing    bool

	failureLimit  int
	failureWindow time.Duration
	now           func() time.Time

	onExpired []func(context.Context, error)
	onSignOut []func(context.Context)

	refresher *refresher
}

// New creates a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("client: base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:       strings.TrimRight(parsed.String(), "/"),
		httpClient:    &http.Client{},
		timeout:       DefaultTimeout,
		store:         session.NewMemoryStore(),
		logger:        slog.New(slog.DiscardHandler),
		failureLimit:  DefaultRefreshFailureLimit,
		failureWindow: DefaultRefreshFailureWindow,
		now:           time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	hc := *c.httpClient
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	if c.tracing {
		transport := hc.Transport
		if transport == nil {
			transport = http.DefaultTransport
		}
		hc.Transport = otelhttp.NewTransport(transport)
	}
	c.httpClient = &hc
	c.refresher = newRefresher(c)
	return c, nil
}

// BaseURL returns the normalised backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Store returns the session store in use.
func (c *Client) Store() session.Store {
	return c.store
}

// Request describes one backend call.
type Request struct {
	Method string
	// Path is relative to the base URL or an absolute URL whose path and
	// query are reused.
	Path  string
	Query url.Values
	Body  Body
	// Anonymous requests carry no token and never trigger a refresh.
	Anonymous bool
}

// Response is a completed 2xx exchange.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Do sends req, refreshing the token once on 401, and decodes a JSON
// response into out when out is non-nil.
func (c *Client) Do(ctx context.Context, req Request, out any) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	var token string
	if !req.Anonymous {
		sess, err := c.store.Load(ctx)
		switch {
		case err == nil:
			token = sess.AccessToken
		case errors.Is(err, session.ErrNoSession):
		default:
			return nil, fmt.Errorf("client: load session: %w", err)
		}
	}

	resp, err := c.send(ctx, req, token)
	if err != nil {
		return nil, err
	}

	if resp.code == http.StatusUnauthorized && !req.Anonymous {
		fresh, err := c.refresher.token(ctx, token)
		if err != nil {
			if errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrRefreshThrottled) {
				c.expire(ctx, err)
			}
			return nil, err
		}
		resp, err = c.send(ctx, req, fresh)
		if err != nil {
			return nil, err
		}
		if resp.code == http.StatusUnauthorized {
			c.expire(ctx, ErrSessionExpired)
			return nil, ErrSessionExpired
		}
	}

	if resp.code < 200 || resp.code > 299 {
		return nil, newAPIError(resp.code, resp.status, resp.body)
	}

	out2xx := &Response{StatusCode: resp.code, Header: resp.header, Body: resp.body}
	if out == nil || resp.code == http.StatusNoContent || len(bytes.TrimSpace(resp.body)) == 0 {
		return out2xx, nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return out2xx, fmt.Errorf("client: decode %s %s: %w", req.Method, req.Path, err)
	}
	return out2xx, nil
}

type rawResponse struct {
	code   int
	status string
	header http.Header
	body   []byte
}

func (c *Client) send(ctx context.Context, req Request, token string) (*rawResponse, error) {
	target := c.resolve(req.Path, req.Query)

	var (
		body        io.Reader
		contentType string
	)
	if req.Body != nil {
		var err error
		body, contentType, err = req.Body.Encode()
		if err != nil {
			return nil, err
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("client: create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.observeRequest(req.Method, 0, time.Since(started))
		c.logger.DebugContext(ctx, "request failed", "method", req.Method, "url", target, "error", err)
		return nil, &TransportError{Method: req.Method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	elapsed := time.Since(started)
	c.metrics.observeRequest(req.Method, resp.StatusCode, elapsed)
	if err != nil {
		return nil, &TransportError{Method: req.Method, URL: target, Err: fmt.Errorf("read body: %w", err)}
	}
	c.logger.DebugContext(ctx, "request completed",
		"method", req.Method,
		"url", target,
		"status", resp.StatusCode,
		"duration", elapsed,
	)
	return &rawResponse{code: resp.StatusCode, status: resp.Status, header: resp.Header, body: data}, nil
}

// resolve joins path with the base URL. Absolute URLs keep only their path
// and query so links returned by the backend (pagination, api_url) work
// behind a different host name.
func (c *Client) resolve(path string, query url.Values) string {
	rawQuery := ""
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		path, rawQuery = u.Path, u.RawQuery
	} else if before, after, ok := strings.Cut(path, "?"); ok {
		path, rawQuery = before, after
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	values, _ := url.ParseQuery(rawQuery)
	for key, vals := range query {
		values.Del(key)
		for _, v := range vals {
			values.Add(key, v)
		}
	}
	target := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		target += "?" + encoded
	}
	return target
}

func (c *Client) expire(ctx context.Context, cause error) {
	ctx = context.WithoutCancel(ctx)
	if err := c.store.Clear(ctx); err != nil {
		c.logger.WarnContext(ctx, "clear expired session", "error", err)
	}
	c.logger.InfoContext(ctx, "session expired", "cause", cause)
	for _, hook := range c.onSignOut {
		hook(ctx)
	}
	for _, fn := range c.onExpired {
		fn(ctx, cause)
	}
}
