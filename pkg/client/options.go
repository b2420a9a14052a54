package client

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/goliatone/go-modeladmin/pkg/session"
)

// Defaults applied by New.
const (
	DefaultTimeout              = 30 * time.Second
	DefaultRefreshFailureLimit  = 3
	DefaultRefreshFailureWindow = 30 * time.Second
)

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithStore sets the session store. Defaults to a session.MemoryStore.
func WithStore(store session.Store) Option {
	return func(c *Client) {
		if store != nil {
			c.store = store
		}
	}
}

// WithLogger sets the logger used for request debugging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records request and refresh counters.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTracing wraps the transport with OpenTelemetry instrumentation.
func WithTracing() Option {
	return func(c *Client) {
		c.tracing = true
	}
}

// WithRefreshPolicy sets how many refresh failures are tolerated inside
// window before attempts are throttled.
func WithRefreshPolicy(limit int, window time.Duration) Option {
	return func(c *Client) {
		if limit > 0 {
			c.failureLimit = limit
		}
		if window > 0 {
			c.failureWindow = window
		}
	}
}

// WithClock overrides the time source used by the refresh window.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithSessionExpiredHandler registers fn to run whenever a request ends with
// ErrSessionExpired. The CLI uses it to print a sign-in notice.
func WithSessionExpiredHandler(fn func(ctx context.Context, err error)) Option {
	return func(c *Client) {
		if fn != nil {
			c.onExpired = append(c.onExpired, fn)
		}
	}
}

// WithSignOutHook registers fn to run after the session is cleared, either
// by SignOut or by expiry.
func WithSignOutHook(fn func(ctx context.Context)) Option {
	return func(c *Client) {
		if fn != nil {
			c.onSignOut = append(c.onSignOut, fn)
		}
	}
}
