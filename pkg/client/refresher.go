package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-modeladmin/pkg/session"
)

const refreshPath = "/api/token/refresh/"

// refresher coordinates token renewal. Concurrent callers share a single
// in-flight refresh and failures are counted per window.
type refresher struct {
	client *Client
	group  singleflight.Group

	mu          sync.Mutex
	failures    int
	windowStart time.Time
}

func newRefresher(c *Client) *refresher {
	return &refresher{client: c}
}

// token returns an access token to retry with after failed was rejected.
// The refresh itself runs detached from ctx; ctx only bounds how long this
// caller waits for it.
func (r *refresher) token(ctx context.Context, failed string) (string, error) {
	if current, ok := r.superseded(ctx, failed); ok {
		r.client.metrics.observeRefresh(RefreshShared)
		return current, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := r.group.DoChan("refresh", func() (any, error) {
		return r.refresh(detached, failed)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			r.client.metrics.observeRefresh(RefreshShared)
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// superseded reports the stored access token when it already differs from
// the one the server rejected.
func (r *refresher) superseded(ctx context.Context, failed string) (string, bool) {
	sess, err := r.client.store.Load(ctx)
	if err != nil || sess.AccessToken == "" || sess.AccessToken == failed {
		return "", false
	}
	return sess.AccessToken, true
}

func (r *refresher) refresh(ctx context.Context, failed string) (string, error) {
	c := r.client

	// A flight that started after another one finished sees its result here.
	if current, ok := r.superseded(ctx, failed); ok {
		c.metrics.observeRefresh(RefreshShared)
		return current, nil
	}

	sess, err := c.store.Load(ctx)
	if errors.Is(err, session.ErrNoSession) || (err == nil && !sess.CanRefresh()) {
		return "", ErrSessionExpired
	}
	if err != nil {
		return "", fmt.Errorf("client: load session: %w", err)
	}

	if err := r.admit(); err != nil {
		c.metrics.observeRefresh(RefreshThrottled)
		c.logger.WarnContext(ctx, "token refresh throttled", "limit", c.failureLimit, "window", c.failureWindow)
		return "", err
	}

	var tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	resp, err := c.send(ctx, Request{
		Method:    http.MethodPost,
		Path:      refreshPath,
		Body:      JSON(map[string]string{"refresh": sess.RefreshToken}),
		Anonymous: true,
	}, "")
	if err != nil {
		r.fail(ctx, err)
		return "", fmt.Errorf("client: refresh token: %w", err)
	}
	switch {
	case resp.code == http.StatusUnauthorized || resp.code == http.StatusBadRequest:
		apiErr := newAPIError(resp.code, resp.status, resp.body)
		r.fail(ctx, apiErr)
		return "", fmt.Errorf("%w: %v", ErrSessionExpired, apiErr)
	case resp.code < 200 || resp.code > 299:
		apiErr := newAPIError(resp.code, resp.status, resp.body)
		r.fail(ctx, apiErr)
		return "", fmt.Errorf("client: refresh token: %w", apiErr)
	}
	if err := decodeJSON(resp.body, &tokens); err != nil || tokens.Access == "" {
		if err == nil {
			err = errors.New("response carries no access token")
		}
		r.fail(ctx, err)
		return "", fmt.Errorf("client: refresh token: %w", err)
	}

	next := sess.WithAccess(tokens.Access, tokens.Refresh)
	if err := c.store.Save(ctx, next); err != nil {
		return "", fmt.Errorf("client: save refreshed session: %w", err)
	}
	r.reset()
	c.metrics.observeRefresh(RefreshSuccess)
	c.logger.DebugContext(ctx, "token refreshed", "user", next.Username)
	return next.AccessToken, nil
}

// admit rejects the attempt while the failure count for the current window
// has reached the limit. An elapsed window resets the count.
func (r *refresher) admit() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.client.now()
	if r.failures > 0 && now.Sub(r.windowStart) >= r.client.failureWindow {
		r.failures = 0
	}
	if r.failures >= r.client.failureLimit {
		return ErrRefreshThrottled
	}
	return nil
}

func (r *refresher) fail(ctx context.Context, cause error) {
	r.mu.Lock()
	now := r.client.now()
	if r.failures == 0 || now.Sub(r.windowStart) >= r.client.failureWindow {
		r.failures = 0
		r.windowStart = now
	}
	r.failures++
	count := r.failures
	r.mu.Unlock()

	r.client.metrics.observeRefresh(RefreshFailure)
	r.client.logger.WarnContext(ctx, "token refresh failed", "failures", count, "error", cause)
}

func (r *refresher) reset() {
	r.mu.Lock()
	r.failures = 0
	r.mu.Unlock()
}
