package form

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/goliatone/go-modeladmin/pkg/notify"
)

// Invalidator drops cached data after a successful save. *catalog.Catalog
// satisfies it.
type Invalidator interface {
	Invalidate(keys ...string)
}

// InvalidatorFunc adapts a function into an Invalidator.
type InvalidatorFunc func(keys ...string)

// Invalidate calls the underlying function.
func (fn InvalidatorFunc) Invalidate(keys ...string) {
	fn(keys...)
}

// Navigator moves the user back to a model's list after a save.
type Navigator interface {
	ToList(ctx context.Context, modelKey string)
}

// NavigatorFunc adapts a function into a Navigator.
type NavigatorFunc func(ctx context.Context, modelKey string)

// ToList calls the underlying function.
func (fn NavigatorFunc) ToList(ctx context.Context, modelKey string) {
	fn(ctx, modelKey)
}

// Option configures a Form.
type Option func(*Form)

// WithNotifier sets where success and error notices go.
func WithNotifier(n notify.Notifier) Option {
	return func(f *Form) {
		if n != nil {
			f.notifier = n
		}
	}
}

// WithInvalidator sets the cache invalidated after a save.
func WithInvalidator(inv Invalidator) Option {
	return func(f *Form) {
		f.invalidator = inv
	}
}

// WithNavigator sets the navigation target after a save.
func WithNavigator(nav Navigator) Option {
	return func(f *Form) {
		f.navigator = nav
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithConcurrency bounds how many relation endpoints are fetched at once.
// The default of 1 fetches them one at a time.
func WithConcurrency(n int) Option {
	return func(f *Form) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// WithRateLimiter paces relation fetches.
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(f *Form) {
		f.limiter = limiter
	}
}

// WithRelationPageSize requests page_size when loading relation options.
// Zero leaves the backend default.
func WithRelationPageSize(size int) Option {
	return func(f *Form) {
		if size >= 0 {
			f.relationPageSize = size
		}
	}
}
