// Package catalog caches the admin registry and model configurations for the
// current session.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/goliatone/go-modeladmin/pkg/model"
)

// Cache keys. Item lists are keyed per model as ItemsKey(key).
const (
	AdminConfigKey    = "adminConfig"
	modelConfigPrefix = "modelConfig:"
	modelItemsPrefix  = "modelItems:"
)

// DefaultTTL bounds how long metadata is reused.
const DefaultTTL = 5 * time.Minute

// ErrUnknownModel is returned for keys the admin registry does not list.
var ErrUnknownModel = errors.New("catalog: unknown model")

// ItemsKey is the invalidation key of a model's item list.
func ItemsKey(modelKey string) string {
	return modelItemsPrefix + modelKey
}

// ConfigKey is the cache key of a model's configuration.
func ConfigKey(modelKey string) string {
	return modelConfigPrefix + modelKey
}

// Source is the backend surface the catalog reads from. *client.Client
// satisfies it.
type Source interface {
	AdminConfig(ctx context.Context) (model.AdminConfig, error)
	ModelConfig(ctx context.Context, configURL string, opts ...model.ParseOption) (model.ModelConfig, error)
}

// Entry is a resolved model: its registry descriptor and field
// configuration.
type Entry struct {
	Descriptor model.ModelDescriptor
	Config     model.ModelConfig
}

// Option configures the Catalog.
type Option func(*Catalog)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Catalog) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithDecorators applies decorators to every parsed model configuration.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(c *Catalog) {
		c.decorators = append(c.decorators, decorators...)
	}
}

// WithLocales restricts translation fields to the given locale set.
func WithLocales(locales model.LocaleSet) Option {
	return func(c *Catalog) {
		c.locales = locales
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Catalog resolves metadata through a Source and caches the results.
type Catalog struct {
	source     Source
	cache      *gocache.Cache
	ttl        time.Duration
	decorators []model.Decorator
	locales    model.LocaleSet
	logger     *slog.Logger
}

// New creates a catalog backed by src.
func New(src Source, opts ...Option) *Catalog {
	c := &Catalog{
		source: src,
		ttl:    DefaultTTL,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.cache = gocache.New(c.ttl, 2*c.ttl)
	return c
}

// AdminConfig returns the cached admin registry, fetching it when absent.
func (c *Catalog) AdminConfig(ctx context.Context) (model.AdminConfig, error) {
	if cached, ok := c.cache.Get(AdminConfigKey); ok {
		return cached.(model.AdminConfig), nil
	}
	cfg, err := c.source.AdminConfig(ctx)
	if err != nil {
		return model.AdminConfig{}, fmt.Errorf("catalog: load admin config: %w", err)
	}
	c.cache.SetDefault(AdminConfigKey, cfg)
	c.logger.DebugContext(ctx, "admin config cached", "models", len(cfg.Models))
	return cfg, nil
}

// Descriptor looks up a model in the registry.
func (c *Catalog) Descriptor(ctx context.Context, key string) (model.ModelDescriptor, error) {
	cfg, err := c.AdminConfig(ctx)
	if err != nil {
		return model.ModelDescriptor{}, err
	}
	desc, ok := cfg.Model(key)
	if !ok {
		return model.ModelDescriptor{}, fmt.Errorf("%w: %q", ErrUnknownModel, key)
	}
	return desc, nil
}

// Model returns the descriptor and parsed configuration of key.
func (c *Catalog) Model(ctx context.Context, key string) (Entry, error) {
	desc, err := c.Descriptor(ctx, key)
	if err != nil {
		return Entry{}, err
	}
	if cached, ok := c.cache.Get(ConfigKey(key)); ok {
		return Entry{Descriptor: desc, Config: cached.(model.ModelConfig)}, nil
	}
	configURL := desc.ConfigURL
	if configURL == "" {
		configURL = strings.TrimRight(desc.ListURL, "/") + "/config/"
	}
	cfg, err := c.source.ModelConfig(ctx, configURL,
		model.WithDecorators(c.decorators...),
		model.WithLocales(c.locales),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("catalog: load %s config: %w", key, err)
	}
	c.cache.SetDefault(ConfigKey(key), cfg)
	return Entry{Descriptor: desc, Config: cfg}, nil
}

// Invalidate drops cached entries. Item-list keys also drop the admin
// registry, whose per-model counts change with the list.
func (c *Catalog) Invalidate(keys ...string) {
	for _, key := range keys {
		c.cache.Delete(key)
		if strings.HasPrefix(key, modelItemsPrefix) {
			c.cache.Delete(AdminConfigKey)
		}
	}
}

// Flush drops everything. Called on sign-out.
func (c *Catalog) Flush() {
	c.cache.Flush()
}

// Cached reports whether key currently holds a value.
func (c *Catalog) Cached(key string) bool {
	_, ok := c.cache.Get(key)
	return ok
}
