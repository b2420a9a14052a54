package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/goliatone/go-modeladmin/pkg/catalog"
	"github.com/goliatone/go-modeladmin/pkg/form"
	"github.com/goliatone/go-modeladmin/pkg/listing"
	"github.com/goliatone/go-modeladmin/pkg/model"
	"github.com/goliatone/go-modeladmin/pkg/notify"
	"github.com/goliatone/go-modeladmin/pkg/widgets"
)

// ErrNotPermitted is returned when the backend's permissions forbid the
// requested action on a model.
var ErrNotPermitted = errors.New("orchestrator: action not permitted")

// Backend is everything the orchestrator needs from the API. *client.Client
// satisfies it.
type Backend interface {
	catalog.Source
	listing.Source
	form.ItemWriter
	GetItem(ctx context.Context, listURL, id string) (model.Item, error)
}

// Option customises the Orchestrator.
type Option func(*Orchestrator)

// WithCatalog injects a catalog instead of building one over the backend.
// Decorator, locale and TTL options are then ignored.
func WithCatalog(c *catalog.Catalog) Option {
	return func(o *Orchestrator) {
		o.catalog = c
	}
}

// WithCacheTTL sets the metadata cache lifetime.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *Orchestrator) {
		o.cacheTTL = ttl
	}
}

// WithLocales restricts translation fields to the given locales.
func WithLocales(locales model.LocaleSet) Option {
	return func(o *Orchestrator) {
		o.locales = locales
	}
}

// WithDecorators registers decorators that run on every parsed model
// configuration, after presets and relation overrides and before the widget
// registry.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(o *Orchestrator) {
		o.decorators = append(o.decorators, decorators...)
	}
}

// WithWidgetRegistry replaces the built-in widget registry.
func WithWidgetRegistry(registry *widgets.Registry) Option {
	return func(o *Orchestrator) {
		if registry != nil {
			o.widgets = registry
		}
	}
}

// WithPreset applies local overrides to model configurations.
func WithPreset(p *Preset) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.presets = append(o.presets, p)
		}
	}
}

// WithRelationOverrides registers related endpoints for fields whose metadata
// has none. Invalid overrides make New fail.
func WithRelationOverrides(overrides ...RelationOverride) Option {
	return func(o *Orchestrator) {
		for _, override := range overrides {
			if err := validateRelationOverride(override); err != nil {
				o.initErr = errors.Join(o.initErr, err)
				continue
			}
			o.overrides[override.Model] = append(o.overrides[override.Model], override)
		}
	}
}

// WithNotifier routes form and list notices.
func WithNotifier(n notify.Notifier) Option {
	return func(o *Orchestrator) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithConfirmer asks before list deletes.
func WithConfirmer(c listing.Confirmer) Option {
	return func(o *Orchestrator) {
		o.confirmer = c
	}
}

// WithNavigator is told to show a model's list after a successful submit.
func WithNavigator(n form.Navigator) Option {
	return func(o *Orchestrator) {
		o.navigator = n
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPageSize sets the list page size.
func WithPageSize(size int) Option {
	return func(o *Orchestrator) {
		o.pageSize = size
	}
}

// WithRelationLoading bounds relation option fetches: at most concurrency
// endpoints in flight, paced by limiter when non-nil.
func WithRelationLoading(concurrency int, limiter *rate.Limiter) Option {
	return func(o *Orchestrator) {
		o.concurrency = concurrency
		o.limiter = limiter
	}
}

// WithBackgroundRelations makes CreateForm and EditForm return before
// relation options arrive. Relation fields stay pending until the load
// ends; form.WaitRelations blocks for it.
func WithBackgroundRelations() Option {
	return func(o *Orchestrator) {
		o.background = true
	}
}

// Orchestrator resolves models by key and opens forms and lists on them.
type Orchestrator struct {
	backend     Backend
	catalog     *catalog.Catalog
	cacheTTL    time.Duration
	locales     model.LocaleSet
	decorators  []model.Decorator
	presets     []*Preset
	overrides   relationOverrides
	widgets     *widgets.Registry
	notifier    notify.Notifier
	confirmer   listing.Confirmer
	navigator   form.Navigator
	logger      *slog.Logger
	pageSize    int
	concurrency int
	limiter     *rate.Limiter
	background  bool
	initErr     error

	mu    sync.Mutex
	lists map[*listing.List]struct{}
}

// New builds an orchestrator over backend.
func New(backend Backend, options ...Option) (*Orchestrator, error) {
	if backend == nil {
		return nil, errors.New("orchestrator: backend is required")
	}
	o := &Orchestrator{
		backend:   backend,
		overrides: make(relationOverrides),
		notifier:  notify.Discard,
		logger:    slog.New(slog.DiscardHandler),
		pageSize:  listing.DefaultPageSize,
		lists:     make(map[*listing.List]struct{}),
	}
	for _, opt := range options {
		if opt != nil {
			opt(o)
		}
	}
	if o.initErr != nil {
		return nil, o.initErr
	}
	if o.widgets == nil {
		o.widgets = widgets.NewRegistry()
	}
	if o.catalog == nil {
		o.catalog = catalog.New(backend,
			catalog.WithTTL(o.cacheTTL),
			catalog.WithLocales(o.locales),
			catalog.WithDecorators(o.modelDecorators()...),
			catalog.WithLogger(o.logger),
		)
	}
	return o, nil
}

// modelDecorators orders decorators so local overrides are in place before
// widgets are resolved.
func (o *Orchestrator) modelDecorators() []model.Decorator {
	out := make([]model.Decorator, 0, len(o.presets)+len(o.decorators)+2)
	if len(o.overrides) > 0 {
		out = append(out, o.overrides)
	}
	for _, p := range o.presets {
		out = append(out, p)
	}
	out = append(out, o.decorators...)
	return append(out, o.widgets)
}

// Catalog returns the metadata cache.
func (o *Orchestrator) Catalog() *catalog.Catalog {
	return o.catalog
}

// Models returns the registry sorted by key.
func (o *Orchestrator) Models(ctx context.Context) ([]model.ModelDescriptor, error) {
	cfg, err := o.catalog.AdminConfig(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.ModelDescriptor, 0, len(cfg.Models))
	for _, key := range cfg.Keys() {
		desc, _ := cfg.Model(key)
		out = append(out, desc)
	}
	return out, nil
}

// Model resolves the descriptor and configuration of key.
func (o *Orchestrator) Model(ctx context.Context, key string) (catalog.Entry, error) {
	return o.catalog.Model(ctx, key)
}

// CreateForm opens an empty form for key and loads its relation options.
func (o *Orchestrator) CreateForm(ctx context.Context, key string) (*form.Form, error) {
	entry, err := o.catalog.Model(ctx, key)
	if err != nil {
		return nil, err
	}
	if !entry.Config.Permissions.Add {
		return nil, fmt.Errorf("%w: add %s", ErrNotPermitted, key)
	}
	return o.openForm(ctx, entry, nil)
}

// EditForm fetches item id of key and opens a form pre-filled with it.
func (o *Orchestrator) EditForm(ctx context.Context, key, id string) (*form.Form, error) {
	entry, err := o.catalog.Model(ctx, key)
	if err != nil {
		return nil, err
	}
	if !entry.Config.Permissions.Change {
		return nil, fmt.Errorf("%w: change %s", ErrNotPermitted, key)
	}
	item, err := o.backend.GetItem(ctx, entry.Descriptor.ListURL, id)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: load %s %s: %w", key, id, err)
	}
	return o.openForm(ctx, entry, item)
}

func (o *Orchestrator) openForm(ctx context.Context, entry catalog.Entry, item model.Item) (*form.Form, error) {
	f, err := form.New(entry.Descriptor.Key, entry.Descriptor.ListURL, entry.Config, item,
		form.WithNotifier(o.notifier),
		form.WithInvalidator(form.InvalidatorFunc(o.Invalidate)),
		form.WithNavigator(o.navigator),
		form.WithLogger(o.logger),
		form.WithConcurrency(o.concurrency),
		form.WithRateLimiter(o.limiter),
	)
	if err != nil {
		return nil, err
	}
	if o.background {
		// The load outlives this call; Close discards its results.
		if err := f.StartRelations(context.WithoutCancel(ctx), o.backend); err != nil {
			return nil, err
		}
		return f, nil
	}
	if err := f.LoadRelations(ctx, o.backend); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// List opens the item list of key and loads its first page. A failed load
// still returns the list, in its error state, alongside the error.
func (o *Orchestrator) List(ctx context.Context, key string, opts ...listing.Option) (*listing.List, error) {
	entry, err := o.catalog.Model(ctx, key)
	if err != nil {
		return nil, err
	}
	if !entry.Config.Permissions.View {
		return nil, fmt.Errorf("%w: view %s", ErrNotPermitted, key)
	}
	base := []listing.Option{
		listing.WithPageSize(o.pageSize),
		listing.WithNotifier(o.notifier),
		listing.WithInvalidator(o),
		listing.WithLogger(o.logger),
	}
	if len(entry.Config.Admin.Ordering) > 0 {
		base = append(base, listing.WithOrdering(entry.Config.Admin.Ordering[0]))
	}
	if o.confirmer != nil && entry.Config.Permissions.Delete {
		base = append(base, listing.WithConfirmer(o.confirmer))
	}
	l := listing.New(o.backend, entry.Descriptor, entry.Config, append(base, opts...)...)

	o.mu.Lock()
	o.lists[l] = struct{}{}
	o.mu.Unlock()

	return l, l.Load(ctx)
}

// Release closes a list and stops forwarding invalidations to it.
func (o *Orchestrator) Release(l *listing.List) {
	if l == nil {
		return
	}
	l.Close()
	o.mu.Lock()
	delete(o.lists, l)
	o.mu.Unlock()
}

// Invalidate drops keys from the catalog and marks affected open lists
// stale.
func (o *Orchestrator) Invalidate(keys ...string) {
	o.catalog.Invalidate(keys...)
	o.mu.Lock()
	lists := make([]*listing.List, 0, len(o.lists))
	for l := range o.lists {
		lists = append(lists, l)
	}
	o.mu.Unlock()
	for _, l := range lists {
		l.Invalidate(keys...)
	}
	o.logger.Debug("cache invalidated", "keys", keys)
}

// Reset flushes cached metadata and closes every open list. Wire it to the
// client's sign-out hook.
func (o *Orchestrator) Reset(context.Context) {
	o.catalog.Flush()
	o.mu.Lock()
	lists := o.lists
	o.lists = make(map[*listing.List]struct{})
	o.mu.Unlock()
	for l := range lists {
		l.Close()
	}
}
