// Package listing drives a paginated, deletable list of one model's items.
//
// Loads and deletes may overlap; whichever response resolves last defines
// the state, and each page result is applied together with its page number.
// After Close every late response is dropped.
package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/goliatone/go-modeladmin/pkg/catalog"
	"github.com/goliatone/go-modeladmin/pkg/client"
	"github.com/goliatone/go-modeladmin/pkg/model"
	"github.com/goliatone/go-modeladmin/pkg/notify"
)

// DefaultPageSize is used when no page size is configured.
const DefaultPageSize = 15

// DeletePrompt is the confirmation question asked before deleting.
const DeletePrompt = "Are you sure you want to delete this item?"

// ErrNoConfirmer is returned by Delete when the list has no Confirmer.
var ErrNoConfirmer = errors.New("listing: delete requires a confirmer")

// Source reads and deletes items. *client.Client satisfies it.
type Source interface {
	ListItems(ctx context.Context, listURL string, params client.ListParams) (model.Page, error)
	DeleteItem(ctx context.Context, listURL, id string) error
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// ConfirmerFunc adapts a function into a Confirmer.
type ConfirmerFunc func(ctx context.Context, message string) (bool, error)

// Confirm calls the underlying function.
func (fn ConfirmerFunc) Confirm(ctx context.Context, message string) (bool, error) {
	return fn(ctx, message)
}

// Invalidator drops cached data. *catalog.Catalog satisfies it.
type Invalidator interface {
	Invalidate(keys ...string)
}

// Option configures a List.
type Option func(*List)

// WithPageSize overrides DefaultPageSize.
func WithPageSize(size int) Option {
	return func(l *List) {
		if size > 0 {
			l.pageSize = size
		}
	}
}

// WithNotifier sets where delete and load notices go.
func WithNotifier(n notify.Notifier) Option {
	return func(l *List) {
		if n != nil {
			l.notifier = n
		}
	}
}

// WithConfirmer sets the delete confirmation prompt.
func WithConfirmer(c Confirmer) Option {
	return func(l *List) {
		l.confirmer = c
	}
}

// WithInvalidator receives the admin registry key after a delete so model
// counts are refreshed.
func WithInvalidator(inv Invalidator) Option {
	return func(l *List) {
		l.invalidator = inv
	}
}

// WithSearch filters items with the backend's search_fields.
func WithSearch(query string) Option {
	return func(l *List) {
		l.search = query
	}
}

// WithOrdering sets the DRF ordering argument ("-created_at").
func WithOrdering(ordering string) Option {
	return func(l *List) {
		l.ordering = ordering
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *List) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// List is the state of one model's item list.
type List struct {
	src         Source
	desc        model.ModelDescriptor
	cfg         model.ModelConfig
	pageSize    int
	notifier    notify.Notifier
	confirmer   Confirmer
	invalidator Invalidator
	search      string
	ordering    string
	logger      *slog.Logger

	mu     sync.Mutex
	status Status
	page   int
	total  int
	items  []model.Item
	err    error
	stale  bool
	closed bool
}

// New creates an idle list for the model described by desc.
func New(src Source, desc model.ModelDescriptor, cfg model.ModelConfig, opts ...Option) *List {
	l := &List{
		src:      src,
		desc:     desc,
		cfg:      cfg,
		pageSize: DefaultPageSize,
		notifier: notify.Discard,
		logger:   slog.New(slog.DiscardHandler),
		status:   StatusIdle,
		page:     1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Key returns the model key.
func (l *List) Key() string {
	return l.desc.Key
}

// PageSize returns the configured page size.
func (l *List) PageSize() int {
	return l.pageSize
}

// TotalPages is ceil(total/pageSize), never less than one.
func (l *List) TotalPages() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalPagesLocked()
}

func (l *List) totalPagesLocked() int {
	if l.total <= 0 {
		return 1
	}
	return (l.total + l.pageSize - 1) / l.pageSize
}

// Load fetches the current page.
func (l *List) Load(ctx context.Context) error {
	l.mu.Lock()
	page := l.page
	l.mu.Unlock()
	return l.load(ctx, page)
}

// Retry reloads the current page after an error.
func (l *List) Retry(ctx context.Context) error {
	return l.Load(ctx)
}

// GoTo loads page n. Pages outside [1, TotalPages] are ignored: it reports
// false and neither fetches nor changes state.
func (l *List) GoTo(ctx context.Context, n int) (bool, error) {
	l.mu.Lock()
	outOfRange := n < 1 || n > l.totalPagesLocked()
	l.mu.Unlock()
	if outOfRange {
		return false, nil
	}
	return true, l.load(ctx, n)
}

// Next loads the following page, when there is one.
func (l *List) Next(ctx context.Context) (bool, error) {
	l.mu.Lock()
	n := l.page + 1
	l.mu.Unlock()
	return l.GoTo(ctx, n)
}

// Prev loads the preceding page, when there is one.
func (l *List) Prev(ctx context.Context) (bool, error) {
	l.mu.Lock()
	n := l.page - 1
	l.mu.Unlock()
	return l.GoTo(ctx, n)
}

func (l *List) load(ctx context.Context, page int) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.status = StatusLoading
	l.items = nil
	l.err = nil
	l.mu.Unlock()

	result, err := l.src.ListItems(ctx, l.desc.ListURL, client.ListParams{
		Page:     page,
		PageSize: l.pageSize,
		Search:   l.search,
		Ordering: l.ordering,
	})

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	if err != nil {
		l.status = StatusError
		l.err = err
		l.mu.Unlock()
		l.logger.WarnContext(ctx, "list load failed", "model", l.desc.Key, "page", page, "error", err)
		l.notifier.Notify(ctx, notify.Error(err.Error()))
		return err
	}
	l.page = page
	l.total = result.Count
	l.items = result.Results
	l.stale = false
	if len(l.items) == 0 {
		l.status = StatusEmpty
	} else {
		l.status = StatusReady
	}
	l.mu.Unlock()
	return nil
}

// Delete asks for confirmation and deletes the item. On success the row is
// removed in place and the total decremented without re-fetching. It
// reports whether the item was deleted.
func (l *List) Delete(ctx context.Context, id string) (bool, error) {
	if l.confirmer == nil {
		return false, ErrNoConfirmer
	}
	ok, err := l.confirmer.Confirm(ctx, DeletePrompt)
	if err != nil {
		return false, fmt.Errorf("listing: confirm delete: %w", err)
	}
	if !ok {
		return false, nil
	}

	if err := l.src.DeleteItem(ctx, l.desc.ListURL, id); err != nil {
		if !l.isClosed() {
			l.notifier.Notify(ctx, notify.Error("Failed to delete item: "+err.Error()))
		}
		return false, err
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return true, nil
	}
	kept := l.items[:0:0]
	removed := false
	for _, item := range l.items {
		if itemID, _ := item.ID(); itemID == id && !removed {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	l.items = kept
	if removed && l.total > 0 {
		l.total--
	}
	if len(l.items) == 0 && l.status == StatusReady {
		l.status = StatusEmpty
	}
	l.mu.Unlock()

	l.notifier.Notify(ctx, notify.Success(fmt.Sprintf("Item %s was deleted successfully.", id)))
	if l.invalidator != nil {
		l.invalidator.Invalidate(catalog.AdminConfigKey)
	}
	return true, nil
}

// Invalidate marks the list stale when its item key is among keys. The
// next Load clears the flag.
func (l *List) Invalidate(keys ...string) {
	want := catalog.ItemsKey(l.desc.Key)
	for _, key := range keys {
		if key == want {
			l.mu.Lock()
			l.stale = true
			l.mu.Unlock()
			return
		}
	}
}

// Stale reports whether the list was invalidated since its last load.
func (l *List) Stale() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stale
}

// Close drops every response that arrives afterwards.
func (l *List) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

func (l *List) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Items returns a copy of the loaded items.
func (l *List) Items() []model.Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Item(nil), l.items...)
}

// View returns a presentation snapshot.
func (l *List) View() View {
	l.mu.Lock()
	defer l.mu.Unlock()

	title := l.desc.Name
	if title == "" {
		title = l.desc.Key
	}
	v := View{
		Title:      title,
		Status:     l.status,
		Columns:    columnsFor(l.cfg),
		Page:       l.page,
		TotalPages: l.totalPagesLocked(),
		Total:      l.total,
		Stale:      l.stale,
	}
	switch l.status {
	case StatusIdle, StatusLoading:
		v.Message = LoadingMessage
	case StatusError:
		v.Err = l.err
		v.Message = l.err.Error()
		v.CanRetry = true
	case StatusEmpty:
		v.Message = EmptyMessage
	case StatusReady:
		v.Rows = make([]Row, 0, len(l.items))
		for _, item := range l.items {
			id, _ := item.ID()
			cells := make([]string, len(v.Columns))
			for i, col := range v.Columns {
				cells[i] = Cell(l.cfg, item, col.Key)
			}
			v.Rows = append(v.Rows, Row{ID: id, Cells: cells})
		}
	}
	return v
}
