package form

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-modeladmin/pkg/client"
	"github.com/goliatone/go-modeladmin/pkg/model"
	"github.com/goliatone/go-modeladmin/pkg/notify"
	"github.com/goliatone/go-modeladmin/pkg/render"
)

// RelationStatus tracks the option loading of one relation field.
type RelationStatus string

const (
	RelationPending RelationStatus = "pending"
	RelationReady   RelationStatus = "ready"
	RelationFailed  RelationStatus = "failed"
)

// Choice is one selectable related item.
type Choice struct {
	Value string
	Label string
}

// RelationState is the option set of a relation field.
type RelationState struct {
	Status  RelationStatus
	Options []Choice
	Err     error
}

// OptionSource lists related items. *client.Client satisfies it.
type OptionSource interface {
	ListItems(ctx context.Context, listURL string, params client.ListParams) (model.Page, error)
}

// Relation returns the option state of a relation field.
func (f *Form) Relation(name string) (RelationState, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.relations[name]
	return state, ok
}

// Relations returns a copy of every relation state, keyed by field name.
func (f *Form) Relations() map[string]RelationState {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]RelationState, len(f.relations))
	for k, v := range f.relations {
		out[k] = v
	}
	return out
}

// LoadRelations fetches the options of every relation field that points at
// an endpoint. Each distinct endpoint is requested once. A failed endpoint
// marks only its fields as failed and sends an error notice; the call itself
// returns an error only when ctx ends.
func (f *Form) LoadRelations(ctx context.Context, src OptionSource) error {
	urls, byURL := f.relationEndpoints()
	if len(urls) == 0 {
		return nil
	}
	if err := f.markPending(byURL, nil); err != nil {
		return err
	}
	return f.fetchRelations(ctx, src, urls, byURL)
}

// StartRelations marks relation fields pending and loads their options in
// the background, so other fields can be filled meanwhile. WaitRelations
// blocks until the load ends.
func (f *Form) StartRelations(ctx context.Context, src OptionSource) error {
	urls, byURL := f.relationEndpoints()
	if len(urls) == 0 {
		return nil
	}
	done := make(chan struct{})
	if err := f.markPending(byURL, done); err != nil {
		return err
	}
	go func() {
		err := f.fetchRelations(ctx, src, urls, byURL)
		f.mu.Lock()
		f.loadErr = err
		f.mu.Unlock()
		close(done)
	}()
	return nil
}

// WaitRelations waits for the load begun by StartRelations. It returns at
// once when none is running.
func (f *Form) WaitRelations(ctx context.Context) error {
	f.mu.Lock()
	done := f.loading
	f.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.loadErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Form) relationEndpoints() ([]string, map[string][]model.Field) {
	byURL := make(map[string][]model.Field)
	var urls []string
	for _, field := range f.editableFields() {
		if !field.Widget.IsRelation() || !field.HasEndpoint() {
			continue
		}
		endpoint := field.Related.APIURL
		if _, seen := byURL[endpoint]; !seen {
			urls = append(urls, endpoint)
		}
		byURL[endpoint] = append(byURL[endpoint], field)
	}
	return urls, byURL
}

func (f *Form) markPending(byURL map[string][]model.Field, done chan struct{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	for _, fields := range byURL {
		for _, field := range fields {
			f.relations[field.Name] = RelationState{Status: RelationPending}
		}
	}
	if done != nil {
		f.loading = done
		f.loadErr = nil
	}
	return nil
}

func (f *Form) fetchRelations(ctx context.Context, src OptionSource, urls []string, byURL map[string][]model.Field) error {
	params := client.ListParams{PageSize: f.relationPageSize}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for _, endpoint := range urls {
		fields := byURL[endpoint]
		g.Go(func() error {
			if f.limiter != nil {
				if err := f.limiter.Wait(gctx); err != nil {
					return err
				}
			}
			page, err := src.ListItems(gctx, endpoint, params)
			f.applyRelation(ctx, fields, page, err)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("form: load relations: %w", err)
	}
	return ctx.Err()
}

func (f *Form) applyRelation(ctx context.Context, fields []model.Field, page model.Page, err error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	if err != nil {
		for _, field := range fields {
			f.relations[field.Name] = RelationState{Status: RelationFailed, Options: []Choice{}, Err: err}
		}
		f.mu.Unlock()
		for _, field := range fields {
			f.logger.WarnContext(ctx, "relation options failed", "field", field.Name, "url", field.Related.APIURL, "error", err)
			f.notifier.Notify(ctx, notify.Error(fmt.Sprintf("Could not load options for %s: %v", field.Label, err)))
		}
		return
	}

	options := make([]Choice, 0, len(page.Results))
	for _, item := range page.Results {
		id, ok := item.ID()
		if !ok {
			continue
		}
		options = append(options, Choice{Value: id, Label: render.PlainText(model.DisplayLabel(item))})
	}
	for _, field := range fields {
		f.relations[field.Name] = RelationState{Status: RelationReady, Options: options}
	}
	f.mu.Unlock()
}
