// Package modeladmin is the top-level entry point: it builds an
// authenticated client, an orchestrator over it and the standard list
// renderers.
package modeladmin

import (
	"context"
	"fmt"

	"github.com/goliatone/go-modeladmin/pkg/client"
	"github.com/goliatone/go-modeladmin/pkg/listing"
	"github.com/goliatone/go-modeladmin/pkg/orchestrator"
	"github.com/goliatone/go-modeladmin/pkg/render"
	"github.com/goliatone/go-modeladmin/pkg/renderers/export"
	"github.com/goliatone/go-modeladmin/pkg/renderers/table"
)

// RelationOverride supplies missing related endpoints; alias exported via the
// root package for convenience.
type RelationOverride = orchestrator.RelationOverride

// RenderOptions tunes list renderers.
type RenderOptions = render.RenderOptions

// Admin bundles the client and the orchestrator built on top of it.
type Admin struct {
	Client       *client.Client
	Orchestrator *orchestrator.Orchestrator
	Renderers    *render.Registry
}

// New connects to the backend at baseURL. Signing out through the client
// flushes the orchestrator's cached metadata and closes its open lists.
func New(baseURL string, clientOpts []client.Option, opts ...orchestrator.Option) (*Admin, error) {
	var orch *orchestrator.Orchestrator
	reset := client.WithSignOutHook(func(ctx context.Context) {
		if orch != nil {
			orch.Reset(ctx)
		}
	})
	c, err := client.New(baseURL, append(append([]client.Option(nil), clientOpts...), reset)...)
	if err != nil {
		return nil, err
	}
	orch, err = orchestrator.New(c, opts...)
	if err != nil {
		return nil, err
	}
	return &Admin{Client: c, Orchestrator: orch, Renderers: NewRenderRegistry()}, nil
}

// NewRenderRegistry returns a registry holding the terminal table and the
// CSV, JSON and XLSX exporters.
func NewRenderRegistry(tableOpts ...table.Option) *render.Registry {
	return render.NewRegistry(
		table.New(tableOpts...),
		export.NewCSV(),
		export.NewJSON(),
		export.NewXLSX(),
	)
}

// RenderList renders a list view with the named renderer and returns the
// bytes and their content type.
func (a *Admin) RenderList(ctx context.Context, name string, view listing.View, opts RenderOptions) ([]byte, string, error) {
	out, contentType, err := a.Renderers.Render(ctx, name, view.Table(), opts)
	if err != nil {
		return nil, "", fmt.Errorf("modeladmin: %w", err)
	}
	return out, contentType, nil
}
