// Package table renders a list page as a terminal table.
package table

import (
	"context"
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/goliatone/go-modeladmin/pkg/render"
)

// Option configures the Renderer.
type Option func(*Renderer)

// WithBorder replaces the rounded border.
func WithBorder(border lipgloss.Border) Option {
	return func(r *Renderer) {
		r.border = border
	}
}

// WithHeaderStyle replaces the bold header style.
func WithHeaderStyle(style lipgloss.Style) Option {
	return func(r *Renderer) {
		r.header = style
	}
}

// WithPlain disables all styling. Useful when output is piped.
func WithPlain() Option {
	return func(r *Renderer) {
		r.plain = true
	}
}

// Renderer draws tables with lipgloss.
type Renderer struct {
	border lipgloss.Border
	header lipgloss.Style
	cell   lipgloss.Style
	plain  bool
}

// New returns a terminal table renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		border: lipgloss.RoundedBorder(),
		header: lipgloss.NewStyle().Bold(true).Padding(0, 1),
		cell:   lipgloss.NewStyle().Padding(0, 1),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (*Renderer) Name() string        { return "table" }
func (*Renderer) ContentType() string { return "text/plain; charset=utf-8" }

// Render implements render.Renderer. When the page carries a message (empty,
// loading or error) it is printed under the header in place of rows.
func (r *Renderer) Render(ctx context.Context, page render.Table, options render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	headers := make([]string, len(page.Columns))
	for i, col := range page.Columns {
		headers[i] = col.Label
	}

	t := table.New().
		Border(r.border).
		Headers(headers...).
		StyleFunc(r.style)
	for _, row := range page.Rows {
		t.Row(fit(row, len(headers))...)
	}
	if options.Width > 0 {
		t.Width(options.Width)
	}

	var b strings.Builder
	if page.Title != "" {
		b.WriteString(page.Title)
		b.WriteString("\n")
	}
	b.WriteString(t.String())
	b.WriteString("\n")
	if len(page.Rows) == 0 && page.Message != "" {
		b.WriteString(page.Message)
		b.WriteString("\n")
	}
	if !options.OmitFooter && page.TotalPages > 0 {
		fmt.Fprintf(&b, "Page %d of %d (%d items)\n", page.Page, page.TotalPages, page.Total)
	}
	return []byte(b.String()), nil
}

func (r *Renderer) style(row, _ int) lipgloss.Style {
	if r.plain {
		return lipgloss.NewStyle().Padding(0, 1)
	}
	if row == table.HeaderRow {
		return r.header
	}
	return r.cell
}

func fit(row []string, n int) []string {
	if len(row) >= n {
		return row[:n]
	}
	out := make([]string, n)
	copy(out, row)
	return out
}
