package render

import "context"

// Column is one list column.
type Column struct {
	Key   string
	Label string
}

// Table is the renderer-facing snapshot of a list page. Cells are already
// stringified and sanitised.
type Table struct {
	Title   string
	Columns []Column
	Rows    [][]string
	// Message replaces the rows when the list is loading, failed or empty.
	Message    string
	Page       int
	TotalPages int
	Total      int
}

// RenderOptions tune individual renderers. Zero values select defaults.
type RenderOptions struct {
	// Width caps the terminal table width.
	Width int
	// SheetName names the worksheet of spreadsheet outputs.
	SheetName string
	// OmitFooter drops the pagination footer of terminal output.
	OmitFooter bool
}

// Renderer converts a Table into bytes (terminal text, CSV, JSON, XLSX).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, table Table, options RenderOptions) ([]byte, error)
}
