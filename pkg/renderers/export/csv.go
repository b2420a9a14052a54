package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"github.com/goliatone/go-modeladmin/pkg/render"
)

// CSV writes the header row and one record per row.
type CSV struct {
	// BOM prefixes the output with a UTF-8 byte order mark so spreadsheet
	// applications detect the encoding.
	BOM bool
}

// NewCSV returns a CSV renderer.
func NewCSV() *CSV {
	return &CSV{}
}

func (*CSV) Name() string        { return "csv" }
func (*CSV) ContentType() string { return "text/csv; charset=utf-8" }

// Render implements render.Renderer.
func (c *CSV) Render(ctx context.Context, table render.Table, _ render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if c.BOM {
		buf.Write([]byte{0xEF, 0xBB, 0xBF})
	}
	w := csv.NewWriter(&buf)
	if err := w.Write(headers(table)); err != nil {
		return nil, fmt.Errorf("export: csv header: %w", err)
	}
	for i, row := range table.Rows {
		if err := w.Write(pad(row, len(table.Columns))); err != nil {
			return nil, fmt.Errorf("export: csv row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("export: csv: %w", err)
	}
	return buf.Bytes(), nil
}

func headers(table render.Table) []string {
	out := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		out[i] = col.Label
	}
	return out
}

// pad trims or extends row to n cells.
func pad(row []string, n int) []string {
	if len(row) == n {
		return row
	}
	out := make([]string, n)
	copy(out, row)
	return out
}
