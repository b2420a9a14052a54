package export

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-modeladmin/pkg/render"
)

// JSON writes the page as an object with its rows keyed by column key.
type JSON struct {
	Indent string
}

// NewJSON returns a JSON renderer indenting with two spaces.
func NewJSON() *JSON {
	return &JSON{Indent: "  "}
}

func (*JSON) Name() string        { return "json" }
func (*JSON) ContentType() string { return "application/json" }

type jsonColumn struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type jsonPage struct {
	Title      string              `json:"title,omitempty"`
	Page       int                 `json:"page"`
	TotalPages int                 `json:"total_pages"`
	Total      int                 `json:"total"`
	Columns    []jsonColumn        `json:"columns"`
	Rows       []map[string]string `json:"rows"`
	Message    string              `json:"message,omitempty"`
}

// Render implements render.Renderer.
func (j *JSON) Render(ctx context.Context, table render.Table, _ render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page := jsonPage{
		Title:      table.Title,
		Page:       table.Page,
		TotalPages: table.TotalPages,
		Total:      table.Total,
		Columns:    make([]jsonColumn, len(table.Columns)),
		Rows:       make([]map[string]string, 0, len(table.Rows)),
		Message:    table.Message,
	}
	for i, col := range table.Columns {
		page.Columns[i] = jsonColumn{Key: col.Key, Label: col.Label}
	}
	for _, row := range table.Rows {
		entry := make(map[string]string, len(table.Columns))
		for i, col := range table.Columns {
			if i < len(row) {
				entry[col.Key] = row[i]
			}
		}
		page.Rows = append(page.Rows, entry)
	}

	var (
		out []byte
		err error
	)
	if j.Indent != "" {
		out, err = json.MarshalIndent(page, "", j.Indent)
	} else {
		out, err = json.Marshal(page)
	}
	if err != nil {
		return nil, fmt.Errorf("export: json: %w", err)
	}
	return out, nil
}
