package listing

import (
	"strings"
	"time"

	"github.com/goliatone/go-modeladmin/pkg/model"
	"github.com/goliatone/go-modeladmin/pkg/render"
)

// Status is the mutually exclusive state of a list.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusEmpty   Status = "empty"
	StatusReady   Status = "ready"
)

// Messages shown in place of rows.
const (
	EmptyMessage   = "No items found"
	LoadingMessage = "Loading..."
	RetryLabel     = "Try Again"
)

// Row is one displayed item.
type Row struct {
	ID    string
	Cells []string
}

// View is a snapshot of the list for presentation.
type View struct {
	Title   string
	Status  Status
	Columns []render.Column
	Rows    []Row
	// Message is set for loading, error and empty states.
	Message string
	Err     error
	// CanRetry is true in the error state.
	CanRetry   bool
	Page       int
	TotalPages int
	Total      int
	Stale      bool
}

// Table converts the view for the list renderers.
func (v View) Table() render.Table {
	t := render.Table{
		Title:      v.Title,
		Columns:    v.Columns,
		Message:    v.Message,
		Page:       v.Page,
		TotalPages: v.TotalPages,
		Total:      v.Total,
	}
	if v.Status == StatusError && v.CanRetry {
		t.Message = v.Message + " (" + RetryLabel + ")"
	}
	for _, row := range v.Rows {
		t.Rows = append(t.Rows, row.Cells)
	}
	return t
}

func columnsFor(cfg model.ModelConfig) []render.Column {
	keys := cfg.ListDisplay()
	cols := make([]render.Column, 0, len(keys))
	for _, key := range keys {
		cols = append(cols, render.Column{Key: key, Label: columnLabel(cfg, key)})
	}
	return cols
}

func columnLabel(cfg model.ModelConfig, key string) string {
	switch key {
	case "id":
		return "ID"
	case "__str__":
		return "Name / Title"
	}
	if f, ok := cfg.Field(key); ok && f.Label != "" {
		return render.PlainText(f.Label)
	}
	return model.DefaultLabeler(key)
}

// Cell renders one value of item for column key.
func Cell(cfg model.ModelConfig, item model.Item, key string) string {
	if key == "__str__" {
		if v, ok := item["__str__"]; ok && v != nil {
			return render.PlainText(model.StringValue(v))
		}
		for _, k := range []string{"name", "title", "username"} {
			if s := model.StringValue(item[k]); s != "" {
				return render.PlainText(s)
			}
		}
		return "-"
	}
	field, _ := cfg.Field(key)
	return render.PlainText(formatValue(field, item[key]))
}

func formatValue(field model.Field, v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case bool:
		if val {
			return "Yes"
		}
		return "No"
	case string:
		if val == "" {
			return "-"
		}
		for _, choice := range field.Choices {
			if choice.Value == val {
				return choice.Label
			}
		}
		return shortDate(val)
	case map[string]any:
		return model.DisplayLabel(model.Item(val))
	case []any:
		parts := make([]string, 0, len(val))
		for _, entry := range val {
			parts = append(parts, formatValue(model.Field{}, entry))
		}
		if len(parts) == 0 {
			return "-"
		}
		return strings.Join(parts, ", ")
	default:
		return model.StringValue(val)
	}
}

// shortDate trims RFC 3339 timestamps to their date.
func shortDate(s string) string {
	if len(s) < len("2006-01-02T15:04") {
		return s
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04:05.999999"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.Format(time.DateOnly)
		}
	}
	return s
}
