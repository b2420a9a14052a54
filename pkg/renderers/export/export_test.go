package export_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/goliatone/go-modeladmin/pkg/render"
	"github.com/goliatone/go-modeladmin/pkg/renderers/export"
)

func sampleTable() render.Table {
	return render.Table{
		Title: "Tasks",
		Columns: []render.Column{
			{Key: "id", Label: "ID"},
			{Key: "__str__", Label: "Name / Title"},
			{Key: "created_at", Label: "Created At"},
		},
		Rows: [][]string{
			{"1", "Write report, draft", "2026-03-04"},
			{"2", "Ship \"v2\"", "-"},
		},
		Page:       1,
		TotalPages: 1,
		Total:      2,
	}
}

func TestCSV(t *testing.T) {
	out, err := export.NewCSV().Render(context.Background(), sampleTable(), render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "ID,Name / Title,Created At\n" +
		"1,\"Write report, draft\",2026-03-04\n" +
		"2,\"Ship \"\"v2\"\"\",-\n"
	if diff := cmp.Diff(want, string(out)); diff != "" {
		t.Fatalf("csv mismatch (-want +got):\n%s", diff)
	}

	bom := &export.CSV{BOM: true}
	out, err = bom.Render(context.Background(), sampleTable(), render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}) {
		t.Fatal("expected byte order mark")
	}
}

func TestJSON(t *testing.T) {
	out, err := export.NewJSON().Render(context.Background(), sampleTable(), render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var decoded struct {
		Total int                 `json:"total"`
		Rows  []map[string]string `json:"rows"`
	}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []map[string]string{
		{"id": "1", "__str__": "Write report, draft", "created_at": "2026-03-04"},
		{"id": "2", "__str__": "Ship \"v2\"", "created_at": "-"},
	}
	if diff := cmp.Diff(want, decoded.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if decoded.Total != 2 {
		t.Fatalf("expected total 2, got %d", decoded.Total)
	}
}

func TestXLSX(t *testing.T) {
	out, err := export.NewXLSX().Render(context.Background(), sampleTable(), render.RenderOptions{SheetName: "Tasks"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Tasks")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	want := [][]string{
		{"ID", "Name / Title", "Created At"},
		{"1", "Write report, draft", "2026-03-04"},
		{"2", "Ship \"v2\"", "-"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("sheet mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry(t *testing.T) {
	reg := render.NewRegistry(export.NewCSV(), export.NewJSON(), export.NewXLSX())
	if diff := cmp.Diff([]string{"csv", "json", "xlsx"}, reg.List()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	_, contentType, err := reg.Render(context.Background(), "csv", sampleTable(), render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if contentType != "text/csv; charset=utf-8" {
		t.Fatalf("unexpected content type %q", contentType)
	}
	if _, err := reg.Get("pdf"); err == nil {
		t.Fatal("expected unknown renderer error")
	}
}
