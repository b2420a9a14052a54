package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWidgetDefaults(t *testing.T) {
	cases := map[Widget]any{
		WidgetCheckbox:   false,
		WidgetManyToMany: []any{},
		WidgetJSON:       nil,
		WidgetText:       "",
		WidgetForeignKey: "",
		WidgetImage:      "",
	}
	for widget, want := range cases {
		if diff := cmp.Diff(want, widget.DefaultValue()); diff != "" {
			t.Errorf("%s default mismatch (-want +got):\n%s", widget, diff)
		}
	}
	for _, w := range Widgets() {
		if !w.Known() {
			t.Errorf("%s should be known", w)
		}
	}
}

func TestDisplayLabel(t *testing.T) {
	cases := []struct {
		item Item
		want string
	}{
		{Item{"id": float64(1), "name": "Ana", "title": "x"}, "Ana"},
		{Item{"id": float64(2), "name": "", "title": "Report"}, "Report"},
		{Item{"id": float64(3), "username": "bob"}, "bob"},
		{Item{"id": float64(4)}, "ID: 4"},
	}
	for _, tc := range cases {
		if got := DisplayLabel(tc.item); got != tc.want {
			t.Errorf("DisplayLabel(%v) = %q, want %q", tc.item, got, tc.want)
		}
	}
}

func TestParsePage(t *testing.T) {
	page, err := ParsePage([]byte(`{"count": 31, "next": "http://x/api/tasks/?page=2", "previous": null, "results": [{"id": 1}]}`))
	if err != nil {
		t.Fatalf("ParsePage: %v", err)
	}
	if page.Count != 31 || page.Next == "" || page.Previous != "" || len(page.Results) != 1 {
		t.Fatalf("unexpected page: %+v", page)
	}

	bare, err := ParsePage([]byte(`[{"id": 1}, {"id": 2}]`))
	if err != nil {
		t.Fatalf("ParsePage bare: %v", err)
	}
	if bare.Count != 2 {
		t.Fatalf("expected bare list count 2, got %d", bare.Count)
	}
}

func TestChoiceDecodesPairsAndObjects(t *testing.T) {
	cfg, err := ParseModelConfig([]byte(`{"model_name": "t", "fields": {
	  "status": {"type": "CharField", "ui_component": "select", "choices": [["open", "Open"], {"value": 2, "label": "Closed"}]}
	}}`))
	if err != nil {
		t.Fatalf("ParseModelConfig: %v", err)
	}
	want := []Choice{{Value: "open", Label: "Open"}, {Value: "2", Label: "Closed"}}
	if diff := cmp.Diff(want, cfg.Fields[0].Choices); diff != "" {
		t.Fatalf("choices mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultLabeler(t *testing.T) {
	cases := map[string]string{
		"created_at": "Created At",
		"assigneeID": "Assignee ID",
		"line2":      "Line 2",
	}
	for in, want := range cases {
		if got := DefaultLabeler(in); got != want {
			t.Errorf("DefaultLabeler(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLocaleSet(t *testing.T) {
	open := LocaleSet{}
	if !open.Supports("de") || open.Supports("!!") {
		t.Fatal("empty set should accept valid languages only")
	}
	set := MustLocaleSet("en", "pt-BR")
	if !set.Supports("pt") || set.Supports("es") {
		t.Fatalf("unexpected support for %v", set.Codes())
	}
}
