package render_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-modeladmin/pkg/model"
	"github.com/goliatone/go-modeladmin/pkg/render"
)

func TestMapErrorPayload_DjangoErrors(t *testing.T) {
	cfg := model.ModelConfig{
		Fields: []model.Field{
			{Name: "title"},
			{Name: "tags"},
			{Name: "title_es"},
		},
	}

	payload := map[string][]string{
		"title":            {"This field is required.", " This field is required. "},
		"tags.0":           {"Invalid pk \"9\" - object does not exist."},
		"title_es":         {"Ensure this field has no more than 10 characters."},
		"non_field_errors": {"The fields title, owner must make a unique set."},
		"__all__":          {"Form level"},
		"ghost":            {"Unknown field"},
	}

	mapped := render.MapErrorPayload(cfg, payload)

	wantFields := map[string][]string{
		"title":    {"This field is required."},
		"tags":     {"Invalid pk \"9\" - object does not exist."},
		"title_es": {"Ensure this field has no more than 10 characters."},
	}
	if diff := cmp.Diff(wantFields, mapped.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	wantForm := []string{"Form level", "Unknown field", "The fields title, owner must make a unique set."}
	if diff := cmp.Diff(wantForm, mapped.Form); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeFormErrors(t *testing.T) {
	merged := render.MergeFormErrors([]string{" First ", "Second"}, "Second", "third", "  ")
	if diff := cmp.Diff([]string{"First", "Second", "third"}, merged); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}
}

func TestPlainText(t *testing.T) {
	cases := map[string]string{
		"Due date":                         "Due date",
		"<b>Bold</b> help":                 "Bold help",
		"<script>alert(1)</script>Safe":    "Safe",
		"Tom &amp; Jerry <i>forever</i>":   "Tom & Jerry forever",
		"\x1b[31mred\x1b[0m":               "[31mred[0m",
		"<b>bell\a</b> &amp; \x1b]0;t\x07": "bell & ]0;t",
		"tab\there\nnext":                  "tab\there\nnext",
		"del\x7f\u009bx":                   "delx",
	}
	for in, want := range cases {
		if got := render.PlainText(in); got != want {
			t.Errorf("PlainText(%q) = %q, want %q", in, got, want)
		}
	}
}

type stubRenderer struct{ name string }

func (s stubRenderer) Name() string        { return s.name }
func (s stubRenderer) ContentType() string { return "text/plain" }
func (s stubRenderer) Render(_ context.Context, table render.Table, _ render.RenderOptions) ([]byte, error) {
	return []byte(table.Title), nil
}

func TestRegistry(t *testing.T) {
	reg := render.NewRegistry(stubRenderer{name: "b"}, stubRenderer{name: "a"})
	if err := reg.Register(stubRenderer{name: "a"}); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	if diff := cmp.Diff([]string{"a", "b"}, reg.List()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	out, contentType, err := reg.Render(context.Background(), "a", render.Table{Title: "Tasks"}, render.RenderOptions{})
	if err != nil || string(out) != "Tasks" || contentType != "text/plain" {
		t.Fatalf("unexpected render result %q %q %v", out, contentType, err)
	}
	if _, err := reg.Get("missing"); err == nil {
		t.Fatal("expected missing renderer error")
	}
}
