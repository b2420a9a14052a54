package model

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const taskConfig = `{
  "model_name": "task",
  "verbose_name": "task",
  "verbose_name_plural": "tasks",
  "fields": {
    "title": {"name": "title", "verbose_name": "title", "type": "CharField", "required": true, "max_length": 200},
    "done": {"name": "done", "verbose_name": "done", "type": "BooleanField", "ui_component": "checkbox"},
    "assignee": {"name": "assignee", "type": "ForeignKey", "ui_component": "foreignkey_select",
      "related_model": {"app_label": "auth", "model_name": "user", "api_url": "/api/users/"}},
    "id": {"name": "id", "type": "BigAutoField", "editable": false}
  },
  "admin_config": {"list_display": ["id", "title", "done"]}
}`

func TestParseModelConfig_PreservesDeclarationOrder(t *testing.T) {
	cfg, err := ParseModelConfig([]byte(taskConfig))
	if err != nil {
		t.Fatalf("ParseModelConfig: %v", err)
	}

	var names []string
	for _, f := range cfg.Fields {
		names = append(names, f.Name)
	}
	if diff := cmp.Diff([]string{"title", "done", "assignee", "id"}, names); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}

	title, _ := cfg.Field("title")
	if title.Label != "Title" || !title.Required || title.MaxLength != 200 || title.Widget != WidgetText {
		t.Fatalf("unexpected title field: %+v", title)
	}
	assignee, _ := cfg.Field("assignee")
	if assignee.Widget != WidgetForeignKey || !assignee.HasEndpoint() {
		t.Fatalf("unexpected assignee field: %+v", assignee)
	}
	id, _ := cfg.Field("id")
	if id.Editable || id.Type != FieldTypeNumber {
		t.Fatalf("unexpected id field: %+v", id)
	}
	if !cfg.Permissions.Add || !cfg.Permissions.Delete {
		t.Fatalf("permissions should default to allowed, got %+v", cfg.Permissions)
	}
}

func TestParseModelConfig_ReportsEveryIssue(t *testing.T) {
	payload := `{
	  "model_name": "article",
	  "fields": {
	    "author": {"type": "ForeignKey", "ui_component": "text_input",
	      "related_model": {"api_url": "/api/users/"}},
	    "title_xx": {"type": "CharField", "is_translation": true},
	    "body_fr": {"type": "TextField", "is_translation": true}
	  }
	}`

	_, err := ParseModelConfig([]byte(payload), WithLocales(MustLocaleSet("en", "es")))
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected *SchemaError, got %v", err)
	}
	var fields []string
	for _, issue := range schemaErr.Issues {
		fields = append(fields, issue.Field)
	}
	if diff := cmp.Diff([]string{"author", "title_xx", "body_fr"}, fields); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
}

func TestParseModelConfig_TranslationFields(t *testing.T) {
	payload := `{
	  "model_name": "page",
	  "fields": {
	    "slug": {"type": "SlugField"},
	    "title_en": {"type": "CharField", "is_translation": true},
	    "title_es": {"type": "CharField", "is_translation": true}
	  }
	}`
	cfg, err := ParseModelConfig([]byte(payload))
	if err != nil {
		t.Fatalf("ParseModelConfig: %v", err)
	}
	es, _ := cfg.Field("title_es")
	if es.BaseName != "title" || es.Language != "es" {
		t.Fatalf("unexpected translation split: %+v", es)
	}
}

func TestParseModelConfig_DecoratorRunsBeforeValidation(t *testing.T) {
	payload := `{"model_name": "task", "fields": {"tags": {"type": "ManyToManyField",
	  "related_model": {"api_url": "/api/tags/"}}}}`

	decorator := DecoratorFunc(func(cfg *ModelConfig) error {
		for i := range cfg.Fields {
			if cfg.Fields[i].RawType == "ManyToManyField" {
				cfg.Fields[i].Widget = WidgetManyToMany
			}
		}
		return nil
	})
	cfg, err := ParseModelConfig([]byte(payload), WithDecorators(decorator))
	if err != nil {
		t.Fatalf("ParseModelConfig: %v", err)
	}
	if cfg.Fields[0].Widget != WidgetManyToMany {
		t.Fatalf("expected decorator widget, got %q", cfg.Fields[0].Widget)
	}
}

func TestModelConfig_ListDisplayFallback(t *testing.T) {
	cfg := ModelConfig{}
	if diff := cmp.Diff([]string{"id", "__str__", "created_at"}, cfg.ListDisplay()); diff != "" {
		t.Fatalf("list display mismatch (-want +got):\n%s", diff)
	}
}

func TestModelConfig_ValidateItem(t *testing.T) {
	cfg, err := ParseModelConfig([]byte(taskConfig))
	if err != nil {
		t.Fatalf("ParseModelConfig: %v", err)
	}
	issues := cfg.ValidateItem(Item{
		"id":       float64(1),
		"title":    []any{"nope"},
		"done":     "yes",
		"assignee": map[string]any{"id": float64(3), "username": "ana"},
		"extra":    map[string]any{},
	})
	want := []Issue{
		{Field: "title", Message: "expected scalar, got []interface {}"},
		{Field: "done", Message: "expected boolean, got string"},
	}
	if diff := cmp.Diff(want, issues); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAdminConfig(t *testing.T) {
	payload := `{"models": {
	  "tasks": {"name": "Task", "api_url": "/api/tasks/", "config_url": "/api/admin/tasks/config/", "count": 4},
	  "users": {"name": "User", "api_url": "/api/users/"}
	}}`
	cfg, err := ParseAdminConfig([]byte(payload))
	if err != nil {
		t.Fatalf("ParseAdminConfig: %v", err)
	}
	if diff := cmp.Diff([]string{"tasks", "users"}, cfg.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	tasks, _ := cfg.Model("tasks")
	want := ModelDescriptor{Key: "tasks", Name: "Task", ListURL: "/api/tasks/", ConfigURL: "/api/admin/tasks/config/", Count: 4}
	if diff := cmp.Diff(want, tasks); diff != "" {
		t.Fatalf("descriptor mismatch (-want +got):\n%s", diff)
	}

	if _, err := ParseAdminConfig([]byte(`{"models": {"broken": {"name": "x"}}}`)); err == nil {
		t.Fatal("expected missing api_url to fail")
	}
}
