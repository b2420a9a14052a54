package widgets

import (
	"testing"

	"github.com/goliatone/go-modeladmin/pkg/model"
)

func TestResolve_AssignedWidgetWins(t *testing.T) {
	reg := NewRegistry()
	field := model.Field{Type: model.FieldTypeBoolean, Widget: model.WidgetSelect}

	if got, ok := reg.Resolve(field); !ok || got != model.WidgetSelect {
		t.Fatalf("expected assigned widget to win, got %q (ok=%v)", got, ok)
	}
}

func TestResolve_Builtins(t *testing.T) {
	reg := NewRegistry()
	users := &model.RelatedModel{APIURL: "/api/users/"}

	cases := []struct {
		name   string
		field  model.Field
		expect model.Widget
	}{
		{
			name:   "relation hint with related model",
			field:  model.Field{RawType: "ForeignKey", Type: model.FieldTypeRelation, Hint: "manytomany_select", Related: users},
			expect: model.WidgetManyToMany,
		},
		{
			name:   "json field overrides hint",
			field:  model.Field{RawType: "JSONField", Type: model.FieldTypeJSON, Hint: "textarea"},
			expect: model.WidgetJSON,
		},
		{
			name:   "many to many overrides hint",
			field:  model.Field{RawType: "ManyToManyField", Type: model.FieldTypeRelation, Hint: "select", Related: users},
			expect: model.WidgetManyToMany,
		},
		{
			name:   "explicit hint",
			field:  model.Field{RawType: "CharField", Type: model.FieldTypeText, Hint: "textarea"},
			expect: model.WidgetTextarea,
		},
		{
			name:   "contradicting hint falls through",
			field:  model.Field{RawType: "ForeignKey", Type: model.FieldTypeRelation, Hint: "text_input", Related: users},
			expect: model.WidgetForeignKey,
		},
		{
			name:   "boolean",
			field:  model.Field{RawType: "BooleanField", Type: model.FieldTypeBoolean},
			expect: model.WidgetCheckbox,
		},
		{
			name:   "text field",
			field:  model.Field{RawType: "TextField", Type: model.FieldTypeText},
			expect: model.WidgetTextarea,
		},
		{
			name:   "image",
			field:  model.Field{RawType: "ImageField", Type: model.FieldTypeFile},
			expect: model.WidgetImage,
		},
		{
			name:   "choices",
			field:  model.Field{RawType: "CharField", Type: model.FieldTypeText, Choices: []model.Choice{{Value: "a", Label: "A"}}},
			expect: model.WidgetSelect,
		},
		{
			name:   "text fallback",
			field:  model.Field{RawType: "CharField", Type: model.FieldTypeText, Hint: "unknown_widget"},
			expect: model.WidgetText,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := reg.Resolve(tc.field)
			if !ok {
				t.Fatalf("expected resolution for %s", tc.name)
			}
			if got != tc.expect {
				t.Fatalf("resolve %s: want %q, got %q", tc.name, tc.expect, got)
			}
		})
	}
}

func TestResolve_PriorityOverride(t *testing.T) {
	reg := NewRegistry()
	reg.Register(model.WidgetSelect, PriorityRelationHint+1, func(field model.Field) bool {
		return field.Type == model.FieldTypeBoolean
	})

	got, ok := reg.Resolve(model.Field{Type: model.FieldTypeBoolean})
	if !ok || got != model.WidgetSelect {
		t.Fatalf("priority matcher should win, got %q (ok=%v)", got, ok)
	}
}

func TestDecorator_ProducesValidConfig(t *testing.T) {
	payload := `{"model_name": "task", "fields": {
	  "notes": {"type": "TextField"},
	  "meta": {"type": "JSONField", "ui_component": "text_input"},
	  "owner": {"type": "ForeignKey", "ui_component": "text_input", "related_model": {"api_url": "/api/users/"}}
	}}`
	cfg, err := model.ParseModelConfig([]byte(payload), model.WithDecorators(NewRegistry()))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := map[string]model.Widget{
		"notes": model.WidgetTextarea,
		"meta":  model.WidgetJSON,
		"owner": model.WidgetForeignKey,
	}
	for name, widget := range want {
		f, _ := cfg.Field(name)
		if f.Widget != widget {
			t.Errorf("%s: want %q, got %q", name, widget, f.Widget)
		}
	}
}
