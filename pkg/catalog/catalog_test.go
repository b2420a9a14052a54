package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-modeladmin/pkg/model"
	"github.com/goliatone/go-modeladmin/pkg/widgets"
)

type stubSource struct {
	adminCalls  int
	configCalls map[string]int
	admin       model.AdminConfig
	configs     map[string]string
}

func (s *stubSource) AdminConfig(context.Context) (model.AdminConfig, error) {
	s.adminCalls++
	return s.admin, nil
}

func (s *stubSource) ModelConfig(_ context.Context, url string, opts ...model.ParseOption) (model.ModelConfig, error) {
	if s.configCalls == nil {
		s.configCalls = make(map[string]int)
	}
	s.configCalls[url]++
	return model.ParseModelConfig([]byte(s.configs[url]), opts...)
}

func newStub() *stubSource {
	return &stubSource{
		admin: model.AdminConfig{Models: map[string]model.ModelDescriptor{
			"tasks": {Key: "tasks", Name: "Task", ListURL: "/api/tasks/"},
		}},
		configs: map[string]string{
			"/api/tasks/config/": `{"model_name": "task", "fields": {"notes": {"type": "TextField"}}}`,
		},
	}
}

func TestModel_CachesAndDecorates(t *testing.T) {
	src := newStub()
	cat := New(src, WithDecorators(widgets.NewRegistry()))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		entry, err := cat.Model(ctx, "tasks")
		if err != nil {
			t.Fatalf("Model: %v", err)
		}
		if entry.Config.Fields[0].Widget != model.WidgetTextarea {
			t.Fatalf("expected textarea, got %q", entry.Config.Fields[0].Widget)
		}
	}
	if src.adminCalls != 1 || src.configCalls["/api/tasks/config/"] != 1 {
		t.Fatalf("expected one fetch each, got admin=%d config=%v", src.adminCalls, src.configCalls)
	}
}

func TestModel_UnknownKey(t *testing.T) {
	cat := New(newStub())
	if _, err := cat.Model(context.Background(), "ghosts"); !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
}

func TestInvalidate_ItemsDropsAdminConfig(t *testing.T) {
	src := newStub()
	cat := New(src)
	ctx := context.Background()

	if _, err := cat.Model(ctx, "tasks"); err != nil {
		t.Fatalf("Model: %v", err)
	}
	cat.Invalidate(ItemsKey("tasks"))
	if cat.Cached(AdminConfigKey) {
		t.Fatal("admin config should be dropped with the item list")
	}
	if !cat.Cached(ConfigKey("tasks")) {
		t.Fatal("model config should survive item invalidation")
	}

	cat.Flush()
	if cat.Cached(ConfigKey("tasks")) {
		t.Fatal("flush should drop model configs")
	}
}
