package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if diff := cmp.Diff(Defaults(), cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFrom_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modeladmin.yaml")
	err := os.WriteFile(path, []byte(`
api_url: https://admin.example.com
page_size: 25
timeout: 10s
locales: [en, fr]
log_format: json
`), 0o600)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFrom(map[string]string{
		FileEnv:                             path,
		"MODELADMIN_PAGE_SIZE":              "50",
		"MODELADMIN_SESSION_STORE":          "memory",
		"MODELADMIN_DEBUG":                  "true",
		"MODELADMIN_REFRESH_FAILURE_WINDOW": "1m",
	})
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	want := Defaults()
	want.APIURL = "https://admin.example.com"
	want.PageSize = 50
	want.Timeout = 10 * time.Second
	want.Locales = []string{"en", "fr"}
	want.LogFormat = FormatJSON
	want.SessionStore = StoreMemory
	want.Debug = true
	want.RefreshFailureWindow = time.Minute
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
	if !cfg.LocaleSet().Supports("fr") || cfg.LocaleSet().Supports("de") {
		t.Fatalf("unexpected locale set %v", cfg.LocaleSet().Codes())
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"relative url", map[string]string{"MODELADMIN_API_URL": "/api"}, "api_url"},
		{"zero page size", map[string]string{"MODELADMIN_PAGE_SIZE": "0"}, "page_size must be positive"},
		{"bad store", map[string]string{"MODELADMIN_SESSION_STORE": "disk"}, "session_store"},
		{"bad format", map[string]string{"MODELADMIN_LOG_FORMAT": "xml"}, "log_format"},
		{"bad duration", map[string]string{"MODELADMIN_TIMEOUT": "soon"}, "parse env"},
		{"missing file", map[string]string{FileEnv: "/does/not/exist.yaml"}, "read"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(tt.env)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
