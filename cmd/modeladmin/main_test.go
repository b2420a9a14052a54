package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-modeladmin/pkg/renderers/tui"
	"github.com/goliatone/go-modeladmin/pkg/session"
)

type scriptedDriver struct {
	mu       sync.Mutex
	answers  []string
	confirms []bool
	infos    []string
}

func (s *scriptedDriver) next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.answers) == 0 {
		return "", errors.New("no answer scripted")
	}
	v := s.answers[0]
	s.answers = s.answers[1:]
	return v, nil
}

func (s *scriptedDriver) Input(context.Context, tui.InputConfig) (string, error)    { return s.next() }
func (s *scriptedDriver) Password(context.Context, tui.InputConfig) (string, error) { return s.next() }
func (s *scriptedDriver) TextArea(context.Context, tui.TextAreaConfig) (string, error) {
	return s.next()
}

func (s *scriptedDriver) Confirm(context.Context, tui.ConfirmConfig) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.confirms) == 0 {
		return false, errors.New("no confirm scripted")
	}
	v := s.confirms[0]
	s.confirms = s.confirms[1:]
	return v, nil
}

func (s *scriptedDriver) Select(context.Context, tui.SelectConfig) (int, error) {
	return 0, errors.New("no select scripted")
}

func (s *scriptedDriver) MultiSelect(context.Context, tui.SelectConfig) ([]int, error) {
	return nil, errors.New("no multiselect scripted")
}

func (s *scriptedDriver) Info(_ context.Context, msg string) error {
	s.mu.Lock()
	s.infos = append(s.infos, msg)
	s.mu.Unlock()
	return nil
}

type fakeAdmin struct {
	mu      sync.Mutex
	posted  map[string]any
	deleted []string
}

func (f *fakeAdmin) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access": "acc", "refresh": "ref"}`))
	})
	mux.HandleFunc("GET /api/admin/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models": {"tasks": {"name": "Task", "api_url": "/api/tasks/", "count": 2}}}`))
	})
	mux.HandleFunc("GET /api/tasks/config/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"model_name": "task", "fields": {
			"id": {"type": "BigAutoField", "editable": false},
			"title": {"verbose_name": "title", "type": "CharField", "required": true},
			"done": {"type": "BooleanField"}}}`))
	})
	mux.HandleFunc("GET /api/tasks/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"count": 2, "results": [
			{"id": 1, "title": "Plan", "created_at": "2026-01-02T03:04:05Z"},
			{"id": 2, "title": "Ship", "created_at": null}]}`))
	})
	mux.HandleFunc("POST /api/tasks/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		json.NewDecoder(r.Body).Decode(&f.posted)
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 3, "title": "Write"}`))
	})
	mux.HandleFunc("DELETE /api/tasks/{id}/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.deleted = append(f.deleted, r.PathValue("id"))
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/tasks/export/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("id,title\n1,Plan\n"))
	})
	return mux
}

type harness struct {
	env    map[string]string
	store  *session.MemoryStore
	driver *scriptedDriver
}

func newHarness(t *testing.T, h http.Handler) *harness {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &harness{
		env: map[string]string{
			"MODELADMIN_API_URL":       srv.URL,
			"MODELADMIN_SESSION_STORE": "memory",
			"MODELADMIN_LOG_LEVEL":     "error",
		},
		store:  session.NewMemoryStoreWith(session.New("acc", "ref", "ana")),
		driver: &scriptedDriver{},
	}
}

func (h *harness) run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, h.env, &stdout, &stderr, deps{driver: h.driver, store: h.store})
	return code, stdout.String(), stderr.String()
}

func TestLogin(t *testing.T) {
	h := newHarness(t, (&fakeAdmin{}).handler())
	h.store = session.NewMemoryStore()
	h.driver.answers = []string{"ana", "secret"}

	code, out, errOut := h.run("login")
	if code != exitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if out != "Signed in as ana.\n" {
		t.Fatalf("unexpected output %q", out)
	}
	sess, err := h.store.Load(context.Background())
	if err != nil || sess.AccessToken != "acc" {
		t.Fatalf("session not stored: %+v %v", sess, err)
	}

	if code, out, _ := h.run("logout"); code != exitOK || out != "Signed out.\n" {
		t.Fatalf("logout: %d %q", code, out)
	}
	if code, out, _ := h.run("status"); code != exitOK || out != "Not signed in.\n" {
		t.Fatalf("status: %d %q", code, out)
	}
}

func TestList_CSV(t *testing.T) {
	h := newHarness(t, (&fakeAdmin{}).handler())
	code, out, errOut := h.run("list", "tasks", "-format", "csv")
	if code != exitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	want := "ID,Name / Title,Created At\n1,Plan,2026-01-02\n2,Ship,-\n"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}

	code, _, errOut = h.run("list", "tasks", "-page", "5")
	if code != exitUsage || !strings.Contains(errOut, "outside 1..1") {
		t.Fatalf("expected usage error for a missing page, got %d %q", code, errOut)
	}
}

func TestCreate_SubmitsAndShowsList(t *testing.T) {
	backend := &fakeAdmin{}
	h := newHarness(t, backend.handler())
	h.driver.answers = []string{"Write"}
	h.driver.confirms = []bool{true}

	code, out, errOut := h.run("create", "tasks")
	if code != exitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if diff := cmp.Diff(map[string]any{"title": "Write", "done": true}, backend.posted); diff != "" {
		t.Fatalf("posted mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"OK: Item created successfully."}, h.driver.infos); diff != "" {
		t.Fatalf("notices mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(out, "Plan") {
		t.Fatalf("expected the task list after saving, got:\n%s", out)
	}
}

func TestDelete(t *testing.T) {
	backend := &fakeAdmin{}
	h := newHarness(t, backend.handler())

	if code, _, errOut := h.run("delete", "tasks", "2", "-yes"); code != exitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if diff := cmp.Diff([]string{"2"}, backend.deleted); diff != "" {
		t.Fatalf("deleted mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"OK: Item 2 was deleted successfully."}, h.driver.infos); diff != "" {
		t.Fatalf("notices mismatch (-want +got):\n%s", diff)
	}

	h.driver.infos = nil
	h.driver.confirms = []bool{false}
	if code, _, errOut := h.run("delete", "tasks", "1"); code != exitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if len(backend.deleted) != 1 {
		t.Fatal("declined delete must not reach the backend")
	}
}

func TestExport(t *testing.T) {
	h := newHarness(t, (&fakeAdmin{}).handler())
	code, out, errOut := h.run("export", "tasks")
	if code != exitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if out != "id,title\n1,Plan\n" {
		t.Fatalf("unexpected export %q", out)
	}
}

func TestSessionExpiry(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "Token is invalid or expired"}`))
	})
	h := newHarness(t, mux)

	code, _, errOut := h.run("models")
	if code != exitExpired {
		t.Fatalf("expected exit %d, got %d: %s", exitExpired, code, errOut)
	}
	if strings.Count(errOut, "session has expired") != 1 {
		t.Fatalf("expected one expiry notice, got %q", errOut)
	}
	if _, err := h.store.Load(context.Background()); !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("expired session should be cleared, got %v", err)
	}
}

func TestDebugReportsMetrics(t *testing.T) {
	h := newHarness(t, (&fakeAdmin{}).handler())
	h.env["MODELADMIN_DEBUG"] = "true"

	code, _, errOut := h.run("list", "tasks", "-format", "csv")
	if code != exitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	for _, want := range []string{
		"metric=modeladmin_client_requests_total method=GET status_class=2xx",
		"metric=modeladmin_client_request_duration_seconds method=GET",
	} {
		if !strings.Contains(errOut, want) {
			t.Fatalf("expected %q in debug output:\n%s", want, errOut)
		}
	}

	delete(h.env, "MODELADMIN_DEBUG")
	if _, _, errOut := h.run("list", "tasks", "-format", "csv"); strings.Contains(errOut, "client metric") {
		t.Fatalf("metrics reported outside debug mode:\n%s", errOut)
	}
}

func TestUsage(t *testing.T) {
	h := newHarness(t, http.NotFoundHandler())
	if code, _, _ := h.run(); code != exitUsage {
		t.Fatalf("expected usage exit, got %d", code)
	}
	if code, _, errOut := h.run("frobnicate"); code != exitUsage || !strings.Contains(errOut, "unknown command") {
		t.Fatalf("unexpected %d %q", code, errOut)
	}
	if code, _, _ := h.run("edit", "tasks"); code != exitUsage {
		t.Fatalf("expected usage exit for a missing id, got %d", code)
	}
}
