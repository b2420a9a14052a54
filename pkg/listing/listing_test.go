package listing

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-modeladmin/pkg/catalog"
	"github.com/goliatone/go-modeladmin/pkg/client"
	"github.com/goliatone/go-modeladmin/pkg/model"
	"github.com/goliatone/go-modeladmin/pkg/notify"
)

type stubSource struct {
	mu      sync.Mutex
	total   int
	listErr error
	delErr  error
	lists   []client.ListParams
	deletes []string
	gate    chan struct{}
	entered chan struct{}
}

func (s *stubSource) ListItems(_ context.Context, _ string, params client.ListParams) (model.Page, error) {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists = append(s.lists, params)
	if s.listErr != nil {
		return model.Page{}, s.listErr
	}
	var results []model.Item
	start := (params.Page - 1) * params.PageSize
	for i := start; i < start+params.PageSize && i < s.total; i++ {
		results = append(results, model.Item{
			"id":         float64(i + 1),
			"title":      "Task",
			"created_at": "2026-03-04T10:20:30Z",
		})
	}
	return model.Page{Count: s.total, Results: results}, nil
}

func (s *stubSource) DeleteItem(_ context.Context, _ string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, id)
	return s.delErr
}

func (s *stubSource) listCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lists)
}

var tasks = model.ModelDescriptor{Key: "tasks", Name: "Task", ListURL: "/api/tasks/"}

func yes() Confirmer {
	return ConfirmerFunc(func(context.Context, string) (bool, error) { return true, nil })
}

func TestDelete_RemovesRowWithoutRefetch(t *testing.T) {
	src := &stubSource{total: 15}
	notices := &notify.Recorder{}
	l := New(src, tasks, model.ModelConfig{}, WithConfirmer(yes()), WithNotifier(notices))
	ctx := context.Background()

	if err := l.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v := l.View(); v.Status != StatusReady || len(v.Rows) != 15 || v.TotalPages != 1 {
		t.Fatalf("unexpected view after load: status=%s rows=%d pages=%d", v.Status, len(v.Rows), v.TotalPages)
	}

	deleted, err := l.Delete(ctx, "7")
	if err != nil || !deleted {
		t.Fatalf("Delete: %v %v", deleted, err)
	}

	v := l.View()
	if len(v.Rows) != 14 || v.Total != 14 {
		t.Fatalf("expected 14 rows and total, got %d rows total %d", len(v.Rows), v.Total)
	}
	for _, row := range v.Rows {
		if row.ID == "7" {
			t.Fatal("row 7 should be gone")
		}
	}
	if src.listCalls() != 1 {
		t.Fatalf("delete must not re-fetch, got %d list calls", src.listCalls())
	}
	want := []notify.Notice{notify.Success("Item 7 was deleted successfully.")}
	if diff := cmp.Diff(want, notices.Notices()); diff != "" {
		t.Fatalf("notices mismatch (-want +got):\n%s", diff)
	}
}

func TestDelete_DeclinedOrFailed(t *testing.T) {
	src := &stubSource{total: 3}
	no := ConfirmerFunc(func(_ context.Context, msg string) (bool, error) {
		if msg != DeletePrompt {
			t.Errorf("unexpected prompt %q", msg)
		}
		return false, nil
	})
	l := New(src, tasks, model.ModelConfig{}, WithConfirmer(no))
	ctx := context.Background()
	l.Load(ctx)

	if deleted, err := l.Delete(ctx, "1"); deleted || err != nil {
		t.Fatalf("declined delete: %v %v", deleted, err)
	}
	if len(src.deletes) != 0 {
		t.Fatal("declined delete must not reach the backend")
	}

	src.delErr = errors.New("boom")
	notices := &notify.Recorder{}
	l = New(src, tasks, model.ModelConfig{}, WithConfirmer(yes()), WithNotifier(notices))
	l.Load(ctx)
	if _, err := l.Delete(ctx, "1"); err == nil {
		t.Fatal("expected delete error")
	}
	if len(l.View().Rows) != 3 {
		t.Fatal("failed delete must keep the row")
	}
	if got := notices.Notices(); len(got) != 1 || got[0].Message != "Failed to delete item: boom" {
		t.Fatalf("unexpected notices %+v", got)
	}

	if _, err := New(src, tasks, model.ModelConfig{}).Delete(ctx, "1"); !errors.Is(err, ErrNoConfirmer) {
		t.Fatalf("expected ErrNoConfirmer, got %v", err)
	}
}

func TestPaging(t *testing.T) {
	src := &stubSource{total: 31}
	l := New(src, tasks, model.ModelConfig{})
	ctx := context.Background()
	if err := l.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if l.TotalPages() != 3 {
		t.Fatalf("expected 3 pages, got %d", l.TotalPages())
	}

	for _, page := range []int{0, -1, 4} {
		if moved, err := l.GoTo(ctx, page); moved || err != nil {
			t.Fatalf("GoTo(%d) should be a no-op, got %v %v", page, moved, err)
		}
	}
	if moved, _ := l.Prev(ctx); moved {
		t.Fatal("Prev on page 1 should be a no-op")
	}
	if src.listCalls() != 1 {
		t.Fatalf("no-op paging must not fetch, got %d calls", src.listCalls())
	}

	if moved, err := l.GoTo(ctx, 3); !moved || err != nil {
		t.Fatalf("GoTo(3): %v %v", moved, err)
	}
	v := l.View()
	if v.Page != 3 || len(v.Rows) != 1 {
		t.Fatalf("unexpected last page: page=%d rows=%d", v.Page, len(v.Rows))
	}
	if moved, _ := l.Next(ctx); moved {
		t.Fatal("Next on the last page should be a no-op")
	}
	if got := src.lists[len(src.lists)-1]; got.PageSize != DefaultPageSize || got.Page != 3 {
		t.Fatalf("unexpected params %+v", got)
	}
}

func TestView_States(t *testing.T) {
	src := &stubSource{listErr: errors.New("API Error: 500 Internal Server Error")}
	l := New(src, tasks, model.ModelConfig{})
	ctx := context.Background()

	if v := l.View(); v.Status != StatusIdle || len(v.Rows) != 0 {
		t.Fatalf("unexpected idle view %+v", v)
	}

	if err := l.Load(ctx); err == nil {
		t.Fatal("expected load error")
	}
	v := l.View()
	if v.Status != StatusError || !v.CanRetry || len(v.Rows) != 0 || v.Message != "API Error: 500 Internal Server Error" {
		t.Fatalf("unexpected error view %+v", v)
	}

	src.listErr = nil
	if err := l.Retry(ctx); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	v = l.View()
	if v.Status != StatusEmpty || v.Message != EmptyMessage || v.Err != nil {
		t.Fatalf("unexpected empty view %+v", v)
	}
}

func TestView_Cells(t *testing.T) {
	src := &stubSource{total: 1}
	l := New(src, tasks, model.ModelConfig{})
	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	v := l.View()

	var labels []string
	for _, col := range v.Columns {
		labels = append(labels, col.Label)
	}
	if diff := cmp.Diff([]string{"ID", "Name / Title", "Created At"}, labels); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"1", "Task", "2026-03-04"}, v.Rows[0].Cells); diff != "" {
		t.Fatalf("cells mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_DiscardedAfterClose(t *testing.T) {
	src := &stubSource{total: 2, gate: make(chan struct{}), entered: make(chan struct{})}
	l := New(src, tasks, model.ModelConfig{})

	done := make(chan error, 1)
	go func() { done <- l.Load(context.Background()) }()
	<-src.entered
	l.Close()
	close(src.gate)
	if err := <-done; err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v := l.View(); v.Status != StatusLoading || len(v.Rows) != 0 {
		t.Fatalf("late response must be dropped, got %+v", v)
	}
}

func TestInvalidate_MarksStale(t *testing.T) {
	src := &stubSource{total: 1}
	l := New(src, tasks, model.ModelConfig{})
	ctx := context.Background()
	l.Load(ctx)

	l.Invalidate(catalog.ItemsKey("users"))
	if l.Stale() {
		t.Fatal("other models must not mark the list stale")
	}
	l.Invalidate(catalog.ItemsKey("tasks"), catalog.AdminConfigKey)
	if !l.Stale() {
		t.Fatal("expected stale list")
	}
	l.Load(ctx)
	if l.Stale() {
		t.Fatal("load should clear the stale flag")
	}
}
