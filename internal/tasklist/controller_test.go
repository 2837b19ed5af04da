package tasklist

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"milepost-cli/internal/api"
	"milepost-cli/internal/cache"
	"milepost-cli/internal/model"
	"milepost-cli/internal/session"
)

func newController(t *testing.T, handler http.HandlerFunc) (*Controller, *atomic.Int64) {
	t.Helper()

	var count atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	sess := session.New(filepath.Join(t.TempDir(), "session.json"))
	if err := sess.Establish("tok", "alice"); err != nil {
		t.Fatalf("Establish: %v", err)
	}
	c, err := cache.Open(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	return New(api.New(srv.URL, 0, sess), c), &count
}

func TestFetchIssuesExactlyOneRequestPerChange(t *testing.T) {
	ctrl, count := newController(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "urgent" {
			t.Fatalf("q = %q", got)
		}
		if got := r.URL.Query().Get("statuses"); got != "todo" {
			t.Fatalf("statuses = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"t1","title":"urgent thing","status":"todo"}]`))
	})

	ctx := context.Background()
	ctrl.SetFilter(ctx, api.Filter{Query: "urgent", Statuses: []string{"todo"}, SortBy: api.SortUpdatedAt})
	if err := ctrl.Fetch(ctx); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if count.Load() != 1 {
		t.Fatalf("expected exactly one summary request, got %d", count.Load())
	}
	buckets := ctrl.Buckets()
	if len(buckets) != 1 || len(buckets[0].Tasks) != 1 || buckets[0].Tasks[0].ID != "t1" {
		t.Fatalf("buckets = %+v", buckets)
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	ctrl, _ := newController(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	oldToken, _ := ctrl.Begin()
	newToken, _ := ctrl.Begin()

	// The newer request resolves first.
	if !ctrl.Apply(newToken, []model.TaskSummary{{ID: "new"}}, nil) {
		t.Fatalf("newest response must be applied")
	}
	// The older, slower response arrives afterwards and must be dropped.
	if ctrl.Apply(oldToken, []model.TaskSummary{{ID: "old"}}, nil) {
		t.Fatalf("stale response must be discarded")
	}
	buckets := ctrl.Buckets()
	if len(buckets) != 1 || buckets[0].Tasks[0].ID != "new" {
		t.Fatalf("stale response overwrote newer state: %+v", buckets)
	}
}

func TestFetchErrorBecomesInlineState(t *testing.T) {
	ctrl, _ := newController(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"summary query failed"}`))
	})

	err := ctrl.Fetch(context.Background())
	var se *api.ServerError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServerError, got %v", err)
	}
	if ctrl.Err() == nil {
		t.Fatalf("controller should hold the inline error state")
	}
	if ctrl.Buckets() != nil {
		t.Fatalf("error state should replace the list")
	}

	// A later successful fetch clears the error.
	ok := ctrl.Apply(ctrl.applied+1, []model.TaskSummary{{ID: "t1"}}, nil)
	if !ok || ctrl.Err() != nil {
		t.Fatalf("successful apply should clear the inline error")
	}
}

func TestSetGroupRegroupsWithoutRefetch(t *testing.T) {
	ctrl, count := newController(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"t1","status":"todo"},{"id":"t2","status":"done"}]`))
	})

	if err := ctrl.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	ctrl.SetGroup(GroupStatus)
	if count.Load() != 1 {
		t.Fatalf("regrouping must not refetch, saw %d requests", count.Load())
	}
	if got := len(ctrl.Buckets()); got != 2 {
		t.Fatalf("expected 2 status buckets, got %d", got)
	}
}

func TestSelectionsPersistAcrossControllers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	sess := session.New(filepath.Join(t.TempDir(), "session.json"))
	_ = sess.Establish("tok", "alice")
	cacheDir := t.TempDir()
	c, err := cache.Open(context.Background(), cacheDir)
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	client := api.New(srv.URL, 0, sess)

	ctrl := New(client, c)
	ctrl.SetFilter(ctx, api.Filter{Categories: []string{"work"}, Statuses: []string{"todo", "doing"}})
	ctrl.SetFilterSectionVisible(ctx, false)

	ctrl2 := New(client, c)
	ctrl2.RestoreSelections(ctx)
	f := ctrl2.Filter()
	if len(f.Categories) != 1 || f.Categories[0] != "work" {
		t.Fatalf("categories not restored: %+v", f)
	}
	if len(f.Statuses) != 2 {
		t.Fatalf("statuses not restored: %+v", f)
	}
	if ctrl2.FilterSectionVisible(ctx) {
		t.Fatalf("filter section visibility not restored")
	}
}

func TestOpenFetchesFullRecordAndMirrors(t *testing.T) {
	ctrl, _ := newController(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/load-task/t1" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"t1","title":"full","description":"<p>rich</p>","creator":"alice"}`))
	})

	got, err := ctrl.Open(context.Background(), "t1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got.Description == "" {
		t.Fatalf("full record should include heavy fields")
	}
	mirrored, ok, _ := ctrl.cache.Task(context.Background(), "t1")
	if !ok || mirrored.Title != "full" {
		t.Fatalf("opened task should be mirrored: ok=%v %+v", ok, mirrored)
	}
}
