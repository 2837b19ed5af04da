package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"milepost-cli/internal/model"
	"milepost-cli/internal/session"
)

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	return session.New(filepath.Join(t.TempDir(), "session.json"))
}

func TestLoginEstablishesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/login" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"tok-1","username":"alice"}`))
	}))
	defer srv.Close()

	sess := newTestSession(t)
	c := New(srv.URL, 0, sess)
	if err := c.Login(context.Background(), "Alice", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got := sess.Username(); got != "alice" {
		t.Fatalf("session username = %q, want canonical alice", got)
	}
	hdr, ok := sess.AuthHeaderValue()
	if !ok || hdr != "Bearer tok-1" {
		t.Fatalf("auth header = %q ok=%v", hdr, ok)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid credentials."}`))
	}))
	defer srv.Close()

	sess := newTestSession(t)
	c := New(srv.URL, 0, sess)
	err := c.Login(context.Background(), "alice", "wrong")
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if ae.Message != "Invalid credentials." {
		t.Fatalf("message = %q", ae.Message)
	}
	if sess.Authenticated() {
		t.Fatalf("failed login must leave the session anonymous")
	}
}

func TestAnonymousCallFailsFast(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := New(srv.URL, 0, newTestSession(t))
	_, err := c.LoadTask(context.Background(), "t1")
	if !errors.Is(err, session.ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if called {
		t.Fatalf("no request should be sent without a token")
	}
}

func TestUnauthorizedForcesLogout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Authentication required."}`))
	}))
	defer srv.Close()

	sess := newTestSession(t)
	if err := sess.Establish("stale-token", "alice"); err != nil {
		t.Fatalf("Establish: %v", err)
	}
	c := New(srv.URL, 0, sess)

	_, err := c.LoadTask(context.Background(), "t1")
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if sess.Authenticated() {
		t.Fatalf("401 must force the session back to anonymous")
	}

	// Follow-up calls now fail locally until a new login succeeds.
	_, err = c.LoadTask(context.Background(), "t1")
	if !errors.Is(err, session.ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired after forced logout, got %v", err)
	}
}

func TestServerErrorCarriesStatusAndMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"Cannot delete milestone: it is a parent to other milestones."}`))
	}))
	defer srv.Close()

	sess := newTestSession(t)
	_ = sess.Establish("tok", "alice")
	c := New(srv.URL, 0, sess)

	err := c.DeleteMilestone(context.Background(), "t1", "m1")
	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServerError, got %v", err)
	}
	if se.Status != http.StatusConflict {
		t.Fatalf("status = %d", se.Status)
	}
	if se.Message == "" {
		t.Fatalf("server message should be preserved")
	}
}

func TestServerErrorNonJSONBodyFallsBackToStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	sess := newTestSession(t)
	_ = sess.Establish("tok", "alice")
	c := New(srv.URL, 0, sess)

	err := c.DeleteTask(context.Background(), "t1")
	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServerError, got %v", err)
	}
	if se.Message != http.StatusText(http.StatusBadGateway) {
		t.Fatalf("message = %q", se.Message)
	}
}

func TestNetworkErrorClassification(t *testing.T) {
	sess := newTestSession(t)
	_ = sess.Establish("tok", "alice")
	// Port 1 on localhost: nothing listens there.
	c := New("http://127.0.0.1:1", 0, sess)

	_, err := c.LoadMilestones(context.Background(), "t1")
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestTaskSummariesSendsFilterParams(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks-summary" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"t1","title":"Urgent thing","status":"todo","priority":2}]`))
	}))
	defer srv.Close()

	sess := newTestSession(t)
	_ = sess.Establish("tok", "alice")
	c := New(srv.URL, 0, sess)

	out, err := c.TaskSummaries(context.Background(), Filter{
		Query:        "urgent",
		Categories:   []string{"work", "home"},
		Statuses:     []string{"todo"},
		DeadlineFrom: "2026-01-01",
		DeadlineTo:   "2026-12-31",
		SortBy:       SortDeadline,
	})
	if err != nil {
		t.Fatalf("TaskSummaries: %v", err)
	}
	if len(out) != 1 || out[0].ID != "t1" {
		t.Fatalf("unexpected summaries: %+v", out)
	}

	want := map[string]string{
		"q":          "urgent",
		"categories": "work,home",
		"statuses":   "todo",
		"deadlineRF": "2026-01-01",
		"deadlineRT": "2026-12-31",
		"sortBy":     "deadline",
	}
	for k, v := range want {
		if len(gotQuery[k]) != 1 || gotQuery[k][0] != v {
			t.Fatalf("param %s = %v, want %q", k, gotQuery[k], v)
		}
	}
	if _, ok := gotQuery["createdRF"]; ok {
		t.Fatalf("empty ranges must not be sent")
	}
}

func TestSaveTaskSendsBodyAndAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/save-task/t1" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Fatalf("auth header = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"saved"}`))
	}))
	defer srv.Close()

	sess := newTestSession(t)
	_ = sess.Establish("tok", "alice")
	c := New(srv.URL, 0, sess)

	if err := c.SaveTask(context.Background(), model.Task{ID: "t1", Title: "x"}); err != nil {
		t.Fatalf("SaveTask: %v", err)
	}
}
