package repo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	dom "base42/internal/domain"
)

// fakeEndpoint records every query and answers with a canned response.
type fakeEndpoint struct {
	mu       sync.Mutex
	requests []queryRequest
	status   int
	body     string
}

func (f *fakeEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	status, body := f.status, f.body
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (f *fakeEndpoint) last(t *testing.T) queryRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatal("no query was sent")
	}
	return f.requests[len(f.requests)-1]
}

func newQueryRepo(t *testing.T, f *fakeEndpoint) *QueryTodoRepo {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return NewQueryTodoRepo(srv.URL, srv.Client())
}

const oneRow = `{"rows":[{"id":"7d3c","title":"Write docs","completed":true,
	"created_at":"2025-03-01 10:00:00.123456+00","updated_at":"2025-03-01T10:05:00Z"}]}`

func TestQueryTodoRepoList(t *testing.T) {
	f := &fakeEndpoint{body: oneRow}
	r := newQueryRepo(t, f)

	list, err := r.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 todo, got %d", len(list))
	}
	got := list[0]
	if got.ID != "7d3c" || got.Title != "Write docs" || !got.Completed {
		t.Errorf("unexpected todo %+v", got)
	}
	wantCreated := time.Date(2025, 3, 1, 10, 0, 0, 123456000, time.UTC)
	if !got.CreatedAt.Equal(wantCreated) {
		t.Errorf("created_at: expected %v, got %v", wantCreated, got.CreatedAt)
	}

	req := f.last(t)
	if !strings.Contains(req.Query, "ORDER BY created_at DESC") {
		t.Errorf("list query should order newest first: %s", req.Query)
	}
	if req.Params == nil || len(req.Params) != 0 {
		t.Errorf("expected empty params array, got %#v", req.Params)
	}
}

func TestQueryTodoRepoGetByIDNotFound(t *testing.T) {
	f := &fakeEndpoint{body: `{"rows":[]}`}
	r := newQueryRepo(t, f)

	_, err := r.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if p := f.last(t).Params; len(p) != 1 || p[0] != "missing" {
		t.Errorf("expected id param, got %#v", p)
	}
}

func TestQueryTodoRepoUnavailable(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		f := &fakeEndpoint{status: http.StatusBadGateway, body: `oops`}
		r := newQueryRepo(t, f)
		if _, err := r.List(context.Background()); !errors.Is(err, ErrUnavailable) {
			t.Errorf("expected ErrUnavailable, got %v", err)
		}
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		r := NewQueryTodoRepo(url, nil)
		if _, err := r.List(context.Background()); !errors.Is(err, ErrUnavailable) {
			t.Errorf("expected ErrUnavailable, got %v", err)
		}
	})

	t.Run("empty 2xx body", func(t *testing.T) {
		f := &fakeEndpoint{}
		r := newQueryRepo(t, f)
		ctx := context.Background()
		if _, err := r.GetByID(ctx, "7d3c"); !errors.Is(err, ErrUnavailable) || errors.Is(err, ErrNotFound) {
			t.Errorf("GetByID: expected ErrUnavailable, got %v", err)
		}
		if _, err := r.Toggle(ctx, "7d3c"); !errors.Is(err, ErrUnavailable) {
			t.Errorf("Toggle: expected ErrUnavailable, got %v", err)
		}
		if _, err := r.Create(ctx, "Write docs"); !errors.Is(err, ErrUnavailable) {
			t.Errorf("Create: expected ErrUnavailable, got %v", err)
		}
	})

	t.Run("garbage body", func(t *testing.T) {
		f := &fakeEndpoint{body: `{"rows": "nope"}`}
		r := newQueryRepo(t, f)
		if _, err := r.List(context.Background()); !errors.Is(err, ErrUnavailable) {
			t.Errorf("expected ErrUnavailable, got %v", err)
		}
	})
}

func TestQueryTodoRepoCreate(t *testing.T) {
	f := &fakeEndpoint{body: oneRow}
	r := newQueryRepo(t, f)

	if _, err := r.Create(context.Background(), "  Write docs "); err != nil {
		t.Fatalf("Create: %v", err)
	}
	req := f.last(t)
	if !strings.Contains(req.Query, "INSERT INTO todos") {
		t.Errorf("unexpected query %s", req.Query)
	}
	if len(req.Params) != 2 || req.Params[0] != "Write docs" || req.Params[1] != false {
		t.Errorf("unexpected params %#v", req.Params)
	}

	if _, err := r.Create(context.Background(), "   "); !errors.Is(err, dom.ErrTitleEmpty) {
		t.Errorf("expected ErrTitleEmpty, got %v", err)
	}
	if len(f.requests) != 1 {
		t.Errorf("invalid title must not reach the endpoint")
	}
}

func TestQueryTodoRepoUpdateAndToggle(t *testing.T) {
	f := &fakeEndpoint{body: oneRow}
	r := newQueryRepo(t, f)
	ctx := context.Background()

	done := true
	if _, err := r.Update(ctx, "7d3c", dom.TodoPatch{Completed: &done}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	req := f.last(t)
	if !strings.Contains(req.Query, "completed = $1") || !strings.Contains(req.Query, "WHERE id = $2") {
		t.Errorf("unexpected update query %s", req.Query)
	}

	if _, err := r.Update(ctx, "7d3c", dom.TodoPatch{}); !errors.Is(err, ErrNoFieldsToUpdate) {
		t.Errorf("expected ErrNoFieldsToUpdate, got %v", err)
	}

	if _, err := r.Toggle(ctx, "7d3c"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if q := f.last(t).Query; !strings.Contains(q, "completed = NOT completed") {
		t.Errorf("toggle must be a single flip statement, got %s", q)
	}
}

func TestQueryTodoRepoDelete(t *testing.T) {
	f := &fakeEndpoint{body: `{"rows":[]}`}
	r := newQueryRepo(t, f)
	if err := r.Delete(context.Background(), "7d3c"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if q := f.last(t).Query; !strings.HasPrefix(q, "DELETE FROM todos") {
		t.Errorf("unexpected delete query %s", q)
	}
}
