package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	dom "base42/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*TodoCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewTodoCache(rdb, time.Minute), mr
}

func sampleTodo(id, title string) dom.Todo {
	at := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	return dom.Todo{ID: id, Title: title, CreatedAt: at, UpdatedAt: at}
}

func TestTodoCacheList(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	list, err := c.GetList(ctx)
	if err != nil {
		t.Fatalf("GetList on miss: %v", err)
	}
	if list != nil {
		t.Fatalf("expected nil on miss, got %v", list)
	}

	want := []dom.Todo{sampleTodo("b", "second"), sampleTodo("a", "first")}
	if err := c.SetList(ctx, 0, want); err != nil {
		t.Fatalf("SetList: %v", err)
	}
	got, err := c.GetList(ctx)
	if err != nil {
		t.Fatalf("GetList: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b" || !got[0].CreatedAt.Equal(want[0].CreatedAt) {
		t.Errorf("unexpected cached list %+v", got)
	}
	if ttl := mr.TTL(keyList); ttl != time.Minute {
		t.Errorf("expected ttl 1m, got %v", ttl)
	}
}

func TestTodoCacheEmptyListIsAHit(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	if err := c.SetList(ctx, 0, []dom.Todo{}); err != nil {
		t.Fatalf("SetList: %v", err)
	}
	got, err := c.GetList(ctx)
	if err != nil {
		t.Fatalf("GetList: %v", err)
	}
	if got == nil {
		t.Error("cached empty list should be returned as a hit")
	}
}

func TestTodoCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	_ = c.SetList(ctx, 0, []dom.Todo{sampleTodo("a", "first")})
	_ = c.SetTodo(ctx, 0, sampleTodo("a", "first"))
	_ = c.SetTodo(ctx, 0, sampleTodo("b", "other"))

	if _, ok, _ := c.GetTodo(ctx, "a"); !ok {
		t.Fatal("expected todo a to be cached")
	}

	if err := c.Invalidate(ctx, "a"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if mr.Exists(keyList) {
		t.Error("list should be invalidated")
	}
	if _, ok, _ := c.GetTodo(ctx, "a"); ok {
		t.Error("todo a should be invalidated")
	}
	if _, ok, _ := c.GetTodo(ctx, "b"); !ok {
		t.Error("todo b should survive")
	}
}

func TestTodoCacheFillAfterInvalidateIsDropped(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	itemGen, err := c.TodoGeneration(ctx, "a")
	if err != nil {
		t.Fatalf("TodoGeneration: %v", err)
	}
	listGen, err := c.ListGeneration(ctx)
	if err != nil {
		t.Fatalf("ListGeneration: %v", err)
	}

	// A write lands while the reader still holds the values it read.
	if err := c.Invalidate(ctx, "a"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	if err := c.SetTodo(ctx, itemGen, sampleTodo("a", "first")); !errors.Is(err, ErrStale) {
		t.Errorf("SetTodo: expected ErrStale, got %v", err)
	}
	if err := c.SetList(ctx, listGen, []dom.Todo{sampleTodo("a", "first")}); !errors.Is(err, ErrStale) {
		t.Errorf("SetList: expected ErrStale, got %v", err)
	}
	if mr.Exists(keyItem+"a") || mr.Exists(keyList) {
		t.Error("stale values must not be cached")
	}

	// A reader that starts after the write fills normally.
	fresh, _ := c.TodoGeneration(ctx, "a")
	if fresh == itemGen {
		t.Fatal("Invalidate should bump the generation")
	}
	if err := c.SetTodo(ctx, fresh, sampleTodo("a", "renamed")); err != nil {
		t.Fatalf("SetTodo: %v", err)
	}
	if got, ok, _ := c.GetTodo(ctx, "a"); !ok || got.Title != "renamed" {
		t.Errorf("expected fresh fill, got %+v ok=%v", got, ok)
	}
	if ttl := mr.TTL(keyItem + "a" + genSuffix); ttl < time.Hour {
		t.Errorf("generation counter should outlive the data, ttl %v", ttl)
	}
}

func TestTodoCacheInvalidateOnlyBumpsNamedTodos(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	gen, _ := c.TodoGeneration(ctx, "b")
	if err := c.Invalidate(ctx, "a"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if err := c.SetTodo(ctx, gen, sampleTodo("b", "other")); err != nil {
		t.Errorf("unrelated todo should still fill, got %v", err)
	}
}

func TestTodoCacheRedisDown(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	mr.Close()

	if _, err := c.GetList(ctx); err == nil {
		t.Error("expected error when redis is down")
	}
}
