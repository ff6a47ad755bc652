package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	dom "base42/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	keyList   = "todo:list"
	keyItem   = "todo:item:"
	genSuffix = ":gen"

	// Generation counters outlive the data they guard so a slow read cannot
	// observe a counter that expired and restarted at zero.
	minGenTTL = time.Hour
)

// ErrStale is returned by SetList/SetTodo when a write happened after the
// caller took its generation, so the value it read may already be outdated.
var ErrStale = errors.New("cache: stale value not stored")

// Generation is a snapshot of a key's write counter, taken before reading
// the store and handed back when filling the cache.
type Generation int64

// TodoCache caches the todo list and single todos in Redis.
type TodoCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTodoCache returns a new TodoCache.
func NewTodoCache(rdb *redis.Client, ttl time.Duration) *TodoCache {
	return &TodoCache{rdb: rdb, ttl: ttl}
}

// GetList returns cached list or nil if miss.
func (c *TodoCache) GetList(ctx context.Context) ([]dom.Todo, error) {
	var list []dom.Todo
	ok, err := c.get(ctx, keyList, &list)
	if err != nil || !ok {
		return nil, err
	}
	if list == nil {
		list = []dom.Todo{}
	}
	return list, nil
}

// ListGeneration snapshots the list's write counter.
func (c *TodoCache) ListGeneration(ctx context.Context) (Generation, error) {
	return c.generation(ctx, keyList)
}

// SetList stores the list unless a write bumped its generation since gen.
func (c *TodoCache) SetList(ctx context.Context, gen Generation, list []dom.Todo) error {
	return c.set(ctx, keyList, gen, list)
}

// GetTodo returns the cached todo and whether it was a hit.
func (c *TodoCache) GetTodo(ctx context.Context, id string) (dom.Todo, bool, error) {
	var t dom.Todo
	ok, err := c.get(ctx, keyItem+id, &t)
	return t, ok, err
}

// TodoGeneration snapshots the write counter of one todo.
func (c *TodoCache) TodoGeneration(ctx context.Context, id string) (Generation, error) {
	return c.generation(ctx, keyItem+id)
}

// SetTodo stores a single todo unless a write bumped its generation since gen.
func (c *TodoCache) SetTodo(ctx context.Context, gen Generation, t dom.Todo) error {
	return c.set(ctx, keyItem+t.ID, gen, t)
}

// Invalidate drops the list and the given todos and bumps their generations,
// so fills that read the store before this call are discarded.
func (c *TodoCache) Invalidate(ctx context.Context, ids ...string) error {
	keys := []string{keyList}
	for _, id := range ids {
		keys = append(keys, keyItem+id)
	}
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, k := range keys {
			p.Incr(ctx, k+genSuffix)
			p.Expire(ctx, k+genSuffix, c.genTTL())
		}
		p.Del(ctx, keys...)
		return nil
	})
	return err
}

func (c *TodoCache) genTTL() time.Duration {
	if ttl := 10 * c.ttl; ttl > minGenTTL {
		return ttl
	}
	return minGenTTL
}

func (c *TodoCache) generation(ctx context.Context, key string) (Generation, error) {
	n, err := c.rdb.Get(ctx, key+genSuffix).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return Generation(n), err
}

func (c *TodoCache) get(ctx context.Context, key string, dst any) (bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, err
	}
	return true, nil
}

// set writes key only while its generation still equals gen. WATCH aborts the
// transaction if an Invalidate lands between the check and the SET.
func (c *TodoCache) set(ctx context.Context, key string, gen Generation, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	genKey := key + genSuffix
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if Generation(cur) != gen {
			return ErrStale
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, b, c.ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStale
	}
	return err
}
