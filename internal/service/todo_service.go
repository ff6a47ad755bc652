package service

import (
	"context"
	"time"

	"base42/internal/cache"
	dom "base42/internal/domain"
	"base42/internal/repo"

	"golang.org/x/sync/singleflight"
)

var (
	ErrNotFound         = repo.ErrNotFound
	ErrNoFieldsToUpdate = repo.ErrNoFieldsToUpdate
)

type TodoService struct {
	repo  repo.TodoRepo
	cache *cache.TodoCache
	sf    singleflight.Group
}

// NewTodoService creates a TodoService. If c is nil, caching is disabled.
func NewTodoService(r repo.TodoRepo, c *cache.TodoCache) *TodoService {
	return &TodoService{repo: r, cache: c}
}

// sharedReadTimeout bounds a coalesced read once it no longer follows the
// first caller's context.
const sharedReadTimeout = 30 * time.Second

// detach keeps ctx values but drops its cancellation, so one aborted request
// does not fail every caller waiting on the same singleflight key.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), sharedReadTimeout)
}

func (s *TodoService) List(ctx context.Context) ([]dom.Todo, error) {
	if s.cache == nil {
		return s.repo.List(ctx)
	}
	v, err, _ := s.sf.Do("list", func() (interface{}, error) {
		ctx, cancel := detach(ctx)
		defer cancel()
		if list, err := s.cache.GetList(ctx); err == nil && list != nil {
			return list, nil
		}
		gen, genErr := s.cache.ListGeneration(ctx)
		list, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		if genErr == nil {
			_ = s.cache.SetList(ctx, gen, list)
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]dom.Todo), nil
}

func (s *TodoService) GetByID(ctx context.Context, id string) (dom.Todo, error) {
	if s.cache == nil {
		return s.repo.GetByID(ctx, id)
	}
	v, err, _ := s.sf.Do("todo:"+id, func() (interface{}, error) {
		ctx, cancel := detach(ctx)
		defer cancel()
		if t, ok, err := s.cache.GetTodo(ctx, id); err == nil && ok {
			return t, nil
		}
		gen, genErr := s.cache.TodoGeneration(ctx, id)
		t, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if genErr == nil {
			_ = s.cache.SetTodo(ctx, gen, t)
		}
		return t, nil
	})
	if err != nil {
		return dom.Todo{}, err
	}
	return v.(dom.Todo), nil
}

// Create validates and trims the title before the store sees it.
func (s *TodoService) Create(ctx context.Context, title string) (dom.Todo, error) {
	title, err := dom.NormalizeTitle(title)
	if err != nil {
		return dom.Todo{}, err
	}
	t, err := s.repo.Create(ctx, title)
	if err != nil {
		return dom.Todo{}, err
	}
	s.invalidateCache(ctx)
	return t, nil
}

// Update applies a partial update. Existence is the caller's pre-check;
// a record deleted in between still surfaces as ErrNotFound from the store.
func (s *TodoService) Update(ctx context.Context, id string, patch dom.TodoPatch) (dom.Todo, error) {
	if patch.Title != nil {
		title, err := dom.NormalizeTitle(*patch.Title)
		if err != nil {
			return dom.Todo{}, err
		}
		patch.Title = &title
	}
	t, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return dom.Todo{}, err
	}
	s.invalidateCache(ctx, id)
	return t, nil
}

// Toggle flips completed in a single store operation.
func (s *TodoService) Toggle(ctx context.Context, id string) (dom.Todo, error) {
	t, err := s.repo.Toggle(ctx, id)
	if err != nil {
		return dom.Todo{}, err
	}
	s.invalidateCache(ctx, id)
	return t, nil
}

func (s *TodoService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateCache(ctx, id)
	return nil
}

func (s *TodoService) invalidateCache(ctx context.Context, ids ...string) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, ids...)
	}
}
