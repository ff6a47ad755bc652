package repo

import (
	"context"
	"sync"
	"time"

	dom "base42/internal/domain"

	"github.com/google/uuid"
)

// SampleTitles seed the demo store, oldest first. The first two start completed.
var SampleTitles = []string{
	"Set up Hono server",
	"Create JSX components",
	"Add Pico CSS styling",
	"Implement database integration",
	"Add authentication system",
}

// MemoryTodoRepo is the demo backing store. It lives for the process and
// serializes every mutation under mu.
type MemoryTodoRepo struct {
	mu    sync.RWMutex
	todos []dom.Todo // newest first

	now   func() time.Time
	newID func() string
}

func NewMemoryTodoRepo() *MemoryTodoRepo {
	return &MemoryTodoRepo{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Seed inserts the sample todos with created_at one minute apart.
func (r *MemoryTodoRepo) Seed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	base := r.now().Add(-time.Duration(len(SampleTitles)) * time.Minute)
	for i, title := range SampleTitles {
		at := base.Add(time.Duration(i) * time.Minute)
		t := dom.Todo{
			ID:        r.newID(),
			Title:     title,
			Completed: i < 2,
			CreatedAt: at,
			UpdatedAt: at,
		}
		r.todos = append([]dom.Todo{t}, r.todos...)
	}
}

func (r *MemoryTodoRepo) List(ctx context.Context) ([]dom.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]dom.Todo, len(r.todos))
	copy(out, r.todos)
	return out, nil
}

func (r *MemoryTodoRepo) GetByID(ctx context.Context, id string) (dom.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.indexOf(id)
	if i < 0 {
		return dom.Todo{}, ErrNotFound
	}
	return r.todos[i], nil
}

func (r *MemoryTodoRepo) Create(ctx context.Context, title string) (dom.Todo, error) {
	title, err := dom.NormalizeTitle(title)
	if err != nil {
		return dom.Todo{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	t := dom.Todo{
		ID:        r.newID(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.todos = append([]dom.Todo{t}, r.todos...)
	return t, nil
}

func (r *MemoryTodoRepo) Update(ctx context.Context, id string, patch dom.TodoPatch) (dom.Todo, error) {
	if patch.Empty() {
		return dom.Todo{}, ErrNoFieldsToUpdate
	}
	var title string
	if patch.Title != nil {
		var err error
		if title, err = dom.NormalizeTitle(*patch.Title); err != nil {
			return dom.Todo{}, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return dom.Todo{}, ErrNotFound
	}
	t := &r.todos[i]
	if patch.Title != nil {
		t.Title = title
	}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
	}
	r.touch(t)
	return *t, nil
}

func (r *MemoryTodoRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexOf(id); i >= 0 {
		r.todos = append(r.todos[:i], r.todos[i+1:]...)
	}
	return nil
}

func (r *MemoryTodoRepo) Toggle(ctx context.Context, id string) (dom.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return dom.Todo{}, ErrNotFound
	}
	t := &r.todos[i]
	t.Completed = !t.Completed
	r.touch(t)
	return *t, nil
}

// touch refreshes UpdatedAt without ever moving it backwards.
func (r *MemoryTodoRepo) touch(t *dom.Todo) {
	now := r.now()
	if now.Before(t.UpdatedAt) {
		now = t.UpdatedAt
	}
	t.UpdatedAt = now
}

func (r *MemoryTodoRepo) indexOf(id string) int {
	for i := range r.todos {
		if r.todos[i].ID == id {
			return i
		}
	}
	return -1
}
