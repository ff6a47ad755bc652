package repo

import (
	"context"
	"errors"
	"fmt"

	dom "base42/internal/domain"
	"base42/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound         = errors.New("todo not found")
	ErrNoFieldsToUpdate = errors.New("no fields to update")
	ErrUnavailable      = errors.New("store unavailable")
)

// TodoRepo is the authoritative record set. Implementations: Postgres,
// remote query endpoint and in-memory.
type TodoRepo interface {
	List(ctx context.Context) ([]dom.Todo, error)
	GetByID(ctx context.Context, id string) (dom.Todo, error)
	Create(ctx context.Context, title string) (dom.Todo, error)
	Update(ctx context.Context, id string, patch dom.TodoPatch) (dom.Todo, error)
	Delete(ctx context.Context, id string) error
	Toggle(ctx context.Context, id string) (dom.Todo, error)
}

type PGTodoRepo struct {
	db *pgxpool.Pool
}

func NewPGTodoRepo(db *pgxpool.Pool) *PGTodoRepo {
	return &PGTodoRepo{db: db}
}

func (r *PGTodoRepo) List(ctx context.Context) ([]dom.Todo, error) {
	rows, err := r.db.Query(ctx, listTodosSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []dom.Todo{}
	for rows.Next() {
		var t dom.Todo
		if err := rows.Scan(&t.ID, &t.Title, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *PGTodoRepo) GetByID(ctx context.Context, id string) (dom.Todo, error) {
	return r.queryOne(ctx, getTodoSQL, id)
}

func (r *PGTodoRepo) Create(ctx context.Context, title string) (dom.Todo, error) {
	title, err := dom.NormalizeTitle(title)
	if err != nil {
		return dom.Todo{}, err
	}
	return r.queryOne(ctx, createTodoSQL, title, false)
}

func (r *PGTodoRepo) Update(ctx context.Context, id string, patch dom.TodoPatch) (dom.Todo, error) {
	query, args, err := buildUpdate(id, patch)
	if err != nil {
		return dom.Todo{}, err
	}
	return r.queryOne(ctx, query, args...)
}

func (r *PGTodoRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, deleteTodoSQL, id)
	if utils.IsPGInvalidInput(err) {
		return nil
	}
	return err
}

func (r *PGTodoRepo) Toggle(ctx context.Context, id string) (dom.Todo, error) {
	return r.queryOne(ctx, toggleTodoSQL, id)
}

func (r *PGTodoRepo) queryOne(ctx context.Context, query string, args ...any) (dom.Todo, error) {
	var t dom.Todo
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&t.ID, &t.Title, &t.Completed, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		// A malformed uuid can never match a row.
		if errors.Is(err, pgx.ErrNoRows) || utils.IsPGInvalidInput(err) {
			return dom.Todo{}, ErrNotFound
		}
		return dom.Todo{}, fmt.Errorf("pg: %w", err)
	}
	return t, nil
}
