package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	dom "base42/internal/domain"
)

// QueryTodoRepo talks to a remote query-executing endpoint that accepts
// {"query": ..., "params": [...]} and answers {"rows": [...]}.
type QueryTodoRepo struct {
	endpoint string
	client   *http.Client
}

// NewQueryTodoRepo returns a repo posting to endpoint. A nil client means http.DefaultClient.
func NewQueryTodoRepo(endpoint string, client *http.Client) *QueryTodoRepo {
	if client == nil {
		client = http.DefaultClient
	}
	return &QueryTodoRepo{endpoint: endpoint, client: client}
}

type queryRequest struct {
	Query  string `json:"query"`
	Params []any  `json:"params"`
}

type queryResponse struct {
	Rows []todoRow `json:"rows"`
}

type todoRow struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Completed bool    `json:"completed"`
	CreatedAt rowTime `json:"created_at"`
	UpdatedAt rowTime `json:"updated_at"`
}

func (r todoRow) todo() dom.Todo {
	return dom.Todo{
		ID:        r.ID,
		Title:     r.Title,
		Completed: r.Completed,
		CreatedAt: r.CreatedAt.t,
		UpdatedAt: r.UpdatedAt.t,
	}
}

// rowTime parses timestamps as RFC3339 or the Postgres text form
// ("2006-01-02 15:04:05.999999+00").
type rowTime struct{ t time.Time }

func (rt *rowTime) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		rt.t = time.Time{}
		return nil
	}
	s := strings.TrimSpace(*raw)
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02 15:04:05.999999999Z07",
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			rt.t = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

func (r *QueryTodoRepo) List(ctx context.Context) ([]dom.Todo, error) {
	rows, err := r.query(ctx, listTodosSQL)
	if err != nil {
		return nil, err
	}
	list := make([]dom.Todo, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.todo())
	}
	return list, nil
}

func (r *QueryTodoRepo) GetByID(ctx context.Context, id string) (dom.Todo, error) {
	return r.queryOne(ctx, getTodoSQL, id)
}

func (r *QueryTodoRepo) Create(ctx context.Context, title string) (dom.Todo, error) {
	title, err := dom.NormalizeTitle(title)
	if err != nil {
		return dom.Todo{}, err
	}
	return r.queryOne(ctx, createTodoSQL, title, false)
}

func (r *QueryTodoRepo) Update(ctx context.Context, id string, patch dom.TodoPatch) (dom.Todo, error) {
	query, args, err := buildUpdate(id, patch)
	if err != nil {
		return dom.Todo{}, err
	}
	return r.queryOne(ctx, query, args...)
}

func (r *QueryTodoRepo) Delete(ctx context.Context, id string) error {
	_, err := r.query(ctx, deleteTodoSQL, id)
	return err
}

func (r *QueryTodoRepo) Toggle(ctx context.Context, id string) (dom.Todo, error) {
	return r.queryOne(ctx, toggleTodoSQL, id)
}

func (r *QueryTodoRepo) queryOne(ctx context.Context, query string, params ...any) (dom.Todo, error) {
	rows, err := r.query(ctx, query, params...)
	if err != nil {
		return dom.Todo{}, err
	}
	if len(rows) == 0 {
		return dom.Todo{}, ErrNotFound
	}
	return rows[0].todo(), nil
}

func (r *QueryTodoRepo) query(ctx context.Context, query string, params ...any) ([]todoRow, error) {
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(queryRequest{Query: query, Params: params})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: database query failed: %s", ErrUnavailable, resp.Status)
	}

	var out queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty response body", ErrUnavailable)
		}
		return nil, fmt.Errorf("%w: decode rows: %v", ErrUnavailable, err)
	}
	return out.Rows, nil
}
