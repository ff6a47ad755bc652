package repo

import (
	"fmt"
	"strings"

	dom "base42/internal/domain"
)

// SQL shared by the Postgres pool and the remote query endpoint.
const (
	todoColumns = `id::text AS id, title, completed, created_at, updated_at`

	listTodosSQL = `
		SELECT ` + todoColumns + `
		FROM todos
		ORDER BY created_at DESC`

	getTodoSQL = `
		SELECT ` + todoColumns + `
		FROM todos
		WHERE id = $1`

	createTodoSQL = `
		INSERT INTO todos (title, completed)
		VALUES ($1, $2)
		RETURNING ` + todoColumns

	deleteTodoSQL = `DELETE FROM todos WHERE id = $1`

	// Single statement so concurrent toggles cannot lose a flip.
	toggleTodoSQL = `
		UPDATE todos SET completed = NOT completed, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + todoColumns
)

// buildUpdate renders a partial UPDATE touching only the supplied fields.
func buildUpdate(id string, patch dom.TodoPatch) (string, []any, error) {
	if patch.Empty() {
		return "", nil, ErrNoFieldsToUpdate
	}

	var sets []string
	var args []any
	if patch.Title != nil {
		title, err := dom.NormalizeTitle(*patch.Title)
		if err != nil {
			return "", nil, err
		}
		args = append(args, title)
		sets = append(sets, fmt.Sprintf("title = $%d", len(args)))
	}
	if patch.Completed != nil {
		args = append(args, *patch.Completed)
		sets = append(sets, fmt.Sprintf("completed = $%d", len(args)))
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE todos SET %s
		WHERE id = $%d
		RETURNING %s`, strings.Join(sets, ", "), len(args), todoColumns)
	return query, args, nil
}
