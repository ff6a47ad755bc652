package dto

import "time"

// CreateTodoRequest keeps title untyped so a non-string title is reported
// as a validation error rather than a decoding error.
type CreateTodoRequest struct {
	Title any `json:"title" swaggertype:"string"`
}

// UpdateTodoRequest is a partial update; nil = не менять.
type UpdateTodoRequest struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

type TodoResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TodoEnvelope struct {
	Data TodoResponse `json:"data"`
}

type ListTodosEnvelope struct {
	Data []TodoResponse `json:"data"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
