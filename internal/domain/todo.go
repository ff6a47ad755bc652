package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTitleLength is the longest title accepted, counted in characters after trimming.
const MaxTitleLength = 255

// Domain entity: the source of truth for a todo.
// Does not depend on Gin, Postgres or Redis.
type Todo struct {
	ID        string
	Title     string
	Completed bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TodoPatch carries the fields of a partial update. Nil means "leave unchanged".
type TodoPatch struct {
	Title     *string
	Completed *bool
}

// Empty reports whether the patch changes nothing.
func (p TodoPatch) Empty() bool {
	return p.Title == nil && p.Completed == nil
}

// ErrValidation matches every *ValidationError under errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError is a rejected input. Message is safe to show to clients.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return "validation failed: " + e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

var (
	ErrTitleRequired = &ValidationError{Message: "Title is required and must be a string"}
	ErrTitleEmpty    = &ValidationError{Message: "Title cannot be empty"}
	ErrTitleTooLong  = &ValidationError{Message: "Title must be less than 255 characters"}
)

// NormalizeTitle trims the title and checks it against the length bounds.
func NormalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrTitleEmpty
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}

// ValidationMessage returns the client-facing text of a validation error,
// or the plain error text for anything else.
func ValidationMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}
