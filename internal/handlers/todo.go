package handlers

import (
	"errors"
	"net/http"

	dom "base42/internal/domain"
	"base42/internal/dto"
	"base42/internal/middleware"
	"base42/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	msgNotFound    = "Todo not found"
	msgInvalidJSON = "Invalid JSON body"
	msgDeleted     = "Todo deleted successfully"
)

type TodoHandler struct {
	svc *service.TodoService
	log logrus.FieldLogger
}

func NewTodoHandler(svc *service.TodoService, log logrus.FieldLogger) *TodoHandler {
	return &TodoHandler{svc: svc, log: log}
}

// Create godoc
// @Summary      Create a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateTodoRequest  true  "Todo body"
// @Success      201   {object}  dto.TodoEnvelope
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /todos [post]
func (h *TodoHandler) Create(c *gin.Context) {
	var req dto.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidJSON})
		return
	}
	title, ok := req.Title.(string)
	if !ok || title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": dom.ValidationMessage(dom.ErrTitleRequired)})
		return
	}

	t, err := h.svc.Create(c.Request.Context(), title)
	if err != nil {
		if errors.Is(err, dom.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": dom.ValidationMessage(err)})
			return
		}
		h.fail(c, "Failed to create todo", err)
		return
	}
	c.JSON(http.StatusCreated, dto.TodoEnvelope{Data: todoToResponse(t)})
}

// List godoc
// @Summary      List all todos, newest first
// @Tags         todos
// @Produce      json
// @Success      200  {object}  dto.ListTodosEnvelope
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /todos [get]
func (h *TodoHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to fetch todos", err)
		return
	}
	c.JSON(http.StatusOK, dto.ListTodosEnvelope{Data: todosToResponses(list)})
}

// GetByID godoc
// @Summary      Get a todo by ID
// @Tags         todos
// @Produce      json
// @Param        id   path      string  true  "Todo ID"
// @Success      200  {object}  dto.TodoEnvelope
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /todos/{id} [get]
func (h *TodoHandler) GetByID(c *gin.Context) {
	t, ok := h.lookup(c, "Failed to fetch todo")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.TodoEnvelope{Data: todoToResponse(t)})
}

// Update godoc
// @Summary      Update a todo
// @Description  Partial update: omitted fields are left untouched.
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        id    path      string  true  "Todo ID"
// @Param        body  body      dto.UpdateTodoRequest  true  "Partial update"
// @Success      200   {object}  dto.TodoEnvelope
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /todos/{id} [put]
func (h *TodoHandler) Update(c *gin.Context) {
	const failMsg = "Failed to update todo"
	if _, ok := h.lookup(c, failMsg); !ok {
		return
	}
	var req dto.UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidJSON})
		return
	}

	t, err := h.svc.Update(c.Request.Context(), c.Param("id"), dom.TodoPatch{
		Title:     req.Title,
		Completed: req.Completed,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
		case errors.Is(err, dom.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": dom.ValidationMessage(err)})
		default:
			h.fail(c, failMsg, err)
		}
		return
	}
	c.JSON(http.StatusOK, dto.TodoEnvelope{Data: todoToResponse(t)})
}

// Delete godoc
// @Summary      Delete a todo
// @Tags         todos
// @Produce      json
// @Param        id   path      string  true  "Todo ID"
// @Success      200  {object}  dto.MessageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /todos/{id} [delete]
func (h *TodoHandler) Delete(c *gin.Context) {
	const failMsg = "Failed to delete todo"
	if _, ok := h.lookup(c, failMsg); !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, failMsg, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: msgDeleted})
}

// Toggle godoc
// @Summary      Flip a todo's completed flag
// @Tags         todos
// @Produce      json
// @Param        id   path      string  true  "Todo ID"
// @Success      200  {object}  dto.TodoEnvelope
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /todos/{id}/toggle [post]
func (h *TodoHandler) Toggle(c *gin.Context) {
	t, err := h.svc.Toggle(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
			return
		}
		h.fail(c, "Failed to toggle todo", err)
		return
	}
	c.JSON(http.StatusOK, dto.TodoEnvelope{Data: todoToResponse(t)})
}

// lookup fetches the todo named by the :id param, writing 404/500 itself
// when it cannot.
func (h *TodoHandler) lookup(c *gin.Context, failMsg string) (dom.Todo, bool) {
	t, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
			return dom.Todo{}, false
		}
		h.fail(c, failMsg, err)
		return dom.Todo{}, false
	}
	return t, true
}

// fail logs the underlying error and answers 500 with a fixed message.
func (h *TodoHandler) fail(c *gin.Context, msg string, err error) {
	h.log.WithFields(logrus.Fields{
		"request_id": middleware.RequestIDFromContext(c),
		"path":       c.FullPath(),
		"todo_id":    c.Param("id"),
	}).WithError(err).Error(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

func todoToResponse(t dom.Todo) dto.TodoResponse {
	return dto.TodoResponse{
		ID:        t.ID,
		Title:     t.Title,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func todosToResponses(list []dom.Todo) []dto.TodoResponse {
	out := make([]dto.TodoResponse, len(list))
	for i := range list {
		out[i] = todoToResponse(list[i])
	}
	return out
}
