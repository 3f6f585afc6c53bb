// Package rest implements backend.TaskAPI against the remote task service.
package rest

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"taskdesk/backend"
	"taskdesk/internal/gateway"
	"taskdesk/internal/utils"
)

// Backend implements backend.TaskAPI over HTTP
type Backend struct {
	gw *gateway.Gateway
}

// Compile-time interface check
var _ backend.TaskAPI = (*Backend)(nil)

// New creates a REST backend on top of a gateway.
func New(gw *gateway.Gateway) *Backend {
	return &Backend{gw: gw}
}

// Gateway exposes the underlying gateway (for loading state).
func (b *Backend) Gateway() *gateway.Gateway {
	return b.gw
}

// Close releases idle connections.
func (b *Backend) Close() error {
	return b.gw.Close()
}

// =============================================================================
// Users
// =============================================================================

// GetUsers returns the reference users.
func (b *Backend) GetUsers(ctx context.Context) ([]backend.User, error) {
	var users []backend.User
	if err := b.gw.Do(ctx, gateway.Request{Command: "/users", Method: gateway.GET}, &users); err != nil {
		return nil, b.wrap(err, "")
	}

	for i := range users {
		if err := users[i].Validate(); err != nil {
			return nil, err
		}
	}
	if users == nil {
		users = []backend.User{}
	}
	return users, nil
}

// Authenticate calls GET /auth with the credentials as the body.
func (b *Backend) Authenticate(ctx context.Context, email, password string) error {
	args := map[string]string{"email": email, "password": password}
	if err := b.gw.Do(ctx, gateway.Request{Command: "/auth", Method: gateway.GET, Args: args}, nil); err != nil {
		return b.wrap(err, "")
	}
	return nil
}

// =============================================================================
// Tasks
// =============================================================================

// GetTasks returns the full task collection.
func (b *Backend) GetTasks(ctx context.Context) ([]backend.Task, error) {
	var tasks []backend.Task
	if err := b.gw.Do(ctx, gateway.Request{Command: "/todo", Method: gateway.GET}, &tasks); err != nil {
		return nil, b.wrap(err, "")
	}

	for i := range tasks {
		tasks[i].Normalize()
		if err := tasks[i].Validate(); err != nil {
			return nil, err
		}
	}
	if tasks == nil {
		tasks = []backend.Task{}
	}
	return tasks, nil
}

// createPayload is a Task without its id.
type createPayload struct {
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	DueDate      string           `json:"dueDate"`
	AssignedUser string           `json:"assignedUser"`
	Priority     backend.Priority `json:"priority"`
	Status       backend.Status   `json:"status"`
	Tags         []string         `json:"tags"`
}

// CreateTask posts a new task. The status is always sent as todo.
func (b *Backend) CreateTask(ctx context.Context, task *backend.Task) (*backend.Task, error) {
	payload := createPayload{
		Title:        task.Title,
		Description:  task.Description,
		DueDate:      task.DueDate,
		AssignedUser: task.AssignedUser,
		Priority:     task.Priority,
		Status:       backend.StatusTodo,
		Tags:         task.Tags,
	}
	if payload.Tags == nil {
		payload.Tags = []string{}
	}

	var created backend.Task
	if err := b.gw.Do(ctx, gateway.Request{Command: "/todo", Method: gateway.POST, Args: payload}, &created); err != nil {
		return nil, b.wrap(err, "")
	}
	return checked(&created)
}

// PatchTask sends a partial update. A nil task is returned when the server
// replies without a body.
func (b *Backend) PatchTask(ctx context.Context, id string, fields map[string]any) (*backend.Task, error) {
	var updated backend.Task
	req := gateway.Request{Command: taskPath(id), Method: gateway.PATCH, Args: fields}
	if err := b.gw.Do(ctx, req, &updated); err != nil {
		return nil, b.wrap(err, id)
	}
	return checked(&updated)
}

// DeleteTask removes a task.
func (b *Backend) DeleteTask(ctx context.Context, id string) error {
	if err := b.gw.Do(ctx, gateway.Request{Command: taskPath(id), Method: gateway.DELETE}, nil); err != nil {
		return b.wrap(err, id)
	}
	return nil
}

func taskPath(id string) string {
	return "/todo/" + url.PathEscape(id)
}

// checked validates a returned task. Empty replies yield nil.
func checked(t *backend.Task) (*backend.Task, error) {
	if t.ID == "" && t.Title == "" {
		return nil, nil
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// wrap turns gateway failures into user-facing errors.
func (b *Backend) wrap(err error, taskID string) error {
	var apiErr *gateway.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Status == 0 && apiErr.Err != nil:
		return utils.ErrBackendOffline(b.gw.BaseURL(), apiErr.Err.Error())
	case taskID != "" && apiErr.Status == http.StatusNotFound:
		return utils.ErrTaskNotFound(taskID)
	}
	return err
}
