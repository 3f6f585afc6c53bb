// Package sqlite implements backend.TaskAPI on a local SQLite database so the
// client can run without a task server.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"taskdesk/backend"
	"taskdesk/internal/utils"
)

// Backend implements backend.TaskAPI using SQLite
type Backend struct {
	db *sql.DB
}

// New opens (or creates) the database at path and initializes the schema.
func New(path string) (*Backend, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one connection keeps :memory: databases shared and serializes writes
	db.SetMaxOpenConns(1)

	b := &Backend{db: db}
	if err := b.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return b, nil
}

// initSchema creates the database tables if they don't exist
func (b *Backend) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			due_date TEXT NOT NULL DEFAULT '',
			assigned_user TEXT NOT NULL DEFAULT '',
			priority TEXT NOT NULL DEFAULT 'Low',
			status TEXT NOT NULL DEFAULT 'todo',
			tags TEXT NOT NULL DEFAULT '[]',
			created TEXT NOT NULL,
			modified TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
		CREATE INDEX IF NOT EXISTS idx_tasks_assigned_user ON tasks(assigned_user);
	`

	_, err := b.db.Exec(schema)
	return err
}

// SeedUsers inserts or renames the given users.
func (b *Backend) SeedUsers(ctx context.Context, users []backend.User) error {
	for _, u := range users {
		if err := u.Validate(); err != nil {
			return err
		}
		_, err := b.db.ExecContext(ctx,
			`INSERT INTO users (id, name) VALUES (?, ?)
			 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
			u.ID, u.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.ID, err)
		}
	}
	return nil
}

// GetUsers returns all users ordered by id.
func (b *Backend) GetUsers(ctx context.Context) ([]backend.User, error) {
	rows, err := b.db.QueryContext(ctx, "SELECT id, name FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	users := []backend.User{}
	for rows.Next() {
		var u backend.User
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Authenticate always succeeds locally; the session gate does the credential check.
func (b *Backend) Authenticate(ctx context.Context, email, password string) error {
	return b.db.PingContext(ctx)
}

const taskColumns = `id, title, description, due_date, assigned_user, priority, status, tags`

// GetTasks returns all tasks in insertion order.
func (b *Backend) GetTasks(ctx context.Context) ([]backend.Task, error) {
	rows, err := b.db.QueryContext(ctx, "SELECT "+taskColumns+" FROM tasks ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	tasks := []backend.Task{}
	for rows.Next() {
		t, err := scanTaskFrom(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// GetTask returns a task by id, or nil when absent.
func (b *Backend) GetTask(ctx context.Context, id string) (*backend.Task, error) {
	row := b.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	t, err := scanTaskFrom(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// scanner is an interface satisfied by both *sql.Rows and *sql.Row
type scanner interface {
	Scan(dest ...any) error
}

// scanTaskFrom scans a task from any scanner (Rows or Row)
func scanTaskFrom(s scanner) (*backend.Task, error) {
	var t backend.Task
	var tagsStr string

	err := s.Scan(&t.ID, &t.Title, &t.Description, &t.DueDate, &t.AssignedUser, &t.Priority, &t.Status, &tagsStr)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tagsStr), &t.Tags); err != nil {
		t.Tags = nil
	}
	t.Normalize()
	return &t, nil
}

// CreateTask stores a new task with a generated id and status todo.
func (b *Backend) CreateTask(ctx context.Context, task *backend.Task) (*backend.Task, error) {
	created := *task
	created.ID = backend.GenerateID()
	created.Status = backend.StatusTodo
	created.Normalize()
	if err := created.Validate(); err != nil {
		return nil, err
	}

	tags, err := json.Marshal(created.Tags)
	if err != nil {
		return nil, err
	}
	nowStr := time.Now().UTC().Format(time.RFC3339Nano)

	_, err = b.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`, created, modified)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID, created.Title, created.Description, created.DueDate, created.AssignedUser,
		created.Priority, created.Status, string(tags), nowStr, nowStr,
	)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// PatchTask applies the given fields to an existing task.
func (b *Backend) PatchTask(ctx context.Context, id string, fields map[string]any) (*backend.Task, error) {
	task, err := b.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, utils.ErrTaskNotFound(id)
	}

	if err := applyFields(task, fields); err != nil {
		return nil, err
	}
	task.Normalize()
	if err := task.Validate(); err != nil {
		return nil, err
	}

	tags, err := json.Marshal(task.Tags)
	if err != nil {
		return nil, err
	}
	nowStr := time.Now().UTC().Format(time.RFC3339Nano)

	_, err = b.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, due_date = ?, assigned_user = ?, priority = ?, status = ?, tags = ?, modified = ?
		 WHERE id = ?`,
		task.Title, task.Description, task.DueDate, task.AssignedUser, task.Priority, task.Status, string(tags), nowStr,
		id,
	)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// applyFields copies wire-named fields onto a task.
func applyFields(t *backend.Task, fields map[string]any) error {
	for key, value := range fields {
		switch key {
		case "id":
			continue
		case "tags":
			tags, err := toStrings(value)
			if err != nil {
				return fmt.Errorf("tags: %w", err)
			}
			t.Tags = tags
			continue
		}

		s, ok := toString(value)
		if !ok {
			return fmt.Errorf("%s: unsupported value %v", key, value)
		}
		switch key {
		case "title":
			t.Title = s
		case "description":
			t.Description = s
		case "dueDate":
			t.DueDate = s
		case "assignedUser":
			t.AssignedUser = s
		case "priority":
			t.Priority = backend.Priority(s)
		case "status":
			t.Status = backend.Status(s)
		default:
			return fmt.Errorf("unknown field %q", key)
		}
	}
	return nil
}

func toString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case backend.Status:
		return string(val), true
	case backend.Priority:
		return string(val), true
	case fmt.Stringer:
		return val.String(), true
	}
	return "", false
}

func toStrings(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return val, nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected strings, got %v", item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a list, got %T", v)
}

// DeleteTask removes a task
func (b *Backend) DeleteTask(ctx context.Context, id string) error {
	res, err := b.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return utils.ErrTaskNotFound(id)
	}
	return nil
}

// Close closes the database connection
func (b *Backend) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

// Verify interface compliance at compile time
var _ backend.TaskAPI = (*Backend)(nil)
