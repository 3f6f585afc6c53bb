package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"taskdesk/backend"
	"taskdesk/internal/utils"
)

// mustNewBackend creates an in-memory backend and registers cleanup
func mustNewBackend(t *testing.T) (*Backend, context.Context) {
	t.Helper()
	b, err := New(":memory:")
	if err != nil {
		t.Fatalf("New(:memory:) error: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b, context.Background()
}

// helper to create a task and fail if nil
func mustCreateTask(t *testing.T, b *Backend, ctx context.Context, task *backend.Task) *backend.Task {
	t.Helper()
	created, err := b.CreateTask(ctx, task)
	if err != nil {
		t.Fatalf("CreateTask error: %v", err)
	}
	if created == nil {
		t.Fatal("CreateTask returned nil task")
	}
	return created
}

func sampleTask(title string) *backend.Task {
	return &backend.Task{
		Title:        title,
		Description:  "desc",
		DueDate:      "2024-05-02",
		AssignedUser: "1",
		Priority:     backend.PriorityMedium,
	}
}

// TestBackendImplementsInterface verifies the Backend type implements TaskAPI.
func TestBackendImplementsInterface(t *testing.T) {
	var _ backend.TaskAPI = (*Backend)(nil)
}

// TestNewCreatesDirectory verifies New creates the parent directory for a file database.
func TestNewCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tasks.db")
	b, err := New(path)
	if err != nil {
		t.Fatalf("New(%s): %v", path, err)
	}
	_ = b.Close()
}

func TestSeedUsers(t *testing.T) {
	b, ctx := mustNewBackend(t)

	if err := b.SeedUsers(ctx, []backend.User{{ID: "2", Name: "Jane"}, {ID: "1", Name: "Admin"}}); err != nil {
		t.Fatalf("SeedUsers: %v", err)
	}
	if err := b.SeedUsers(ctx, []backend.User{{ID: "2", Name: "Jane Doe"}}); err != nil {
		t.Fatalf("SeedUsers rename: %v", err)
	}

	users, err := b.GetUsers(ctx)
	if err != nil {
		t.Fatalf("GetUsers: %v", err)
	}
	want := []backend.User{{ID: "1", Name: "Admin"}, {ID: "2", Name: "Jane Doe"}}
	if !reflect.DeepEqual(users, want) {
		t.Errorf("users = %+v, want %+v", users, want)
	}

	if err := b.SeedUsers(ctx, []backend.User{{Name: "no id"}}); err == nil {
		t.Error("expected error for user without id")
	}
}

func TestCreateTaskForcesTodo(t *testing.T) {
	b, ctx := mustNewBackend(t)

	in := sampleTask("First")
	in.Status = backend.StatusDone
	created := mustCreateTask(t, b, ctx, in)

	if created.ID == "" {
		t.Error("created.ID is empty")
	}
	if created.Status != backend.StatusTodo {
		t.Errorf("status = %q, want todo", created.Status)
	}
	if in.ID != "" {
		t.Error("CreateTask should not mutate its input")
	}

	got, err := b.GetTask(ctx, created.ID)
	if err != nil || got == nil {
		t.Fatalf("GetTask: %v, %v", got, err)
	}
	if got.Title != "First" || got.Priority != backend.PriorityMedium || got.Tags == nil {
		t.Errorf("stored task = %+v", got)
	}
}

func TestCreateTaskRejectsBadDate(t *testing.T) {
	b, ctx := mustNewBackend(t)
	in := sampleTask("Bad")
	in.DueDate = "tomorrow-ish"

	_, err := b.CreateTask(ctx, in)
	var invalid *backend.InvalidRecordError
	if !errors.As(err, &invalid) {
		t.Errorf("expected InvalidRecordError, got %v", err)
	}
}

func TestGetTasksKeepsInsertionOrder(t *testing.T) {
	b, ctx := mustNewBackend(t)
	for _, title := range []string{"c", "a", "b"} {
		mustCreateTask(t, b, ctx, sampleTask(title))
	}

	tasks, err := b.GetTasks(ctx)
	if err != nil {
		t.Fatalf("GetTasks: %v", err)
	}
	var titles []string
	for _, task := range tasks {
		titles = append(titles, task.Title)
	}
	if !reflect.DeepEqual(titles, []string{"c", "a", "b"}) {
		t.Errorf("titles = %v", titles)
	}
}

func TestPatchTask(t *testing.T) {
	b, ctx := mustNewBackend(t)
	created := mustCreateTask(t, b, ctx, sampleTask("Patch me"))

	updated, err := b.PatchTask(ctx, created.ID, map[string]any{
		"status": backend.StatusDone,
		"title":  "Patched",
		"tags":   []any{"x", "y"},
	})
	if err != nil {
		t.Fatalf("PatchTask: %v", err)
	}
	if updated.Status != backend.StatusDone || updated.Title != "Patched" {
		t.Errorf("updated = %+v", updated)
	}
	if !reflect.DeepEqual(updated.Tags, []string{"x", "y"}) {
		t.Errorf("tags = %v", updated.Tags)
	}

	got, _ := b.GetTask(ctx, created.ID)
	if got.Title != "Patched" || got.Description != "desc" {
		t.Errorf("stored = %+v", got)
	}
}

func TestPatchTaskErrors(t *testing.T) {
	b, ctx := mustNewBackend(t)
	created := mustCreateTask(t, b, ctx, sampleTask("x"))

	if _, err := b.PatchTask(ctx, "missing", map[string]any{"title": "y"}); !errors.Is(err, utils.ErrNotFound) {
		t.Errorf("missing task: got %v", err)
	}
	if _, err := b.PatchTask(ctx, created.ID, map[string]any{"colour": "red"}); err == nil {
		t.Error("expected error for unknown field")
	}
	if _, err := b.PatchTask(ctx, created.ID, map[string]any{"status": "archived"}); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestDeleteTask(t *testing.T) {
	b, ctx := mustNewBackend(t)
	keep := mustCreateTask(t, b, ctx, sampleTask("keep"))
	drop := mustCreateTask(t, b, ctx, sampleTask("drop"))

	if err := b.DeleteTask(ctx, drop.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if err := b.DeleteTask(ctx, drop.ID); !errors.Is(err, utils.ErrNotFound) {
		t.Errorf("second delete: got %v", err)
	}

	tasks, _ := b.GetTasks(ctx)
	if len(tasks) != 1 || tasks[0].ID != keep.ID {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestAuthenticate(t *testing.T) {
	b, ctx := mustNewBackend(t)
	if err := b.Authenticate(ctx, "anyone", "anything"); err != nil {
		t.Errorf("Authenticate: %v", err)
	}
}
