package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskdesk/backend"
	"taskdesk/backend/rest"
	"taskdesk/internal/gateway"
	"taskdesk/internal/testutil"
	"taskdesk/internal/utils"
)

func newBackend(t *testing.T, baseURL string) *rest.Backend {
	t.Helper()
	gw, err := gateway.New(gateway.Config{BaseURL: baseURL, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("gateway.New: %v", err)
	}
	b := rest.New(gw)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestGetTasksAndUsers(t *testing.T) {
	api := testutil.NewMockAPI(t, testutil.SampleUsers(), testutil.SampleTasks())
	b := newBackend(t, api.URL())
	ctx := context.Background()

	tasks, err := b.GetTasks(ctx)
	if err != nil {
		t.Fatalf("GetTasks: %v", err)
	}
	if len(tasks) != 5 || tasks[0].ID != "t1" || tasks[1].Status != backend.StatusDone {
		t.Errorf("tasks = %+v", tasks)
	}

	users, err := b.GetUsers(ctx)
	if err != nil {
		t.Fatalf("GetUsers: %v", err)
	}
	if len(users) != 2 || users[1].Name != "Jane Doe" {
		t.Errorf("users = %+v", users)
	}
}

func TestNumericIDsAreAccepted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users":
			_, _ = w.Write([]byte(`[{"id": 7, "name": "Seven"}]`))
		case "/todo":
			_, _ = w.Write([]byte(`[{"id":"a","title":"x","description":"y","dueDate":"2024-01-01","assignedUser":7,"priority":"high","status":"Done"}]`))
		}
	}))
	defer server.Close()

	b := newBackend(t, server.URL)
	users, err := b.GetUsers(context.Background())
	if err != nil || users[0].ID != "7" {
		t.Fatalf("users = %+v, err = %v", users, err)
	}

	tasks, err := b.GetTasks(context.Background())
	if err != nil {
		t.Fatalf("GetTasks: %v", err)
	}
	got := tasks[0]
	if got.AssignedUser != "7" || got.Priority != backend.PriorityHigh || got.Status != backend.StatusDone {
		t.Errorf("normalized task = %+v", got)
	}
	if got.Tags == nil {
		t.Error("Tags should be normalized to an empty slice")
	}
}

func TestNumericTaskIDsAreAccepted(t *testing.T) {
	var patched string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/todo":
			_, _ = w.Write([]byte(`[
				{"id":1,"title":"First","description":"a","dueDate":"2024-01-01","assignedUser":"1","priority":"low","status":"todo"},
				{"id":2,"title":"Second","description":"b","dueDate":"2024-01-02","assignedUser":2,"priority":"high","status":"done"}
			]`))
		case r.Method == http.MethodPatch && r.URL.Path == "/todo/2":
			patched = r.URL.Path
			_, _ = w.Write([]byte(`{"id":2,"title":"Second","description":"b","dueDate":"2024-01-02","assignedUser":2,"priority":"high","status":"incomplete"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	b := newBackend(t, server.URL)
	tasks, err := b.GetTasks(context.Background())
	if err != nil {
		t.Fatalf("GetTasks: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != "1" || tasks[1].ID != "2" || tasks[1].AssignedUser != "2" {
		t.Fatalf("tasks = %+v", tasks)
	}

	saved, err := b.PatchTask(context.Background(), tasks[1].ID, map[string]any{"status": "incomplete"})
	if err != nil {
		t.Fatalf("PatchTask: %v", err)
	}
	if patched != "/todo/2" || saved.ID != "2" || saved.Status != backend.StatusIncomplete {
		t.Errorf("patched=%q saved=%+v", patched, saved)
	}
}

func TestInvalidRecordRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"a","title":"x","status":"archived"}]`))
	}))
	defer server.Close()

	_, err := newBackend(t, server.URL).GetTasks(context.Background())
	var invalid *backend.InvalidRecordError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidRecordError, got %v", err)
	}
	if invalid.ID != "a" {
		t.Errorf("invalid.ID = %q", invalid.ID)
	}
}

func TestCreateTaskSendsTodoStatus(t *testing.T) {
	api := testutil.NewMockAPI(t, testutil.SampleUsers(), nil)
	b := newBackend(t, api.URL())

	created, err := b.CreateTask(context.Background(), &backend.Task{
		ID:           "ignored",
		Title:        "New",
		Description:  "Desc",
		DueDate:      "2024-07-01",
		AssignedUser: "1",
		Priority:     backend.PriorityMedium,
		Status:       backend.StatusDone,
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if created.ID == "" || created.ID == "ignored" {
		t.Errorf("server should assign the id, got %q", created.ID)
	}
	if created.Status != backend.StatusTodo {
		t.Errorf("status = %q, want todo", created.Status)
	}

	reqs := api.Requests()
	var body map[string]any
	if err := json.Unmarshal([]byte(reqs[len(reqs)-1].Body), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if _, ok := body["id"]; ok {
		t.Error("create body must not carry an id")
	}
	if body["status"] != "todo" {
		t.Errorf("body status = %v", body["status"])
	}
}

func TestPatchAndDelete(t *testing.T) {
	api := testutil.NewMockAPI(t, testutil.SampleUsers(), testutil.SampleTasks())
	b := newBackend(t, api.URL())
	ctx := context.Background()

	updated, err := b.PatchTask(ctx, "t1", map[string]any{"status": "done"})
	if err != nil {
		t.Fatalf("PatchTask: %v", err)
	}
	if updated.Status != backend.StatusDone || updated.Title != "Write report" {
		t.Errorf("updated = %+v", updated)
	}

	if err := b.DeleteTask(ctx, "t2"); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if len(api.Tasks()) != 4 {
		t.Errorf("server has %d tasks, want 4", len(api.Tasks()))
	}
	if api.CountRequests(http.MethodDelete, "/todo/t2") != 1 {
		t.Error("expected one DELETE /todo/t2")
	}
}

func TestMissingTaskMapsToNotFound(t *testing.T) {
	api := testutil.NewMockAPI(t, nil, nil)
	b := newBackend(t, api.URL())

	err := b.DeleteTask(context.Background(), "nope")
	if !errors.Is(err, utils.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestServerMessageSurfaces(t *testing.T) {
	api := testutil.NewMockAPI(t, nil, nil)
	api.FailNext(http.MethodGet, "/todo", http.StatusInternalServerError, `{"message":"database down"}`)

	_, err := newBackend(t, api.URL()).GetTasks(context.Background())
	if err == nil || err.Error() != "database down" {
		t.Errorf("err = %v, want 'database down'", err)
	}
}

func TestUnreachableServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newBackend(t, url).GetTasks(context.Background())
	if !errors.Is(err, utils.ErrBackendUnavailable) {
		t.Errorf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestAuthenticateSendsCredentials(t *testing.T) {
	api := testutil.NewMockAPI(t, nil, nil)
	if err := newBackend(t, api.URL()).Authenticate(context.Background(), "admin", "123"); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	reqs := api.Requests()
	if reqs[0].Method != http.MethodGet || reqs[0].Path != "/auth" {
		t.Errorf("request = %+v", reqs[0])
	}
	if reqs[0].Body != `{"email":"admin","password":"123"}` {
		t.Errorf("body = %s", reqs[0].Body)
	}
}
