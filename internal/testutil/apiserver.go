package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"taskdesk/backend"
)

// RecordedRequest is a request seen by the mock API.
type RecordedRequest struct {
	Method string
	Path   string
	Body   string
}

// MockAPI is an in-memory task service speaking the same JSON as the real one.
type MockAPI struct {
	Server *httptest.Server

	mu       sync.Mutex
	users    []backend.User
	tasks    []map[string]any
	requests []RecordedRequest
	failures map[string]failure
}

type failure struct {
	status int
	body   string
}

// NewMockAPI starts a mock API seeded with users and tasks. It is closed on test cleanup.
func NewMockAPI(t *testing.T, users []backend.User, tasks []backend.Task) *MockAPI {
	t.Helper()

	m := &MockAPI{
		users:    append([]backend.User(nil), users...),
		failures: make(map[string]failure),
	}
	for _, task := range tasks {
		m.tasks = append(m.tasks, taskToMap(task))
	}

	m.Server = httptest.NewServer(http.HandlerFunc(m.handle))
	t.Cleanup(m.Server.Close)
	return m
}

// URL returns the base URL of the mock.
func (m *MockAPI) URL() string {
	return m.Server.URL
}

// FailNext makes the next request matching "METHOD /path" fail with status and body.
func (m *MockAPI) FailNext(method, path string, status int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[method+" "+path] = failure{status: status, body: body}
}

// Requests returns every request seen so far.
func (m *MockAPI) Requests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedRequest(nil), m.requests...)
}

// CountRequests counts requests with the given method and path.
func (m *MockAPI) CountRequests(method, path string) int {
	n := 0
	for _, r := range m.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Tasks returns the server-side tasks as raw JSON maps.
func (m *MockAPI) Tasks() []map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]map[string]any, len(m.tasks))
	copy(out, m.tasks)
	return out
}

func (m *MockAPI) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, RecordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})

	key := r.Method + " " + r.URL.Path
	if f, ok := m.failures[key]; ok {
		delete(m.failures, key)
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.body)
		return
	}

	switch {
	case r.URL.Path == "/users" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, m.users)

	case r.URL.Path == "/auth":
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})

	case r.URL.Path == "/todo" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, m.tasks)

	case r.URL.Path == "/todo" && r.Method == http.MethodPost:
		var fields map[string]any
		if err := json.Unmarshal(body, &fields); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid JSON"})
			return
		}
		fields["id"] = uuid.NewString()
		m.tasks = append(m.tasks, fields)
		writeJSON(w, http.StatusCreated, fields)

	case strings.HasPrefix(r.URL.Path, "/todo/"):
		m.handleTask(w, r, strings.TrimPrefix(r.URL.Path, "/todo/"), body)

	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
	}
}

func (m *MockAPI) handleTask(w http.ResponseWriter, r *http.Request, id string, body []byte) {
	idx := -1
	for i, t := range m.tasks {
		if t["id"] == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Task not found"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, m.tasks[idx])
	case http.MethodPatch, http.MethodPut:
		var fields map[string]any
		if err := json.Unmarshal(body, &fields); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid JSON"})
			return
		}
		for k, v := range fields {
			if k != "id" {
				m.tasks[idx][k] = v
			}
		}
		writeJSON(w, http.StatusOK, m.tasks[idx])
	case http.MethodDelete:
		m.tasks = append(m.tasks[:idx], m.tasks[idx+1:]...)
		w.WriteHeader(http.StatusOK)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "method not allowed"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func taskToMap(t backend.Task) map[string]any {
	data, _ := json.Marshal(t)
	var out map[string]any
	_ = json.Unmarshal(data, &out)
	return out
}

// SampleUsers returns a small user directory.
func SampleUsers() []backend.User {
	return []backend.User{
		{ID: "1", Name: "Admin"},
		{ID: "2", Name: "Jane Doe"},
	}
}

// SampleTasks returns five tasks with mixed status, assignee and due dates.
func SampleTasks() []backend.Task {
	return []backend.Task{
		{ID: "t1", Title: "Write report", Description: "Quarterly numbers", DueDate: "2024-05-02", AssignedUser: "1", Priority: backend.PriorityHigh, Status: backend.StatusTodo, Tags: []string{}},
		{ID: "t2", Title: "buy milk", Description: "Two liters", DueDate: "2024-01-10", AssignedUser: "2", Priority: backend.PriorityLow, Status: backend.StatusDone, Tags: []string{"home"}},
		{ID: "t3", Title: "Call plumber", Description: "Kitchen sink", DueDate: "2024-03-15", AssignedUser: "2", Priority: backend.PriorityMedium, Status: backend.StatusIncomplete, Tags: []string{}},
		{ID: "t4", Title: "Review PR", Description: "Gateway changes", DueDate: "2024-02-20", AssignedUser: "1", Priority: backend.PriorityMedium, Status: backend.StatusDone, Tags: []string{"work"}},
		{ID: "t5", Title: "Plan trip", Description: "Book flights", DueDate: "2024-06-01", AssignedUser: "1", Priority: backend.PriorityLow, Status: backend.StatusTodo, Tags: []string{}},
	}
}
