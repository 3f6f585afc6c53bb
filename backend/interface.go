package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateFormat is the calendar date layout used for task due dates.
const DateFormat = "2006-01-02"

// Task represents a todo item
type Task struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	DueDate      string   `json:"dueDate"`
	AssignedUser string   `json:"assignedUser"`
	Priority     Priority `json:"priority"`
	Status       Status   `json:"status"`
	Tags         []string `json:"tags"`
}

// Status represents the completion state of a task
type Status string

const (
	StatusTodo       Status = "todo"
	StatusDone       Status = "done"
	StatusIncomplete Status = "incomplete"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusTodo, StatusIncomplete, StatusDone}

// Priority is the urgency of a task
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists every valid priority in ascending order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// User is read-only reference data used to resolve task assignees.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TaskAPI defines the operations the client needs from a task service.
type TaskAPI interface {
	GetUsers(ctx context.Context) ([]User, error)
	Authenticate(ctx context.Context, email, password string) error
	GetTasks(ctx context.Context) ([]Task, error)
	CreateTask(ctx context.Context, task *Task) (*Task, error)
	PatchTask(ctx context.Context, id string, fields map[string]any) (*Task, error)
	DeleteTask(ctx context.Context, id string) error

	Close() error
}

// ParseStatus converts user or wire input into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusTodo:
		return StatusTodo, nil
	case StatusDone:
		return StatusDone, nil
	case StatusIncomplete:
		return StatusIncomplete, nil
	}
	return "", fmt.Errorf("invalid status %q", s)
}

// ParsePriority converts input into a Priority. Empty input yields Low.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	}
	return "", fmt.Errorf("invalid priority %q", s)
}

// Toggled returns the status a completion checkbox moves the task to.
func (s Status) Toggled() Status {
	if s == StatusDone {
		return StatusIncomplete
	}
	return StatusDone
}

// Done reports whether the status counts as completed.
func (s Status) Done() bool {
	return s == StatusDone
}

// InvalidRecordError is returned when the server sends a record that does not
// match the expected shape.
type InvalidRecordError struct {
	Kind   string
	ID     string
	Reason string
}

func (e *InvalidRecordError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("invalid %s record: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("invalid %s record %s: %s", e.Kind, e.ID, e.Reason)
}

// Validate checks a task received from a backend.
func (t *Task) Validate() error {
	invalid := func(reason string) error {
		return &InvalidRecordError{Kind: "task", ID: t.ID, Reason: reason}
	}
	if t.ID == "" {
		return invalid("missing id")
	}
	if _, err := ParseStatus(string(t.Status)); err != nil {
		return invalid(err.Error())
	}
	if _, err := ParsePriority(string(t.Priority)); err != nil {
		return invalid(err.Error())
	}
	if t.DueDate != "" {
		if _, err := time.Parse(DateFormat, t.DueDate); err != nil {
			return invalid(fmt.Sprintf("malformed due date %q", t.DueDate))
		}
	}
	return nil
}

// Normalize canonicalizes enum casing and fills defaults in place.
func (t *Task) Normalize() {
	if s, err := ParseStatus(string(t.Status)); err == nil {
		t.Status = s
	}
	if p, err := ParsePriority(string(t.Priority)); err == nil {
		t.Priority = p
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
}

// Due parses the due date. ok is false when the date is empty or malformed.
func (t *Task) Due() (time.Time, bool) {
	d, err := time.Parse(DateFormat, t.DueDate)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// UnmarshalJSON accepts id and assignedUser as either strings or numbers.
func (t *Task) UnmarshalJSON(data []byte) error {
	type taskAlias Task
	var raw struct {
		taskAlias
		ID           json.RawMessage `json:"id"`
		AssignedUser json.RawMessage `json:"assignedUser"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Task(raw.taskAlias)
	id, err := flexibleID(raw.ID)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	t.ID = id
	user, err := flexibleID(raw.AssignedUser)
	if err != nil {
		return fmt.Errorf("assignedUser: %w", err)
	}
	t.AssignedUser = user
	return nil
}

// Validate checks a user received from a backend.
func (u *User) Validate() error {
	if u.ID == "" {
		return &InvalidRecordError{Kind: "user", Reason: "missing id"}
	}
	return nil
}

// UnmarshalJSON accepts the user id as either a string or a number.
func (u *User) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID   json.RawMessage `json:"id"`
		Name string          `json:"name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := flexibleID(raw.ID)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	u.ID = id
	u.Name = raw.Name
	return nil
}

// flexibleID decodes an identifier that may be a JSON string, number or null.
func flexibleID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("expected string or number, got %s", string(raw))
	}
	return n.String(), nil
}

// FindUserName resolves a user id to a display name, falling back to the id.
func FindUserName(users []User, id string) string {
	for _, u := range users {
		if u.ID == id {
			return u.Name
		}
	}
	return id
}

// GenerateID generates a unique identifier using UUID v4.
// This is used by backends that need to generate task IDs locally.
func GenerateID() string {
	return uuid.New().String()
}
