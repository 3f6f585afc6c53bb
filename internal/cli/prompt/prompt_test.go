package prompt

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"taskdesk/backend"
	"taskdesk/internal/tasks"
)

// =============================================================================
// Test Helpers
// =============================================================================

func sampleTasks() []backend.Task {
	return []backend.Task{
		{ID: "t1", Title: "Buy groceries", Status: backend.StatusTodo, Priority: backend.PriorityMedium, DueDate: "2026-02-15"},
		{ID: "t2", Title: "Fix bug in parser", Status: backend.StatusIncomplete, Priority: backend.PriorityHigh},
		{ID: "t3", Title: "Write documentation", Status: backend.StatusTodo, Priority: backend.PriorityLow},
		{ID: "t4", Title: "Buy milk", Status: backend.StatusDone, Priority: backend.PriorityLow, Tags: []string{"home"}},
	}
}

var users = []backend.User{{ID: "1", Name: "Admin"}, {ID: "u-2", Name: "Jane Doe"}}

// =============================================================================
// Credentials
// =============================================================================

func TestCredentialsFromReader(t *testing.T) {
	var out bytes.Buffer
	u, p, err := Credentials(strings.NewReader("admin\n123\n"), &out, "")
	if err != nil {
		t.Fatalf("Credentials: %v", err)
	}
	if u != "admin" || p != "123" {
		t.Errorf("got %q/%q", u, p)
	}
	if !strings.Contains(out.String(), "Username: ") || !strings.Contains(out.String(), "Password: ") {
		t.Errorf("prompts missing: %q", out.String())
	}
}

func TestCredentialsUsernameGiven(t *testing.T) {
	var out bytes.Buffer
	u, p, err := Credentials(strings.NewReader("secret"), &out, "admin")
	if err != nil {
		t.Fatalf("Credentials: %v", err)
	}
	if u != "admin" || p != "secret" {
		t.Errorf("got %q/%q", u, p)
	}
	if strings.Contains(out.String(), "Username") {
		t.Error("username prompted although given")
	}
}

func TestCredentialsNoInput(t *testing.T) {
	if _, _, err := Credentials(strings.NewReader(""), nil, ""); !errors.Is(err, ErrNoInput) {
		t.Errorf("err = %v, want ErrNoInput", err)
	}
}

// =============================================================================
// TaskSelector
// =============================================================================

func TestTaskSelectorFiltersByTitle(t *testing.T) {
	var out bytes.Buffer
	selector := &TaskSelector{
		Tasks:  sampleTasks(),
		Users:  func(id string) string { return id },
		Prompt: "Select task:",
		Reader: strings.NewReader("BUY\n2\n"),
		Writer: &out,
	}

	selected, err := selector.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if selected.ID != "t4" {
		t.Errorf("selected %q, want t4", selected.ID)
	}
	if !strings.Contains(out.String(), "Buy milk [done, Low, tags: home]") {
		t.Errorf("metadata missing:\n%s", out.String())
	}
}

func TestTaskSelectorAutoSelect(t *testing.T) {
	var out bytes.Buffer
	selector := &TaskSelector{Tasks: sampleTasks(), Reader: strings.NewReader("parser\n"), Writer: &out}

	selected, err := selector.Run()
	if err != nil || selected.ID != "t2" {
		t.Fatalf("selected=%v err=%v", selected, err)
	}
	if !strings.Contains(out.String(), "Auto-selected: Fix bug in parser") {
		t.Errorf("output = %q", out.String())
	}
}

func TestTaskSelectorErrors(t *testing.T) {
	tests := []struct {
		name     string
		tasks    []backend.Task
		input    string
		noPrompt bool
		want     error
	}{
		{"no prompt", sampleTasks(), "", true, ErrNoPromptMode},
		{"empty", nil, "", false, ErrNoTasks},
		{"no matches", sampleTasks(), "zzz\n", false, ErrNoMatches},
		{"cancel", sampleTasks(), "\n0\n", false, ErrSelectionCancelled},
		{"eof", sampleTasks(), "", false, ErrSelectionCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &TaskSelector{Tasks: tt.tasks, Reader: strings.NewReader(tt.input), NoPrompt: tt.noPrompt}
			if _, err := s.Run(); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTaskSelectorOutOfRange(t *testing.T) {
	s := &TaskSelector{Tasks: sampleTasks(), Reader: strings.NewReader("\n9\n")}
	if _, err := s.Run(); err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Errorf("err = %v", err)
	}
}

func TestTaskSelectorSingleTask(t *testing.T) {
	s := &TaskSelector{Tasks: sampleTasks()[:1]}
	selected, err := s.Run()
	if err != nil || selected.ID != "t1" {
		t.Errorf("selected=%v err=%v", selected, err)
	}
}

// =============================================================================
// InteractiveAdder
// =============================================================================

func TestInteractiveAddMode(t *testing.T) {
	input := strings.Join([]string{
		"",               // empty title is re-prompted
		"Ship release",   // title
		"Tag and upload", // description
		"someday",        // invalid date
		"2026-04-01",     // due date
		"7",              // unknown user
		"2",              // second user
		"urgent",         // invalid priority
		"high",           // priority
		"work, release",  // tags
	}, "\n") + "\n"

	var out bytes.Buffer
	adder := &InteractiveAdder{Users: users, Reader: strings.NewReader(input), Writer: &out}

	form, err := adder.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := tasks.Form{
		Title: "Ship release", Description: "Tag and upload", DueDate: "2026-04-01",
		AssignedUser: "u-2", Priority: backend.PriorityHigh,
	}
	if form.Title != want.Title || form.Description != want.Description || form.DueDate != want.DueDate ||
		form.AssignedUser != want.AssignedUser || form.Priority != want.Priority {
		t.Errorf("form = %+v", form)
	}
	if strings.Join(form.Tags, ",") != "work,release" {
		t.Errorf("tags = %v", form.Tags)
	}

	for _, msg := range []string{tasks.MsgTitleRequired, "Invalid date: someday", tasks.MsgUserUnknown, "Invalid priority"} {
		if !strings.Contains(out.String(), msg) {
			t.Errorf("output missing %q", msg)
		}
	}
}

func TestInteractiveAddDefaults(t *testing.T) {
	input := "Title\nDesc\ntoday\nu-2\n\n\n"
	form, err := (&InteractiveAdder{Users: users, Reader: strings.NewReader(input)}).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if form.Priority != backend.PriorityLow || len(form.Tags) != 0 || form.AssignedUser != "u-2" {
		t.Errorf("form = %+v", form)
	}
	if errs := form.Validate(users); errs != nil {
		t.Errorf("prompted form invalid: %v", errs)
	}
}

func TestInteractiveAddNoUsers(t *testing.T) {
	var out bytes.Buffer
	adder := &InteractiveAdder{Reader: strings.NewReader("a\nb\ntoday\n"), Writer: &out}
	if _, err := adder.Run(); err == nil {
		t.Fatal("expected error without users")
	}
	if !strings.Contains(out.String(), "No users available") {
		t.Errorf("output = %q", out.String())
	}
}

func TestInteractiveAddNoPrompt(t *testing.T) {
	if _, err := (&InteractiveAdder{NoPrompt: true}).Run(); !errors.Is(err, ErrNoPromptMode) {
		t.Errorf("err = %v", err)
	}
}
