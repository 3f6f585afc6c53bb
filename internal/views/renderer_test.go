package views

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"taskdesk/backend"
)

func noColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func TestRenderPage(t *testing.T) {
	noColor(t)
	var buf bytes.Buffer
	names := func(id string) string {
		if id == "2" {
			return "Jane Doe"
		}
		return id
	}

	page := Derive(fixtureTasks(), NewState(2).WithStatus(backend.StatusDone))
	NewRenderer(&buf, names).RenderPage(page)
	out := buf.String()

	for _, want := range []string{"[x] buy milk", LabelCompleted, "Assigned to: Jane Doe", "Page 1 of 1 (2 tasks)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, LabelIncomplete) {
		t.Errorf("done filter should not show incomplete badges:\n%s", out)
	}
}

func TestRenderEmptyPage(t *testing.T) {
	noColor(t)
	var buf bytes.Buffer
	NewRenderer(&buf, nil).RenderPage(Derive(nil, NewState(5)))

	if strings.TrimSpace(buf.String()) != EmptyMessage {
		t.Errorf("output = %q", buf.String())
	}
}

func TestRenderDetailPlain(t *testing.T) {
	noColor(t)
	var buf bytes.Buffer
	task := backend.Task{
		ID: "t1", Title: "Ship", Description: "**bold** plan", DueDate: "2024-01-01",
		AssignedUser: "1", Priority: backend.PriorityHigh, Status: backend.StatusTodo, Tags: []string{"a", "b"},
	}
	NewRenderer(&buf, nil).RenderDetail(&task)
	out := buf.String()

	for _, want := range []string{"[ ] Ship", "ID:          t1", "Priority:    High", "Tags:        a, b", "**bold** plan"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderMarkdownNoTTY(t *testing.T) {
	out := RenderMarkdown("# Heading\n\nsome *text*", MarkdownStyle(false), 60)
	if !strings.Contains(out, "Heading") || !strings.Contains(out, "text") {
		t.Errorf("rendered = %q", out)
	}
	if RenderMarkdown("  ", MarkdownStyle(false), 60) != "" {
		t.Error("blank input should render empty")
	}
}
