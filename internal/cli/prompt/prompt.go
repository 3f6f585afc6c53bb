// Package prompt handles interactive prompts with no-prompt mode support.
// It provides credential entry, filtered task selection and interactive add
// mode with field validation.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"taskdesk/backend"
	"taskdesk/internal/tasks"
	"taskdesk/internal/utils"
)

// Sentinel errors for prompt operations.
var (
	ErrSelectionCancelled = errors.New("selection cancelled")
	ErrNoPromptMode       = errors.New("interactive prompts disabled (--no-prompt / -y)")
	ErrNoTasks            = errors.New("no tasks available")
	ErrNoMatches          = errors.New("no tasks match the filter")
	ErrNoInput            = errors.New("no input received")
)

// Credentials asks for a username (unless given) and a password. When reader
// is a terminal the password is read without echo.
func Credentials(reader io.Reader, writer io.Writer, username string) (string, string, error) {
	if writer == nil {
		writer = io.Discard
	}

	if f, ok := reader.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if username == "" {
			u, err := utils.PromptString("Username: ", bufio.NewReader(f), writer)
			if err != nil {
				return "", "", ErrNoInput
			}
			username = u
		}
		_, _ = fmt.Fprint(writer, "Password: ")
		pw, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(writer)
		if err != nil {
			return "", "", fmt.Errorf("failed to read password: %w", err)
		}
		return username, string(pw), nil
	}

	br := bufio.NewReader(reader)
	if username == "" {
		u, err := utils.PromptString("Username: ", br, writer)
		if err != nil {
			return "", "", ErrNoInput
		}
		username = u
	}
	pw, err := utils.PromptString("Password: ", br, writer)
	if err != nil {
		return "", "", ErrNoInput
	}
	return username, pw, nil
}

// TaskSelector provides filtered task selection with metadata display.
type TaskSelector struct {
	Tasks    []backend.Task
	Users    func(id string) string
	Prompt   string
	Reader   io.Reader
	Writer   io.Writer
	NoPrompt bool
}

// Run executes the task selection prompt.
// If NoPrompt is true, returns ErrNoPromptMode.
// If there is exactly one task, auto-selects it.
// Otherwise, prompts the user to filter and select a task.
func (s *TaskSelector) Run() (*backend.Task, error) {
	if s.NoPrompt {
		return nil, ErrNoPromptMode
	}

	if len(s.Tasks) == 0 {
		return nil, ErrNoTasks
	}

	if len(s.Tasks) == 1 {
		return &s.Tasks[0], nil
	}

	writer := s.Writer
	if writer == nil {
		writer = io.Discard
	}

	scanner := bufio.NewScanner(s.Reader)

	_, _ = fmt.Fprintf(writer, "%s\nFilter (or press Enter to show all): ", s.Prompt)
	if !scanner.Scan() {
		return nil, ErrSelectionCancelled
	}
	filter := strings.ToLower(strings.TrimSpace(scanner.Text()))

	var filtered []backend.Task
	for _, t := range s.Tasks {
		if filter == "" || strings.Contains(strings.ToLower(t.Title), filter) {
			filtered = append(filtered, t)
		}
	}

	if len(filtered) == 0 {
		return nil, ErrNoMatches
	}

	if len(filtered) == 1 {
		_, _ = fmt.Fprintf(writer, "Auto-selected: %s\n", filtered[0].Title)
		return &filtered[0], nil
	}

	for i, t := range filtered {
		_, _ = fmt.Fprintf(writer, "  %d) %s\n", i+1, s.formatTaskLine(t))
	}

	_, _ = fmt.Fprintf(writer, "Select (0 to cancel): ")
	if !scanner.Scan() {
		return nil, ErrSelectionCancelled
	}

	input := strings.TrimSpace(scanner.Text())
	num, err := strconv.Atoi(input)
	if err != nil {
		return nil, fmt.Errorf("invalid selection: %s", input)
	}

	if num == 0 {
		return nil, ErrSelectionCancelled
	}

	if num < 1 || num > len(filtered) {
		return nil, fmt.Errorf("selection out of range: %d", num)
	}

	return &filtered[num-1], nil
}

// formatTaskLine shows title, status, priority, due date, assignee and tags.
func (s *TaskSelector) formatTaskLine(t backend.Task) string {
	meta := []string{string(t.Status), string(t.Priority)}

	if t.DueDate != "" {
		meta = append(meta, "due: "+t.DueDate)
	}
	if t.AssignedUser != "" && s.Users != nil {
		meta = append(meta, "user: "+s.Users(t.AssignedUser))
	}
	if len(t.Tags) > 0 {
		meta = append(meta, "tags: "+strings.Join(t.Tags, ","))
	}

	return fmt.Sprintf("%s [%s]", t.Title, strings.Join(meta, ", "))
}

// InteractiveAdder provides sequential field prompts with validation
// for adding a task when required flags are missing.
type InteractiveAdder struct {
	Users    []backend.User
	Reader   io.Reader
	Writer   io.Writer
	NoPrompt bool
}

// Run prompts for each field in order: title, description, due date and
// assigned user (all required), then priority and tags (optional).
func (a *InteractiveAdder) Run() (*tasks.Form, error) {
	if a.NoPrompt {
		return nil, ErrNoPromptMode
	}

	writer := a.Writer
	if writer == nil {
		writer = io.Discard
	}

	scanner := bufio.NewScanner(a.Reader)
	form := tasks.NewForm()

	required := func(label, msg string) (string, error) {
		for {
			_, _ = fmt.Fprintf(writer, "%s (required): ", label)
			if !scanner.Scan() {
				return "", fmt.Errorf("no input for %s", strings.ToLower(label))
			}
			if v := strings.TrimSpace(scanner.Text()); v != "" {
				return v, nil
			}
			_, _ = fmt.Fprintln(writer, msg+".")
		}
	}

	var err error
	if form.Title, err = required("Title", tasks.MsgTitleRequired); err != nil {
		return nil, err
	}
	if form.Description, err = required("Description", tasks.MsgDescriptionRequired); err != nil {
		return nil, err
	}

	for {
		input, err := required("Due date (YYYY-MM-DD, today, tomorrow, +Nd)", tasks.MsgDueDateRequired)
		if err != nil {
			return nil, err
		}
		due, err := utils.ParseDueDate(input)
		if err != nil {
			_, _ = fmt.Fprintf(writer, "Invalid date: %s. Use YYYY-MM-DD, today, tomorrow, +Nd, +Nw, +Nm\n", input)
			continue
		}
		form.DueDate = due
		break
	}

	if form.AssignedUser, err = a.promptUser(scanner, writer); err != nil {
		return nil, err
	}

	for {
		_, _ = fmt.Fprint(writer, "Priority (Low, Medium, High, optional): ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			break
		}
		p, err := utils.ValidatePriority(input)
		if err != nil {
			_, _ = fmt.Fprintln(writer, "Invalid priority: must be Low, Medium or High")
			continue
		}
		form.Priority = p
		break
	}

	_, _ = fmt.Fprint(writer, "Tags (comma-separated, optional): ")
	if scanner.Scan() {
		form.Tags = utils.SplitTags([]string{scanner.Text()})
	}

	return &form, nil
}

// promptUser accepts a list number or a user id.
func (a *InteractiveAdder) promptUser(scanner *bufio.Scanner, writer io.Writer) (string, error) {
	if len(a.Users) == 0 {
		_, _ = fmt.Fprintln(writer, "No users available")
		return "", errors.New(tasks.MsgUserRequired)
	}

	for i, u := range a.Users {
		_, _ = fmt.Fprintf(writer, "  %d) %s (id %s)\n", i+1, u.Name, u.ID)
	}
	for {
		_, _ = fmt.Fprint(writer, "Assigned user (number or id, required): ")
		if !scanner.Scan() {
			return "", errors.New("no input for assigned user")
		}
		input := strings.TrimSpace(scanner.Text())
		if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(a.Users) {
			return a.Users[n-1].ID, nil
		}
		for _, u := range a.Users {
			if u.ID == input {
				return u.ID, nil
			}
		}
		_, _ = fmt.Fprintln(writer, tasks.MsgUserUnknown+".")
	}
}
