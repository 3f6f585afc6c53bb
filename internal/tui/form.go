package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskdesk/backend"
	"taskdesk/internal/tasks"
	"taskdesk/internal/utils"
)

// Form field positions in focus order.
const (
	fieldTitle = iota
	fieldDescription
	fieldDueDate
	fieldUser
	fieldPriority
	fieldTags
	fieldCount
)

// NoUsersMessage replaces the user picker when no users are known.
const NoUsersMessage = "No users available"

// formModel is the shared create/edit task form.
type formModel struct {
	id          string
	title       textinput.Model
	description textinput.Model
	dueDate     textinput.Model
	tags        textinput.Model
	users       []backend.User
	userIdx     int
	priorityIdx int
	focus       int
	errs        utils.ValidationErrors
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Prompt = "> "
	return ti
}

// newFormModel builds the form from a seed. Users must be the current user list.
func newFormModel(seed tasks.Form, users []backend.User) formModel {
	f := formModel{
		id:          seed.ID,
		title:       newInput("Task title", 256),
		description: newInput("Description", 1024),
		dueDate:     newInput("YYYY-MM-DD", 10),
		tags:        newInput("comma separated", 256),
		users:       users,
	}
	f.title.SetValue(seed.Title)
	f.description.SetValue(seed.Description)
	f.dueDate.SetValue(seed.DueDate)
	f.tags.SetValue(strings.Join(seed.Tags, ", "))

	for i, u := range users {
		if u.ID == seed.AssignedUser {
			f.userIdx = i
		}
	}
	for i, p := range backend.Priorities {
		if p == seed.Priority {
			f.priorityIdx = i
		}
	}
	f.setFocus(fieldTitle)
	return f
}

func (f *formModel) isEdit() bool {
	return f.id != ""
}

func (f *formModel) input(field int) *textinput.Model {
	switch field {
	case fieldTitle:
		return &f.title
	case fieldDescription:
		return &f.description
	case fieldDueDate:
		return &f.dueDate
	case fieldTags:
		return &f.tags
	}
	return nil
}

func (f *formModel) setFocus(field int) tea.Cmd {
	f.focus = (field + fieldCount) % fieldCount
	var cmd tea.Cmd
	for i := 0; i < fieldCount; i++ {
		in := f.input(i)
		if in == nil {
			continue
		}
		if i == f.focus {
			cmd = in.Focus()
		} else {
			in.Blur()
		}
	}
	return cmd
}

// cycle moves a picker selection by delta.
func (f *formModel) cycle(delta int) {
	switch f.focus {
	case fieldUser:
		if n := len(f.users); n > 0 {
			f.userIdx = (f.userIdx + delta + n) % n
		}
	case fieldPriority:
		n := len(backend.Priorities)
		f.priorityIdx = (f.priorityIdx + delta + n) % n
	}
}

// update forwards a key to the focused text input.
func (f *formModel) update(msg tea.Msg) tea.Cmd {
	in := f.input(f.focus)
	if in == nil {
		return nil
	}
	var cmd tea.Cmd
	*in, cmd = in.Update(msg)
	return cmd
}

// value converts the inputs into a tasks.Form.
func (f *formModel) value() tasks.Form {
	form := tasks.Form{
		ID:          f.id,
		Title:       f.title.Value(),
		Description: f.description.Value(),
		DueDate:     f.dueDate.Value(),
		Priority:    backend.Priorities[f.priorityIdx],
		Tags:        splitTags(f.tags.Value()),
	}
	if len(f.users) > 0 {
		form.AssignedUser = f.users[f.userIdx].ID
	}
	return form
}

func splitTags(s string) []string {
	tags := []string{}
	for _, part := range strings.Split(s, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
