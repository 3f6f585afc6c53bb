package tasks

import (
	"strings"
	"time"

	"taskdesk/backend"
	"taskdesk/internal/utils"
)

// Form field names, matching the task JSON names.
const (
	FieldTitle        = "title"
	FieldDescription  = "description"
	FieldDueDate      = "dueDate"
	FieldAssignedUser = "assignedUser"
	FieldPriority     = "priority"
)

// Validation messages.
const (
	MsgTitleRequired       = "Task title is required"
	MsgDescriptionRequired = "Description is required"
	MsgDueDateRequired     = "Due date is required"
	MsgDueDateInvalid      = "Due date must be a valid date (YYYY-MM-DD)"
	MsgUserRequired        = "Assigned user is required"
	MsgUserUnknown         = "Assigned user does not exist"
	MsgPriorityInvalid     = "Priority must be Low, Medium or High"
)

// Form is the shared create/edit form. ID is empty when creating.
type Form struct {
	ID           string
	Title        string
	Description  string
	DueDate      string
	AssignedUser string
	Priority     backend.Priority
	Tags         []string
}

// NewForm returns an empty create form with the default priority.
func NewForm() Form {
	return Form{Priority: backend.PriorityLow, Tags: []string{}}
}

// FormFromTask seeds an edit form from an existing task.
func FormFromTask(t backend.Task) Form {
	return Form{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		DueDate:      t.DueDate,
		AssignedUser: t.AssignedUser,
		Priority:     t.Priority,
		Tags:         append([]string{}, t.Tags...),
	}
}

// IsEdit reports whether the form edits an existing task.
func (f Form) IsEdit() bool {
	return f.ID != ""
}

// Validate checks required fields. When users is non-empty the assignee must
// be one of them. It returns nil when the form is valid.
func (f Form) Validate(users []backend.User) utils.ValidationErrors {
	errs := utils.ValidationErrors{}

	if strings.TrimSpace(f.Title) == "" {
		errs[FieldTitle] = MsgTitleRequired
	}
	if strings.TrimSpace(f.Description) == "" {
		errs[FieldDescription] = MsgDescriptionRequired
	}

	due := strings.TrimSpace(f.DueDate)
	if due == "" {
		errs[FieldDueDate] = MsgDueDateRequired
	} else if _, err := time.Parse(backend.DateFormat, due); err != nil {
		errs[FieldDueDate] = MsgDueDateInvalid
	}

	user := strings.TrimSpace(f.AssignedUser)
	if user == "" {
		errs[FieldAssignedUser] = MsgUserRequired
	} else if len(users) > 0 && !hasUser(users, user) {
		errs[FieldAssignedUser] = MsgUserUnknown
	}

	if _, err := backend.ParsePriority(string(f.Priority)); err != nil {
		errs[FieldPriority] = MsgPriorityInvalid
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func hasUser(users []backend.User, id string) bool {
	for _, u := range users {
		if u.ID == id {
			return true
		}
	}
	return false
}

// task converts a valid form into a task record.
func (f Form) task() backend.Task {
	priority, _ := backend.ParsePriority(string(f.Priority))
	tags := f.Tags
	if tags == nil {
		tags = []string{}
	}
	return backend.Task{
		ID:           f.ID,
		Title:        strings.TrimSpace(f.Title),
		Description:  strings.TrimSpace(f.Description),
		DueDate:      strings.TrimSpace(f.DueDate),
		AssignedUser: strings.TrimSpace(f.AssignedUser),
		Priority:     priority,
		Tags:         tags,
	}
}

// fields returns the PATCH body for an edit.
func (f Form) fields() map[string]any {
	t := f.task()
	return map[string]any{
		FieldTitle:        t.Title,
		FieldDescription:  t.Description,
		FieldDueDate:      t.DueDate,
		FieldAssignedUser: t.AssignedUser,
		FieldPriority:     t.Priority,
		"tags":            t.Tags,
	}
}
