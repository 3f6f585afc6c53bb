package utils

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorWithSuggestion wraps an error with a user-friendly suggestion.
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface.
func (e *ErrorWithSuggestion) Error() string {
	return fmt.Sprintf("%s\n\nSuggestion: %s", e.Err.Error(), e.Suggestion)
}

// GetSuggestion returns the suggestion text.
func (e *ErrorWithSuggestion) GetSuggestion() string {
	return e.Suggestion
}

// Unwrap returns the underlying error for error chain support.
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// WrapWithSuggestion wraps an existing error with a suggestion.
func WrapWithSuggestion(err error, suggestion string) error {
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// Sentinel errors matched with errors.Is by callers.
var (
	ErrUnauthenticated    = errors.New("not logged in")
	ErrBadCredentials     = errors.New("invalid username or password")
	ErrNotFound           = errors.New("not found")
	ErrValidationFailed   = errors.New("validation failed")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// ErrNotLoggedIn returns an error for commands that need an active session.
func ErrNotLoggedIn() error {
	return &ErrorWithSuggestion{
		Err:        ErrUnauthenticated,
		Suggestion: "Log in first with 'taskdesk login'",
	}
}

// ErrInvalidCredentials returns an error for a rejected login.
func ErrInvalidCredentials() error {
	return &ErrorWithSuggestion{
		Err:        ErrBadCredentials,
		Suggestion: "Check the username and password and try again",
	}
}

// ErrTaskNotFound returns an error for when a task is not found.
func ErrTaskNotFound(id string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("task %w: %s", ErrNotFound, id),
		Suggestion: "Use 'taskdesk tasks list' to see task ids",
	}
}

// ErrUserNotFound returns an error for an unknown assignee.
func ErrUserNotFound(id string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("user %w: %s", ErrNotFound, id),
		Suggestion: "Use 'taskdesk users' to see available users",
	}
}

// ErrBackendNotConfigured returns an error when a backend is not configured.
func ErrBackendNotConfigured(name string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("%w: %s is not configured", ErrBackendUnavailable, name),
		Suggestion: "Set api.base_url in your config file or export TASKDESK_API_BASE_URL",
	}
}

// ErrBackendOffline returns an error when a backend is unreachable with smart suggestions.
func ErrBackendOffline(name, reason string) error {
	suggestion := getSmartSuggestion(reason)
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("%w: %s: %s", ErrBackendUnavailable, name, reason),
		Suggestion: suggestion,
	}
}

// getSmartSuggestion returns a context-aware suggestion based on the error reason.
func getSmartSuggestion(reason string) string {
	lowerReason := strings.ToLower(reason)

	if strings.Contains(lowerReason, "no such host") || strings.Contains(lowerReason, "dns") {
		return "Check your DNS settings and internet connection"
	}

	if strings.Contains(lowerReason, "connection refused") {
		return "Check if the server is running and accessible"
	}

	if strings.Contains(lowerReason, "timeout") || strings.Contains(lowerReason, "deadline exceeded") {
		return "The server may be slow or unreachable. Try again later"
	}

	return "Check your internet connection and try again"
}

// ErrInvalidPriority returns an error for an invalid priority value.
func ErrInvalidPriority(priority string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid priority: %s", priority),
		Suggestion: "Valid options: Low, Medium, High",
	}
}

// ErrInvalidDate returns an error for an invalid date string.
func ErrInvalidDate(dateStr string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid date: %s", dateStr),
		Suggestion: "Use date format YYYY-MM-DD (e.g., 2026-01-15)",
	}
}

// ErrInvalidStatus returns an error for an invalid status with valid options.
func ErrInvalidStatus(status string, valid []string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid status: %s", status),
		Suggestion: fmt.Sprintf("Valid options: %s", strings.Join(valid, ", ")),
	}
}

// ErrInvalidSort returns an error for an unknown sort option.
func ErrInvalidSort(option string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid sort option: %s", option),
		Suggestion: "Valid options: title, dueDate",
	}
}

// ValidationErrors maps form field names to the message shown next to them.
type ValidationErrors map[string]string

// Error lists the failing fields in a stable order.
func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, v[f]))
	}
	return fmt.Sprintf("%s: %s", ErrValidationFailed, strings.Join(parts, "; "))
}

// Is lets errors.Is(err, ErrValidationFailed) match.
func (v ValidationErrors) Is(target error) bool {
	return target == ErrValidationFailed
}

// Field returns the message for a field, or "".
func (v ValidationErrors) Field(name string) string {
	return v[name]
}
