package utils

import (
	"errors"
	"strings"
	"testing"
)

// =============================================================================
// Error Tests
// =============================================================================

// TestErrorWithSuggestionImplementsError verifies interface compliance
func TestErrorWithSuggestionImplementsError(t *testing.T) {
	var _ error = &ErrorWithSuggestion{}
}

// TestErrorWithSuggestionError verifies Error() method output
func TestErrorWithSuggestionError(t *testing.T) {
	err := &ErrorWithSuggestion{
		Err:        errors.New("something went wrong"),
		Suggestion: "Try doing X",
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "something went wrong") {
		t.Errorf("Error() should contain error message, got: %s", errStr)
	}
	if !strings.Contains(errStr, "Suggestion: Try doing X") {
		t.Errorf("Error() should contain suggestion text, got: %s", errStr)
	}
}

// TestErrorWithSuggestionUnwrap verifies Unwrap() for error chain
func TestErrorWithSuggestionUnwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := WrapWithSuggestion(underlying, "suggestion")

	if !errors.Is(err, underlying) {
		t.Error("errors.Is should find the wrapped error")
	}

	var ews *ErrorWithSuggestion
	if !errors.As(err, &ews) {
		t.Fatal("errors.As should find ErrorWithSuggestion")
	}
	if ews.GetSuggestion() != "suggestion" {
		t.Errorf("GetSuggestion() = %q, want 'suggestion'", ews.GetSuggestion())
	}
}

// TestSentinelMatching verifies constructors wrap the expected sentinels
func TestSentinelMatching(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"not logged in", ErrNotLoggedIn(), ErrUnauthenticated},
		{"bad credentials", ErrInvalidCredentials(), ErrBadCredentials},
		{"task not found", ErrTaskNotFound("42"), ErrNotFound},
		{"user not found", ErrUserNotFound("7"), ErrNotFound},
		{"backend not configured", ErrBackendNotConfigured("rest"), ErrBackendUnavailable},
		{"backend offline", ErrBackendOffline("rest", "connection refused"), ErrBackendUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.sentinel)
			}
		})
	}
}

// TestErrTaskNotFoundMessage verifies the task id and hint are present
func TestErrTaskNotFoundMessage(t *testing.T) {
	msg := ErrTaskNotFound("abc").Error()
	if !strings.Contains(msg, "abc") {
		t.Errorf("expected id in message, got: %s", msg)
	}
	if !strings.Contains(msg, "taskdesk tasks list") {
		t.Errorf("expected list hint in message, got: %s", msg)
	}
}

// TestErrBackendOfflineSuggestions verifies reason-specific suggestions
func TestErrBackendOfflineSuggestions(t *testing.T) {
	tests := []struct {
		reason string
		want   string
	}{
		{"dial tcp: lookup api.example: no such host", "DNS"},
		{"dial tcp 127.0.0.1:3000: connection refused", "server is running"},
		{"context deadline exceeded", "slow or unreachable"},
		{"something else", "internet connection"},
	}

	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			var ews *ErrorWithSuggestion
			if !errors.As(ErrBackendOffline("rest", tt.reason), &ews) {
				t.Fatal("expected ErrorWithSuggestion")
			}
			if !strings.Contains(ews.Suggestion, tt.want) {
				t.Errorf("suggestion %q should contain %q", ews.Suggestion, tt.want)
			}
		})
	}
}

// TestErrInvalidStatusListsOptions verifies valid options appear in the suggestion
func TestErrInvalidStatusListsOptions(t *testing.T) {
	msg := ErrInvalidStatus("doing", []string{"todo", "incomplete", "done"}).Error()
	if !strings.Contains(msg, "todo, incomplete, done") {
		t.Errorf("expected options in message, got: %s", msg)
	}
}

// TestValidationErrors verifies field messages and sentinel matching
func TestValidationErrors(t *testing.T) {
	verr := ValidationErrors{
		"title":        "Task title is required",
		"assignedUser": "Assigned user is required",
	}

	if !errors.Is(verr, ErrValidationFailed) {
		t.Error("ValidationErrors should match ErrValidationFailed")
	}
	if verr.Field("title") != "Task title is required" {
		t.Errorf("Field(title) = %q", verr.Field("title"))
	}
	if verr.Field("dueDate") != "" {
		t.Errorf("Field(dueDate) = %q, want empty", verr.Field("dueDate"))
	}

	msg := verr.Error()
	if strings.Index(msg, "assignedUser") > strings.Index(msg, "title") {
		t.Errorf("fields should be sorted, got: %s", msg)
	}
}
