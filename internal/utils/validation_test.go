package utils

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"taskdesk/backend"
)

// =============================================================================
// Validation Tests
// =============================================================================

func TestValidatePriority(t *testing.T) {
	tests := []struct {
		input   string
		want    backend.Priority
		wantErr bool
	}{
		{"", backend.PriorityLow, false},
		{"Low", backend.PriorityLow, false},
		{"medium", backend.PriorityMedium, false},
		{"HIGH", backend.PriorityHigh, false},
		{"urgent", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ValidatePriority(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidatePriority(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ValidatePriority(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateStatus(t *testing.T) {
	if s, err := ValidateStatus("done"); err != nil || s != backend.StatusDone {
		t.Errorf("ValidateStatus(done) = %q, %v", s, err)
	}

	_, err := ValidateStatus("doing")
	var ews *ErrorWithSuggestion
	if !errors.As(err, &ews) {
		t.Fatalf("expected ErrorWithSuggestion, got %v", err)
	}
}

func TestParseDueDateAt(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 30, 0, 0, time.Local)

	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"", "", false},
		{"2026-04-01", "2026-04-01", false},
		{"today", "2026-03-10", false},
		{"Tomorrow", "2026-03-11", false},
		{"yesterday", "2026-03-09", false},
		{"+7d", "2026-03-17", false},
		{"-3d", "2026-03-07", false},
		{"+2w", "2026-03-24", false},
		{"+1m", "2026-04-10", false},
		{"03/10/2026", "", true},
		{"2026-13-01", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDueDateAt(tt.input, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDueDateAt(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseDueDateAt(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitTags(t *testing.T) {
	got := SplitTags([]string{"work, home", "work", " ", "urgent"})
	want := []string{"work", "home", "urgent"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitTags = %v, want %v", got, want)
	}

	if empty := SplitTags(nil); empty == nil || len(empty) != 0 {
		t.Errorf("SplitTags(nil) = %#v, want empty non-nil slice", empty)
	}
}
