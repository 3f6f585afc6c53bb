package utils

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"taskdesk/backend"
)

// ValidatePriority validates a priority name (Low, Medium, High; empty means Low).
func ValidatePriority(priority string) (backend.Priority, error) {
	p, err := backend.ParsePriority(priority)
	if err != nil {
		return "", ErrInvalidPriority(priority)
	}
	return p, nil
}

// ValidateStatus validates a status name.
func ValidateStatus(status string) (backend.Status, error) {
	s, err := backend.ParseStatus(status)
	if err != nil {
		valid := make([]string, len(backend.Statuses))
		for i, st := range backend.Statuses {
			valid[i] = string(st)
		}
		return "", ErrInvalidStatus(status, valid)
	}
	return s, nil
}

// relativePattern matches relative date formats like +7d, -3d, +2w, +1m
var relativePattern = regexp.MustCompile(`^([+-])(\d+)([dwm])$`)

// parseRelativeDate parses relative date strings like "today", "tomorrow", "yesterday", "+7d", "-3d", "+2w", "+1m".
// Returns nil if the string is not a relative date format.
func parseRelativeDate(dateStr string, now time.Time) (*time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)

	lower := strings.ToLower(dateStr)

	switch lower {
	case "today":
		return &today, nil
	case "tomorrow":
		t := today.AddDate(0, 0, 1)
		return &t, nil
	case "yesterday":
		t := today.AddDate(0, 0, -1)
		return &t, nil
	}

	matches := relativePattern.FindStringSubmatch(lower)
	if matches == nil {
		return nil, nil
	}

	num, err := strconv.Atoi(matches[2])
	if err != nil {
		return nil, ErrInvalidDate(dateStr)
	}
	if matches[1] == "-" {
		num = -num
	}

	var result time.Time
	switch matches[3] {
	case "d":
		result = today.AddDate(0, 0, num)
	case "w":
		result = today.AddDate(0, 0, num*7)
	case "m":
		result = today.AddDate(0, num, 0)
	}

	return &result, nil
}

// ParseDueDate normalizes a due date flag to YYYY-MM-DD.
// Supported relative formats: today, tomorrow, yesterday, +Nd, -Nd, +Nw, +Nm
// Returns "" for empty input.
func ParseDueDate(dateStr string) (string, error) {
	return parseDueDateAt(strings.TrimSpace(dateStr), time.Now())
}

func parseDueDateAt(dateStr string, now time.Time) (string, error) {
	if dateStr == "" {
		return "", nil
	}

	t, err := parseRelativeDate(dateStr, now)
	if err != nil {
		return "", err
	}
	if t != nil {
		return t.Format(backend.DateFormat), nil
	}

	parsed, err := time.ParseInLocation(backend.DateFormat, dateStr, time.Local)
	if err != nil {
		return "", ErrInvalidDate(dateStr)
	}
	return parsed.Format(backend.DateFormat), nil
}

// SplitTags splits comma-separated tag flags, trimming blanks and duplicates.
func SplitTags(values []string) []string {
	seen := make(map[string]bool)
	tags := []string{}
	for _, v := range values {
		for _, tag := range strings.Split(v, ",") {
			tag = strings.TrimSpace(tag)
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}
