// Package views derives the visible page of tasks from the cached collection
// and the current filter state.
package views

import (
	"slices"
	"strings"
	"time"

	"taskdesk/backend"
)

// Derive filters by status, then assignee, then title search, sorts the
// matches and cuts out the current page. The input slice is never modified.
func Derive(tasks []backend.Task, state FilterState) Page {
	size := state.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	page := state.CurrentPage
	if page < 1 {
		page = 1
	}

	matches := FilterTasks(tasks, state)
	SortTasks(matches, state.SortOption)

	return Page{
		Tasks:        paginate(matches, page, size),
		CurrentPage:  page,
		PageSize:     size,
		TotalPages:   (len(matches) + size - 1) / size,
		TotalMatches: len(matches),
	}
}

// FilterTasks returns a new slice holding the tasks that pass every active filter.
func FilterTasks(tasks []backend.Task, state FilterState) []backend.Task {
	query := strings.ToLower(state.SearchQuery)

	result := make([]backend.Task, 0, len(tasks))
	for _, t := range tasks {
		if state.StatusFilter != "" && t.Status != state.StatusFilter {
			continue
		}
		if state.UserFilter != "" && t.AssignedUser != state.UserFilter {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(t.Title), query) {
			continue
		}
		result = append(result, t)
	}
	return result
}

// SortTasks sorts in place and keeps the relative order of equal keys.
func SortTasks(tasks []backend.Task, opt SortOption) {
	switch opt {
	case SortTitle:
		slices.SortStableFunc(tasks, compareTitle)
	case SortDueDate:
		slices.SortStableFunc(tasks, compareDueDate)
	}
}

// compareTitle orders titles case-insensitively.
func compareTitle(a, b backend.Task) int {
	return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
}

// compareDueDate orders by calendar date; missing or malformed dates sort last.
func compareDueDate(a, b backend.Task) int {
	ad, aok := a.Due()
	bd, bok := b.Due()
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	}
	return compareTime(ad, bd)
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

// paginate returns [(page-1)*size, page*size) clipped to the slice. Pages past
// the end are empty.
func paginate(tasks []backend.Task, page, size int) []backend.Task {
	start := (page - 1) * size
	if start >= len(tasks) {
		return []backend.Task{}
	}
	end := start + size
	if end > len(tasks) {
		end = len(tasks)
	}
	return tasks[start:end]
}
