package views

import (
	"strings"
	"time"

	"taskdesk/backend"
	"taskdesk/internal/utils"
)

// DefaultPageSize is used when a state carries no positive page size.
const DefaultPageSize = 5

// SearchDebounce is how long search input must be idle before it is applied.
const SearchDebounce = 300 * time.Millisecond

// SortOption names a sort order. The empty option keeps the fetched order.
type SortOption string

const (
	SortNone    SortOption = ""
	SortTitle   SortOption = "title"
	SortDueDate SortOption = "dueDate"
)

// SortOptions lists the options in the order the UI cycles through them.
var SortOptions = []SortOption{SortNone, SortTitle, SortDueDate}

// FilterState is the complete input of the view pipeline besides the tasks.
type FilterState struct {
	SearchQuery  string         `json:"searchQuery"`
	StatusFilter backend.Status `json:"statusFilter"`
	UserFilter   string         `json:"userFilter"`
	SortOption   SortOption     `json:"sortOption"`
	CurrentPage  int            `json:"currentPage"`
	PageSize     int            `json:"pageSize"`
}

// Page is the visible slice plus pagination metadata.
type Page struct {
	Tasks        []backend.Task `json:"tasks"`
	CurrentPage  int            `json:"currentPage"`
	PageSize     int            `json:"pageSize"`
	TotalPages   int            `json:"totalPages"`
	TotalMatches int            `json:"totalMatches"`
}

// NewState returns the initial state: no filters, page 1.
func NewState(pageSize int) FilterState {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return FilterState{CurrentPage: 1, PageSize: pageSize}
}

// WithSearch sets the search query and returns to page 1.
func (s FilterState) WithSearch(q string) FilterState {
	s.SearchQuery = q
	s.CurrentPage = 1
	return s
}

// WithStatus sets the status filter and returns to page 1.
func (s FilterState) WithStatus(status backend.Status) FilterState {
	s.StatusFilter = status
	s.CurrentPage = 1
	return s
}

// WithUser sets the assignee filter and returns to page 1.
func (s FilterState) WithUser(userID string) FilterState {
	s.UserFilter = userID
	s.CurrentPage = 1
	return s
}

// WithSort sets the sort option and returns to page 1.
func (s FilterState) WithSort(opt SortOption) FilterState {
	s.SortOption = opt
	s.CurrentPage = 1
	return s
}

// WithPage moves to page n, never below 1.
func (s FilterState) WithPage(n int) FilterState {
	if n < 1 {
		n = 1
	}
	s.CurrentPage = n
	return s
}

// WithPageSize changes the page size and returns to page 1.
func (s FilterState) WithPageSize(n int) FilterState {
	s.PageSize = n
	s.CurrentPage = 1
	return s
}

// Active reports whether any filter or search narrows the list.
func (s FilterState) Active() bool {
	return s.SearchQuery != "" || s.StatusFilter != "" || s.UserFilter != ""
}

// ParseSortOption validates CLI input. Matching is case-insensitive and
// accepts "due" and "due_date" as aliases.
func ParseSortOption(s string) (SortOption, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return SortNone, nil
	case "title":
		return SortTitle, nil
	case "duedate", "due", "due_date":
		return SortDueDate, nil
	}
	return "", utils.ErrInvalidSort(s)
}

// ParseStatusFilter validates a status filter. Empty and "all" mean no filter.
func ParseStatusFilter(s string) (backend.Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return "", nil
	}
	return utils.ValidateStatus(s)
}

// NextSort returns the option after current in SortOptions.
func NextSort(current SortOption) SortOption {
	for i, o := range SortOptions {
		if o == current {
			return SortOptions[(i+1)%len(SortOptions)]
		}
	}
	return SortNone
}

// NextStatus cycles "" → todo → incomplete → done → "".
func NextStatus(current backend.Status) backend.Status {
	if current == "" {
		return backend.Statuses[0]
	}
	for i, st := range backend.Statuses {
		if st == current {
			if i+1 < len(backend.Statuses) {
				return backend.Statuses[i+1]
			}
			return ""
		}
	}
	return ""
}

// NextUser cycles "" → each user id in order → "".
func NextUser(current string, users []backend.User) string {
	if len(users) == 0 {
		return ""
	}
	if current == "" {
		return users[0].ID
	}
	for i, u := range users {
		if u.ID == current {
			if i+1 < len(users) {
				return users[i+1].ID
			}
			return ""
		}
	}
	return ""
}
