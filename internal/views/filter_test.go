package views

import (
	"reflect"
	"testing"

	"taskdesk/backend"
)

func fixtureTasks() []backend.Task {
	return []backend.Task{
		{ID: "1", Title: "Write report", DueDate: "2024-05-02", AssignedUser: "1", Status: backend.StatusTodo},
		{ID: "2", Title: "buy milk", DueDate: "2024-01-10", AssignedUser: "2", Status: backend.StatusDone},
		{ID: "3", Title: "Call plumber", DueDate: "not a date", AssignedUser: "2", Status: backend.StatusIncomplete},
		{ID: "4", Title: "Review report", DueDate: "2024-02-20", AssignedUser: "1", Status: backend.StatusDone},
		{ID: "5", Title: "Plan trip", DueDate: "", AssignedUser: "1", Status: backend.StatusTodo},
	}
}

func taskIDs(tasks []backend.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestDeriveIsPure(t *testing.T) {
	tasks := fixtureTasks()
	original := fixtureTasks()
	state := NewState(2).WithSort(SortTitle)

	first := Derive(tasks, state)
	second := Derive(tasks, state)

	if !reflect.DeepEqual(first, second) {
		t.Error("same inputs should yield identical pages")
	}
	if !reflect.DeepEqual(tasks, original) {
		t.Error("Derive must not reorder or modify its input")
	}
}

func TestSettersResetPage(t *testing.T) {
	s := NewState(5).WithPage(3)

	tests := []struct {
		name string
		next FilterState
	}{
		{"search", s.WithSearch("x")},
		{"status", s.WithStatus(backend.StatusDone)},
		{"user", s.WithUser("1")},
		{"sort", s.WithSort(SortDueDate)},
		{"page size", s.WithPageSize(10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.next.CurrentPage != 1 {
				t.Errorf("CurrentPage = %d, want 1", tt.next.CurrentPage)
			}
		})
	}
	if s.CurrentPage != 3 {
		t.Error("setters must return a new state, not modify the receiver")
	}
	if s.WithPage(0).CurrentPage != 1 || s.WithPage(-4).CurrentPage != 1 {
		t.Error("WithPage should clamp to 1")
	}
}

func TestStatusFilterDone(t *testing.T) {
	page := Derive(fixtureTasks(), NewState(10).WithStatus(backend.StatusDone))
	for _, task := range page.Tasks {
		if task.Status != backend.StatusDone {
			t.Errorf("task %s has status %s", task.ID, task.Status)
		}
	}
	if page.TotalMatches != 2 {
		t.Errorf("TotalMatches = %d, want 2", page.TotalMatches)
	}
}

func TestFilterOrderAndSearch(t *testing.T) {
	state := NewState(10).WithUser("1").WithSearch("REPORT")
	page := Derive(fixtureTasks(), state)

	if got := taskIDs(page.Tasks); !reflect.DeepEqual(got, []string{"1", "4"}) {
		t.Errorf("ids = %v, want [1 4]", got)
	}

	state = state.WithStatus(backend.StatusDone)
	if got := taskIDs(Derive(fixtureTasks(), state).Tasks); !reflect.DeepEqual(got, []string{"4"}) {
		t.Errorf("ids = %v, want [4]", got)
	}
}

func TestSortByDueDate(t *testing.T) {
	page := Derive(fixtureTasks(), NewState(10).WithSort(SortDueDate))
	want := []string{"2", "4", "1", "3", "5"}
	if got := taskIDs(page.Tasks); !reflect.DeepEqual(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}

	jan := indexOf(page.Tasks, "2024-01-10")
	may := indexOf(page.Tasks, "2024-05-02")
	if jan > may {
		t.Error("2024-01-10 should sort before 2024-05-02")
	}
}

func indexOf(tasks []backend.Task, due string) int {
	for i, t := range tasks {
		if t.DueDate == due {
			return i
		}
	}
	return -1
}

func TestSortByTitleCaseInsensitive(t *testing.T) {
	page := Derive(fixtureTasks(), NewState(10).WithSort(SortTitle))
	want := []string{"2", "3", "5", "4", "1"}
	if got := taskIDs(page.Tasks); !reflect.DeepEqual(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
}

func TestSortIsStable(t *testing.T) {
	tasks := []backend.Task{
		{ID: "a", Title: "same"},
		{ID: "b", Title: "Same"},
		{ID: "c", Title: "same"},
	}
	page := Derive(tasks, NewState(10).WithSort(SortTitle))
	if got := taskIDs(page.Tasks); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("equal titles should keep their order, got %v", got)
	}
}

func TestNoSortKeepsFetchedOrder(t *testing.T) {
	page := Derive(fixtureTasks(), NewState(10))
	if got := taskIDs(page.Tasks); !reflect.DeepEqual(got, []string{"1", "2", "3", "4", "5"}) {
		t.Errorf("ids = %v", got)
	}
}

func TestPagination(t *testing.T) {
	tasks := fixtureTasks()
	state := NewState(2)

	var sizes []int
	for p := 1; p <= 3; p++ {
		page := Derive(tasks, state.WithPage(p))
		if page.TotalPages != 3 {
			t.Errorf("page %d: TotalPages = %d, want 3", p, page.TotalPages)
		}
		sizes = append(sizes, len(page.Tasks))
	}
	if !reflect.DeepEqual(sizes, []int{2, 2, 1}) {
		t.Errorf("page sizes = %v, want [2 2 1]", sizes)
	}

	beyond := Derive(tasks, state.WithPage(4))
	if len(beyond.Tasks) != 0 || beyond.Tasks == nil {
		t.Errorf("page past the end should be an empty slice, got %#v", beyond.Tasks)
	}
}

func TestEmptyAndDefaults(t *testing.T) {
	page := Derive(nil, FilterState{})
	if page.TotalPages != 0 || page.TotalMatches != 0 || len(page.Tasks) != 0 {
		t.Errorf("empty page = %+v", page)
	}
	if page.PageSize != DefaultPageSize || page.CurrentPage != 1 {
		t.Errorf("defaults not applied: %+v", page)
	}
}

func TestParseSortOption(t *testing.T) {
	tests := []struct {
		in      string
		want    SortOption
		wantErr bool
	}{
		{"", SortNone, false},
		{"title", SortTitle, false},
		{"dueDate", SortDueDate, false},
		{"due", SortDueDate, false},
		{"priority", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSortOption(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseSortOption(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestParseStatusFilter(t *testing.T) {
	if s, err := ParseStatusFilter("all"); err != nil || s != "" {
		t.Errorf("all = %q, %v", s, err)
	}
	if s, err := ParseStatusFilter("Done"); err != nil || s != backend.StatusDone {
		t.Errorf("Done = %q, %v", s, err)
	}
	if _, err := ParseStatusFilter("archived"); err == nil {
		t.Error("expected error for archived")
	}
}

func TestCycling(t *testing.T) {
	var seen []backend.Status
	s := backend.Status("")
	for i := 0; i < 4; i++ {
		s = NextStatus(s)
		seen = append(seen, s)
	}
	want := []backend.Status{backend.StatusTodo, backend.StatusIncomplete, backend.StatusDone, ""}
	if !reflect.DeepEqual(seen, want) {
		t.Errorf("status cycle = %v", seen)
	}

	users := []backend.User{{ID: "1"}, {ID: "2"}}
	if NextUser("", users) != "1" || NextUser("1", users) != "2" || NextUser("2", users) != "" {
		t.Error("user cycle mismatch")
	}
	if NextSort(SortDueDate) != SortNone || NextSort(SortNone) != SortTitle {
		t.Error("sort cycle mismatch")
	}
}
