package cache

import (
	"sync"
	"testing"

	"taskdesk/backend"
)

func ids(tasks []backend.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func seeded() *Collection {
	c := New()
	c.Replace([]backend.Task{
		{ID: "a", Title: "A", Status: backend.StatusTodo},
		{ID: "b", Title: "B", Status: backend.StatusTodo},
		{ID: "c", Title: "C", Status: backend.StatusDone},
	})
	return c
}

func TestReplace(t *testing.T) {
	c := New()
	if c.Len() != 0 || !c.FetchedAt().IsZero() {
		t.Fatal("new collection should be empty and unfetched")
	}

	input := []backend.Task{{ID: "x", Tags: []string{"one"}}}
	c.Replace(input)
	input[0].ID = "mutated"
	input[0].Tags[0] = "mutated"

	got := c.Tasks()
	if got[0].ID != "x" || got[0].Tags[0] != "one" {
		t.Errorf("Replace should copy its input, got %+v", got[0])
	}
	if c.FetchedAt().IsZero() {
		t.Error("FetchedAt should be set after Replace")
	}
}

func TestApplyEditKeepsPosition(t *testing.T) {
	c := seeded()
	before := c.Version()

	if !c.ApplyEdit(backend.Task{ID: "b", Title: "B2", Status: backend.StatusDone}) {
		t.Fatal("ApplyEdit returned false for a cached id")
	}
	if !equalIDs(ids(c.Tasks()), []string{"a", "b", "c"}) {
		t.Errorf("order changed: %v", ids(c.Tasks()))
	}
	if got, _ := c.Find("b"); got.Title != "B2" || got.Status != backend.StatusDone {
		t.Errorf("edited task = %+v", got)
	}
	if c.Version() == before {
		t.Error("Version should advance on edit")
	}
}

func TestApplyEditUnknownIDIsNoop(t *testing.T) {
	c := seeded()
	before := c.Version()

	if c.ApplyEdit(backend.Task{ID: "zzz"}) {
		t.Error("ApplyEdit should return false for unknown id")
	}
	if c.Len() != 3 || c.Version() != before {
		t.Error("unknown edit must not insert or bump the version")
	}
}

func TestApplyDeleteRemovesExactlyOne(t *testing.T) {
	c := seeded()

	if !c.ApplyDelete("b") {
		t.Fatal("ApplyDelete returned false")
	}
	if !equalIDs(ids(c.Tasks()), []string{"a", "c"}) {
		t.Errorf("after delete: %v", ids(c.Tasks()))
	}
	if c.ApplyDelete("b") {
		t.Error("second delete should report false")
	}
}

func TestApplyDeleteDuplicateIDs(t *testing.T) {
	c := New()
	c.Replace([]backend.Task{{ID: "a"}, {ID: "dup"}, {ID: "b"}, {ID: "dup"}})

	c.ApplyDelete("dup")
	if !equalIDs(ids(c.Tasks()), []string{"a", "b", "dup"}) {
		t.Errorf("only the first match should be removed: %v", ids(c.Tasks()))
	}
}

func TestTasksReturnsCopy(t *testing.T) {
	c := seeded()
	got := c.Tasks()
	got[0].Title = "changed"

	if again, _ := c.Find("a"); again.Title != "A" {
		t.Error("callers must not be able to mutate the cache")
	}
}

func TestUsers(t *testing.T) {
	c := New()
	c.ReplaceUsers([]backend.User{{ID: "1", Name: "Admin"}})

	if c.UserName("1") != "Admin" {
		t.Errorf("UserName(1) = %q", c.UserName("1"))
	}
	if c.UserName("9") != "9" {
		t.Errorf("UserName(9) should fall back to the id, got %q", c.UserName("9"))
	}
	if !c.HasUser("1") || c.HasUser("9") {
		t.Error("HasUser mismatch")
	}
	if len(c.UsersList()) != 1 {
		t.Errorf("UsersList = %+v", c.UsersList())
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := seeded()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = c.Tasks()
		}()
		go func() {
			defer wg.Done()
			c.ApplyEdit(backend.Task{ID: "a", Title: "A"})
		}()
	}
	wg.Wait()
	if c.Len() != 3 {
		t.Errorf("Len = %d", c.Len())
	}
}
