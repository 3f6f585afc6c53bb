// Package cache holds the fetched task collection and the user directory.
package cache

import (
	"sync"
	"time"

	"taskdesk/backend"
)

// Collection is the client-side copy of the task list. Mutations are applied
// only after the matching remote call has succeeded.
type Collection struct {
	mu        sync.RWMutex
	tasks     []backend.Task
	users     []backend.User
	version   uint64
	fetchedAt time.Time
}

// New returns an empty Collection.
func New() *Collection {
	return &Collection{tasks: []backend.Task{}, users: []backend.User{}}
}

// Replace swaps in a freshly fetched list.
func (c *Collection) Replace(tasks []backend.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tasks = cloneTasks(tasks)
	c.fetchedAt = time.Now()
	c.version++
}

// ApplyEdit replaces the task with the same id in place. It returns false and
// changes nothing when no such task is cached.
func (c *Collection) ApplyEdit(task backend.Task) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.tasks {
		if c.tasks[i].ID == task.ID {
			c.tasks[i] = cloneTask(task)
			c.version++
			return true
		}
	}
	return false
}

// ApplyDelete removes the first task with id, keeping the others in order.
func (c *Collection) ApplyDelete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.tasks {
		if c.tasks[i].ID == id {
			next := make([]backend.Task, 0, len(c.tasks)-1)
			next = append(next, c.tasks[:i]...)
			next = append(next, c.tasks[i+1:]...)
			c.tasks = next
			c.version++
			return true
		}
	}
	return false
}

// Tasks returns a copy of the cached tasks.
func (c *Collection) Tasks() []backend.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneTasks(c.tasks)
}

func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tasks)
}

// Find returns a copy of the task with id.
func (c *Collection) Find(id string) (backend.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, t := range c.tasks {
		if t.ID == id {
			return cloneTask(t), true
		}
	}
	return backend.Task{}, false
}

// Version increments on every mutation.
func (c *Collection) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// FetchedAt is the time of the last Replace, zero if never fetched.
func (c *Collection) FetchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt
}

// ReplaceUsers swaps in the user directory.
func (c *Collection) ReplaceUsers(users []backend.User) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.users = append([]backend.User{}, users...)
	c.version++
}

// UsersList returns a copy of the user directory.
func (c *Collection) UsersList() []backend.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]backend.User{}, c.users...)
}

// UserName resolves an id to a display name, falling back to the raw id.
func (c *Collection) UserName(id string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return backend.FindUserName(c.users, id)
}

// HasUser reports whether id is in the user directory.
func (c *Collection) HasUser(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, u := range c.users {
		if u.ID == id {
			return true
		}
	}
	return false
}

func cloneTask(t backend.Task) backend.Task {
	if t.Tags != nil {
		t.Tags = append([]string{}, t.Tags...)
	}
	return t
}

func cloneTasks(tasks []backend.Task) []backend.Task {
	out := make([]backend.Task, len(tasks))
	for i, t := range tasks {
		out[i] = cloneTask(t)
	}
	return out
}
