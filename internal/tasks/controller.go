// Package tasks performs per-task mutations through the task API and keeps the
// cached collection in step with the server.
package tasks

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"taskdesk/backend"
	"taskdesk/internal/cache"
	"taskdesk/internal/utils"
)

// Controller mutates tasks remotely and mirrors successful calls into the cache.
type Controller struct {
	api   backend.TaskAPI
	cache *cache.Collection
}

// New creates a controller.
func New(api backend.TaskAPI, c *cache.Collection) *Controller {
	return &Controller{api: api, cache: c}
}

// Cache returns the collection the controller writes to.
func (c *Controller) Cache() *cache.Collection {
	return c.cache
}

// Refresh fetches tasks and users and replaces the cached copies.
func (c *Controller) Refresh(ctx context.Context) error {
	var (
		tasks []backend.Task
		users []backend.User
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = c.api.GetTasks(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = c.api.GetUsers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	c.cache.Replace(tasks)
	c.cache.ReplaceUsers(users)
	utils.Debugf("tasks: refreshed %d tasks, %d users", len(tasks), len(users))
	return nil
}

// ToggleStatus flips a task between done and not done. The cache is updated
// only after the server accepted the change.
func (c *Controller) ToggleStatus(ctx context.Context, task backend.Task) (backend.Task, error) {
	next := task.Status.Toggled()

	updated, err := c.api.PatchTask(ctx, task.ID, map[string]any{"status": next})
	if err != nil {
		return task, err
	}

	result := task
	result.Status = next
	if updated != nil {
		result = *updated
	}
	c.cache.ApplyEdit(result)
	return result, nil
}

// Delete removes a task remotely, then from the cache.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if err := c.api.DeleteTask(ctx, id); err != nil {
		return err
	}
	c.cache.ApplyDelete(id)
	return nil
}

// EditSeed returns an edit form filled from the cached task.
func (c *Controller) EditSeed(id string) (Form, error) {
	t, ok := c.cache.Find(id)
	if !ok {
		return Form{}, utils.ErrTaskNotFound(id)
	}
	return FormFromTask(t), nil
}

// Submit validates the form, then creates or updates the task and re-fetches
// the list. Validation failures are returned as utils.ValidationErrors and
// never reach the network.
func (c *Controller) Submit(ctx context.Context, form Form) (*backend.Task, error) {
	if errs := form.Validate(c.cache.UsersList()); errs != nil {
		return nil, errs
	}

	var (
		saved *backend.Task
		err   error
	)
	if form.IsEdit() {
		saved, err = c.api.PatchTask(ctx, form.ID, form.fields())
	} else {
		t := form.task()
		saved, err = c.api.CreateTask(ctx, &t)
	}
	if err != nil {
		return nil, err
	}

	if err := c.Refresh(ctx); err != nil {
		return saved, fmt.Errorf("task saved but the list could not be reloaded: %w", err)
	}
	return saved, nil
}
