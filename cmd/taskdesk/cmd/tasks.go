package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"taskdesk/backend"
	"taskdesk/internal/cli/prompt"
	"taskdesk/internal/tasks"
	"taskdesk/internal/utils"
	"taskdesk/internal/views"
)

// newTasksCmd creates the 'tasks' subcommand group
func newTasksCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	tasksCmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task", "t"},
		Short:   "List and manage tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	tasksCmd.AddCommand(newTasksListCmd(stdout, cfg))
	tasksCmd.AddCommand(newTasksShowCmd(stdout, cfg))
	tasksCmd.AddCommand(newTasksAddCmd(stdout, cfg))
	tasksCmd.AddCommand(newTasksEditCmd(stdout, cfg))
	tasksCmd.AddCommand(newTasksToggleCmd(stdout, cfg))
	tasksCmd.AddCommand(newTasksDeleteCmd(stdout, cfg))

	return tasksCmd
}

// openLoggedIn opens the app, requires a session and loads the task list.
func openLoggedIn(cmd *cobra.Command, cfg *Config) (*app, error) {
	a, err := openApp(cmd, cfg)
	if err != nil {
		return nil, err
	}
	if err := a.session.Require(); err != nil {
		_ = a.Close()
		return nil, err
	}
	if err := a.ctrl.Refresh(a.ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func newTasksListCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks with search, filters, sorting and paging",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openLoggedIn(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			state, err := a.listState(cmd, cfg)
			if err != nil {
				return err
			}

			page := views.Derive(a.cache.Tasks(), state)
			utils.Debugf("list: %d of %d tasks on page %d", len(page.Tasks), page.TotalMatches, page.CurrentPage)

			if a.json {
				return writeJSON(stdout, listTasksResponse{
					Tasks:        page.Tasks,
					Filter:       state,
					CurrentPage:  page.CurrentPage,
					TotalPages:   page.TotalPages,
					TotalMatches: page.TotalMatches,
					Count:        len(page.Tasks),
					Result:       ResultInfoOnly,
				})
			}

			a.newRenderer(stdout).RenderPage(page)
			if cfg.NoPrompt {
				_, _ = fmt.Fprintln(stdout, ResultInfoOnly)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringP("search", "s", "", "Case-insensitive title search")
	cmd.Flags().String("status", "", "Filter by status (todo, incomplete, done, all)")
	cmd.Flags().StringP("user", "u", "", "Filter by assigned user (id or name)")
	cmd.Flags().String("sort", "", "Sort by title or dueDate")
	cmd.Flags().Int("page", 1, "Page number")
	cmd.Flags().Int("page-size", 0, "Tasks per page (defaults to ui.page_size)")
	cmd.Flags().String("view", "", "Start from a saved view")
	return cmd
}

// listState builds the filter state from an optional view plus flag overrides.
func (a *app) listState(cmd *cobra.Command, cfg *Config) (views.FilterState, error) {
	state := views.NewState(a.conf.UI.PageSize)

	if name, _ := cmd.Flags().GetString("view"); name != "" {
		v, err := views.NewLoader(getViewsDir(cfg)).LoadView(name)
		if err != nil {
			return state, err
		}
		state = v.State(a.conf.UI.PageSize)
	}

	flags := cmd.Flags()
	if flags.Changed("search") {
		q, _ := flags.GetString("search")
		state = state.WithSearch(q)
	}
	if flags.Changed("status") {
		s, _ := flags.GetString("status")
		status, err := views.ParseStatusFilter(s)
		if err != nil {
			return state, err
		}
		state = state.WithStatus(status)
	}
	if flags.Changed("user") {
		u, _ := flags.GetString("user")
		id, err := a.resolveUser(u)
		if err != nil {
			return state, err
		}
		state = state.WithUser(id)
	}
	if flags.Changed("sort") {
		s, _ := flags.GetString("sort")
		opt, err := views.ParseSortOption(s)
		if err != nil {
			return state, err
		}
		state = state.WithSort(opt)
	}
	if flags.Changed("page-size") {
		n, _ := flags.GetInt("page-size")
		if n <= 0 {
			return state, fmt.Errorf("page size must be positive: %d", n)
		}
		state = state.WithPageSize(n)
	}
	if flags.Changed("page") {
		n, _ := flags.GetInt("page")
		state = state.WithPage(n)
	}
	return state, nil
}

// resolveUser accepts a user id or a case-insensitive name. Empty and "all"
// clear the filter.
func (a *app) resolveUser(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.EqualFold(ref, "all") {
		return "", nil
	}
	if a.cache.HasUser(ref) {
		return ref, nil
	}
	for _, u := range a.cache.UsersList() {
		if strings.EqualFold(u.Name, ref) {
			return u.ID, nil
		}
	}
	return "", utils.ErrUserNotFound(ref)
}

// findTask resolves an id or a unique case-insensitive title.
func (a *app) findTask(ref string) (backend.Task, error) {
	if t, ok := a.cache.Find(ref); ok {
		return t, nil
	}

	var matches []backend.Task
	for _, t := range a.cache.Tasks() {
		if strings.EqualFold(t.Title, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return backend.Task{}, utils.ErrTaskNotFound(ref)
	}
	return backend.Task{}, utils.WrapWithSuggestion(
		fmt.Errorf("%d tasks are titled %q", len(matches), ref),
		"Use the task id instead (see 'taskdesk tasks list')")
}

// selectTask resolves args[0], or prompts for a task when no argument is given.
func (a *app) selectTask(args []string, label string, stdout io.Writer, cfg *Config) (backend.Task, error) {
	if len(args) > 0 {
		return a.findTask(args[0])
	}

	selector := &prompt.TaskSelector{
		Tasks:    a.cache.Tasks(),
		Users:    a.cache.UserName,
		Prompt:   label,
		Reader:   stdinOf(cfg),
		Writer:   stdout,
		NoPrompt: cfg.NoPrompt,
	}
	t, err := selector.Run()
	if err != nil {
		if errors.Is(err, prompt.ErrNoPromptMode) {
			return backend.Task{}, fmt.Errorf("a task id is required: %w", err)
		}
		return backend.Task{}, err
	}
	return *t, nil
}

func newTasksShowCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show every field of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openLoggedIn(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			t, err := a.findTask(args[0])
			if err != nil {
				return err
			}

			if a.json {
				return writeJSON(stdout, actionResponse{Action: "show", Task: &t, Result: ResultInfoOnly})
			}
			a.newRenderer(stdout).RenderDetail(&t)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func addFormFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("description", "d", "", "Task description")
	cmd.Flags().String("due", "", "Due date (YYYY-MM-DD, today, tomorrow, +Nd, +Nw, +Nm)")
	cmd.Flags().StringP("user", "u", "", "Assigned user (id or name)")
	cmd.Flags().StringP("priority", "p", "", "Priority (Low, Medium, High)")
	cmd.Flags().StringSliceP("tag", "t", nil, "Tags (repeatable or comma-separated)")
}

// applyFormFlags copies changed flags onto the form.
func (a *app) applyFormFlags(cmd *cobra.Command, form *tasks.Form) error {
	flags := cmd.Flags()
	if flags.Changed("title") {
		form.Title, _ = flags.GetString("title")
	}
	if flags.Changed("description") {
		form.Description, _ = flags.GetString("description")
	}
	if flags.Changed("due") {
		raw, _ := flags.GetString("due")
		due, err := utils.ParseDueDate(raw)
		if err != nil {
			return err
		}
		form.DueDate = due
	}
	if flags.Changed("user") {
		raw, _ := flags.GetString("user")
		if id, err := a.resolveUser(raw); err == nil {
			form.AssignedUser = id
		} else {
			// Left for form validation to report against the field.
			form.AssignedUser = raw
		}
	}
	if flags.Changed("priority") {
		raw, _ := flags.GetString("priority")
		p, err := utils.ValidatePriority(raw)
		if err != nil {
			return err
		}
		form.Priority = p
	}
	if flags.Changed("tag") {
		tags, _ := flags.GetStringSlice("tag")
		form.Tags = utils.SplitTags(tags)
	}
	return nil
}

// submit saves the form and reports the outcome. A save whose list reload
// failed still succeeds with a warning.
func (a *app) submit(cmd *cobra.Command, stdout io.Writer, cfg *Config, form tasks.Form, action, verb string) error {
	saved, err := a.ctrl.Submit(a.ctx, form)
	if err != nil && saved == nil {
		return err
	}

	warning := ""
	if err != nil {
		warning = err.Error()
		utils.Warnf("%s", warning)
	}
	if saved == nil {
		saved = &backend.Task{ID: form.ID, Title: form.Title}
	}

	if a.json {
		return writeJSON(stdout, actionResponse{Action: action, Task: saved, Warning: warning, Result: ResultActionCompleted})
	}
	if warning != "" {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Warning:", warning)
	}
	_, _ = fmt.Fprintf(stdout, "%s task: %s (%s)\n", verb, saved.Title, saved.ID)
	if cfg.NoPrompt {
		_, _ = fmt.Fprintln(stdout, ResultActionCompleted)
	}
	return nil
}

func newTasksAddCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Create a task",
		Long: "Create a task. Without a title argument the fields are prompted for one by one.\n" +
			"Title, description, due date and assigned user are required.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openLoggedIn(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			var form tasks.Form
			if len(args) == 0 {
				adder := &prompt.InteractiveAdder{
					Users:    a.cache.UsersList(),
					Reader:   stdinOf(cfg),
					Writer:   stdout,
					NoPrompt: cfg.NoPrompt,
				}
				f, err := adder.Run()
				if err != nil {
					if errors.Is(err, prompt.ErrNoPromptMode) {
						return utils.WrapWithSuggestion(
							errors.New(tasks.MsgTitleRequired),
							"Pass the title as an argument: taskdesk tasks add \"Buy milk\" -d ... --due ... -u ...")
					}
					return err
				}
				form = *f
			} else {
				form = tasks.NewForm()
				form.Title = args[0]
			}

			if err := a.applyFormFlags(cmd, &form); err != nil {
				return err
			}
			return a.submit(cmd, stdout, cfg, form, "create", "Created")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addFormFlags(cmd)
	return cmd
}

func newTasksEditCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Update a task",
		Long:  "Update a task. Only the given flags change; every other field keeps its current value.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openLoggedIn(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			t, err := a.selectTask(args, "Select a task to edit:", stdout, cfg)
			if err != nil {
				return err
			}
			form, err := a.ctrl.EditSeed(t.ID)
			if err != nil {
				return err
			}
			if err := a.applyFormFlags(cmd, &form); err != nil {
				return err
			}
			return a.submit(cmd, stdout, cfg, form, "update", "Updated")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().String("title", "", "New title")
	addFormFlags(cmd)
	return cmd
}

func newTasksToggleCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle [id]",
		Short: "Mark a task done, or back to incomplete",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openLoggedIn(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			t, err := a.selectTask(args, "Select a task to toggle:", stdout, cfg)
			if err != nil {
				return err
			}
			updated, err := a.ctrl.ToggleStatus(a.ctx, t)
			if err != nil {
				return err
			}

			if a.json {
				return writeJSON(stdout, actionResponse{Action: "toggle", Task: &updated, Result: ResultActionCompleted})
			}
			_, _ = fmt.Fprintf(stdout, "Marked %s: %s\n", updated.Status, updated.Title)
			if cfg.NoPrompt {
				_, _ = fmt.Fprintln(stdout, ResultActionCompleted)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func newTasksDeleteCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a task",
		Long:  "Delete a task. Asks for confirmation when an id is given unless --no-prompt is set.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openLoggedIn(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			t, err := a.selectTask(args, "Select a task to delete:", stdout, cfg)
			if err != nil {
				return err
			}

			// Picking from the list already confirms the choice.
			if len(args) > 0 && !cfg.NoPrompt {
				reader := bufio.NewReader(stdinOf(cfg))
				if !utils.PromptYesNo(fmt.Sprintf("Delete %q?", t.Title), reader, stdout) {
					_, _ = fmt.Fprintln(stdout, "Cancelled")
					return nil
				}
			}

			if err := a.ctrl.Delete(a.ctx, t.ID); err != nil {
				return err
			}

			if a.json {
				return writeJSON(stdout, actionResponse{Action: "delete", Task: &t, Result: ResultActionCompleted})
			}
			_, _ = fmt.Fprintf(stdout, "Deleted task: %s\n", t.Title)
			if cfg.NoPrompt {
				_, _ = fmt.Fprintln(stdout, ResultActionCompleted)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}
