// Package tui provides a terminal user interface for task management.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskdesk/backend"
	"taskdesk/internal/session"
	"taskdesk/internal/tasks"
	"taskdesk/internal/utils"
	"taskdesk/internal/views"
)

// Screen identifies what the TUI is showing.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenList
	ScreenForm
	ScreenConfirmDelete
	ScreenHelp
)

// Options wires the TUI to the session and the task API.
type Options struct {
	Context        context.Context
	Session        *session.Store
	API            backend.TaskAPI
	Controller     *tasks.Controller
	PageSize       int
	SearchDebounce time.Duration
}

// Model represents the TUI state
type Model struct {
	ctx      context.Context
	session  *session.Store
	api      backend.TaskAPI
	ctrl     *tasks.Controller
	pageSize int
	debounce time.Duration

	screen     Screen
	helpReturn Screen
	loading    bool
	err        string

	// Login
	username   textinput.Model
	password   textinput.Model
	loginFocus int

	// Task list
	state     views.FilterState
	page      views.Page
	cursor    int
	search    textinput.Model
	searching bool
	searchSeq int

	form          formModel
	pendingDelete *backend.Task

	pager   paginator.Model
	spinner spinner.Model
	help    help.Model
	keys    keyMap

	width  int
	height int
	styles styles
}

// Message types
type loginMsg struct {
	err error
}

type refreshedMsg struct {
	err error
}

type toggledMsg struct {
	err error
}

type deletedMsg struct {
	err error
}

type submittedMsg struct {
	saved *backend.Task
	err   error
}

type searchTickMsg struct {
	seq int
}

// New creates a new TUI model
func New(opts Options) *Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = views.DefaultPageSize
	}
	debounce := opts.SearchDebounce
	if debounce <= 0 {
		debounce = views.SearchDebounce
	}

	username := newInput("admin", 64)
	password := newInput("password", 64)
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	search := newInput("Search tasks...", 128)
	search.Prompt = "Search: "

	pager := paginator.New()
	pager.Type = paginator.Arabic
	pager.ArabicFormat = "%d of %d"

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		ctx:      ctx,
		session:  opts.Session,
		api:      opts.API,
		ctrl:     opts.Controller,
		pageSize: pageSize,
		debounce: debounce,
		username: username,
		password: password,
		state:    views.NewState(pageSize),
		search:   search,
		pager:    pager,
		spinner:  sp,
		help:     help.New(),
		keys:     defaultKeys(),
		styles:   defaultStyles(),
	}
}

// Init initializes the TUI
func (m *Model) Init() tea.Cmd {
	if m.session.IsAuthenticated() {
		m.screen = ScreenList
		return m.startLoading(m.refreshCmd())
	}
	m.screen = ScreenLogin
	return m.focusLogin(0)
}

// Screen returns the active screen.
func (m *Model) Screen() Screen {
	return m.screen
}

// State returns the list filter state.
func (m *Model) State() views.FilterState {
	return m.state
}

// Loading reports whether a remote call is outstanding.
func (m *Model) Loading() bool {
	return m.loading
}

// Err returns the inline error line, if any.
func (m *Model) Err() string {
	return m.err
}

// FieldError returns the form error for a field.
func (m *Model) FieldError(field string) string {
	return m.form.errs.Field(field)
}

func (m *Model) startLoading(cmd tea.Cmd) tea.Cmd {
	m.loading = true
	m.err = ""
	return tea.Batch(m.spinner.Tick, cmd)
}

func (m *Model) refreshCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return refreshedMsg{err: ctrl.Refresh(ctx)}
	}
}

// errorText returns the one-line form of err for inline display.
func errorText(err error) string {
	var ews *utils.ErrorWithSuggestion
	if errors.As(err, &ews) {
		return ews.Err.Error()
	}
	return err.Error()
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loginMsg:
		m.loading = false
		var callErr *session.AuthCallError
		if msg.err != nil && !errors.As(msg.err, &callErr) {
			m.err = errorText(msg.err)
			m.password.SetValue("")
			return m, m.focusLogin(1)
		}
		m.password.SetValue("")
		m.screen = ScreenList
		cmd := m.startLoading(m.refreshCmd())
		if callErr != nil {
			m.err = errorText(callErr)
		}
		return m, cmd

	case refreshedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = errorText(msg.err)
		}
		m.derive()
		return m, nil

	case toggledMsg:
		m.loading = false
		if msg.err != nil {
			m.err = errorText(msg.err)
		}
		m.derive()
		return m, nil

	case deletedMsg:
		m.loading = false
		m.pendingDelete = nil
		if msg.err != nil {
			m.err = errorText(msg.err)
		}
		m.derive()
		return m, nil

	case submittedMsg:
		m.loading = false
		return m, m.handleSubmitted(msg)

	case searchTickMsg:
		if msg.seq != m.searchSeq || m.screen != ScreenList {
			return m, nil
		}
		m.applySearch()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.screen {
		case ScreenLogin:
			return m, m.handleLoginKey(msg)
		case ScreenForm:
			return m, m.handleFormKey(msg)
		case ScreenConfirmDelete:
			return m, m.handleConfirmDeleteKey(msg)
		case ScreenHelp:
			m.screen = m.helpReturn
			return m, nil
		}
		return m, m.handleListKey(msg)
	}

	return m, nil
}

// =============================================================================
// Login
// =============================================================================

func (m *Model) focusLogin(field int) tea.Cmd {
	m.loginFocus = field
	if field == 0 {
		m.password.Blur()
		return m.username.Focus()
	}
	m.username.Blur()
	return m.password.Focus()
}

func (m *Model) handleLoginKey(msg tea.KeyMsg) tea.Cmd {
	if m.loading {
		return nil
	}

	switch msg.Type {
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		return m.focusLogin(1 - m.loginFocus)
	case tea.KeyEnter:
		if m.loginFocus == 0 {
			return m.focusLogin(1)
		}
		return m.submitLogin()
	}

	var cmd tea.Cmd
	if m.loginFocus == 0 {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return cmd
}

func (m *Model) submitLogin() tea.Cmd {
	username, password := m.username.Value(), m.password.Value()
	if username == "" || password == "" {
		m.err = "Username and password are required"
		return nil
	}

	store, api, ctx := m.session, m.api, m.ctx
	return m.startLoading(func() tea.Msg {
		return loginMsg{err: store.Authenticate(ctx, api, username, password)}
	})
}

// =============================================================================
// Task list
// =============================================================================

// derive recomputes the visible page from the cache and clamps the cursor.
func (m *Model) derive() {
	m.page = views.Derive(m.ctrl.Cache().Tasks(), m.state)
	if m.page.TotalPages > 0 && m.state.CurrentPage > m.page.TotalPages {
		m.state = m.state.WithPage(m.page.TotalPages)
		m.page = views.Derive(m.ctrl.Cache().Tasks(), m.state)
	}

	if m.cursor >= len(m.page.Tasks) {
		m.cursor = len(m.page.Tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}

	m.pager.PerPage = m.state.PageSize
	m.pager.SetTotalPages(max(m.page.TotalMatches, 1))
	m.pager.Page = m.state.CurrentPage - 1
}

func (m *Model) setState(s views.FilterState) {
	m.state = s
	m.cursor = 0
	m.derive()
}

func (m *Model) selected() (backend.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.page.Tasks) {
		return backend.Task{}, false
	}
	return m.page.Tasks[m.cursor], true
}

func (m *Model) applySearch() {
	if m.search.Value() != m.state.SearchQuery {
		m.setState(m.state.WithSearch(m.search.Value()))
	}
}

// leaveList drops any pending search emission.
func (m *Model) leaveList(next Screen) {
	m.searchSeq++
	m.searching = false
	m.search.Blur()
	m.search.SetValue(m.state.SearchQuery)
	m.screen = next
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		return nil
	case tea.KeyEnter:
		m.searchSeq++
		m.searching = false
		m.search.Blur()
		m.applySearch()
		return nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return cmd
	}

	m.searchSeq++
	seq := m.searchSeq
	tick := tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return searchTickMsg{seq: seq}
	})
	return tea.Batch(cmd, tick)
}

func (m *Model) handleListKey(msg tea.KeyMsg) tea.Cmd {
	if m.searching {
		return m.handleSearchKey(msg)
	}
	if key.Matches(msg, m.keys.Quit) {
		return tea.Quit
	}
	if m.loading {
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.helpReturn = ScreenList
		m.leaveList(ScreenHelp)

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.page.Tasks)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.PrevPage):
		if m.state.CurrentPage > 1 {
			m.setState(m.state.WithPage(m.state.CurrentPage - 1))
		}

	case key.Matches(msg, m.keys.NextPage):
		if m.state.CurrentPage < m.page.TotalPages {
			m.setState(m.state.WithPage(m.state.CurrentPage + 1))
		}

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		return m.search.Focus()

	case key.Matches(msg, m.keys.Status):
		m.setState(m.state.WithStatus(views.NextStatus(m.state.StatusFilter)))

	case key.Matches(msg, m.keys.User):
		m.setState(m.state.WithUser(views.NextUser(m.state.UserFilter, m.ctrl.Cache().UsersList())))

	case key.Matches(msg, m.keys.Sort):
		m.setState(m.state.WithSort(views.NextSort(m.state.SortOption)))

	case key.Matches(msg, m.keys.Clear):
		m.searchSeq++
		m.search.SetValue("")
		m.setState(views.NewState(m.pageSize))

	case key.Matches(msg, m.keys.Refresh):
		return m.startLoading(m.refreshCmd())

	case key.Matches(msg, m.keys.Toggle):
		task, ok := m.selected()
		if !ok {
			return nil
		}
		ctrl, ctx := m.ctrl, m.ctx
		return m.startLoading(func() tea.Msg {
			_, err := ctrl.ToggleStatus(ctx, task)
			return toggledMsg{err: err}
		})

	case key.Matches(msg, m.keys.Add):
		m.err = ""
		m.form = newFormModel(tasks.NewForm(), m.ctrl.Cache().UsersList())
		m.leaveList(ScreenForm)
		return textinput.Blink

	case key.Matches(msg, m.keys.Edit):
		task, ok := m.selected()
		if !ok {
			return nil
		}
		seed, err := m.ctrl.EditSeed(task.ID)
		if err != nil {
			m.err = errorText(err)
			return nil
		}
		m.err = ""
		m.form = newFormModel(seed, m.ctrl.Cache().UsersList())
		m.leaveList(ScreenForm)
		return textinput.Blink

	case key.Matches(msg, m.keys.Delete):
		task, ok := m.selected()
		if !ok {
			return nil
		}
		m.pendingDelete = &task
		m.leaveList(ScreenConfirmDelete)

	case key.Matches(msg, m.keys.Logout):
		if err := m.session.Logout(); err != nil {
			m.err = errorText(err)
			return nil
		}
		m.leaveList(ScreenLogin)
		m.err = ""
		m.ctrl.Cache().Replace(nil)
		m.state = views.NewState(m.pageSize)
		m.username.SetValue("")
		m.password.SetValue("")
		return m.focusLogin(0)
	}
	return nil
}

// =============================================================================
// Delete confirmation
// =============================================================================

func (m *Model) handleConfirmDeleteKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		task := m.pendingDelete
		m.screen = ScreenList
		if task == nil {
			return nil
		}
		ctrl, ctx := m.ctrl, m.ctx
		return m.startLoading(func() tea.Msg {
			return deletedMsg{err: ctrl.Delete(ctx, task.ID)}
		})
	case "n", "N", "esc", "q":
		m.pendingDelete = nil
		m.screen = ScreenList
	}
	return nil
}

// =============================================================================
// Form
// =============================================================================

func (m *Model) handleFormKey(msg tea.KeyMsg) tea.Cmd {
	if m.loading {
		return nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		m.err = ""
		m.screen = ScreenList
		m.derive()
		return nil
	case tea.KeyTab, tea.KeyDown:
		return m.form.setFocus(m.form.focus + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m.form.setFocus(m.form.focus - 1)
	case tea.KeyLeft:
		if m.form.input(m.form.focus) == nil {
			m.form.cycle(-1)
			return nil
		}
	case tea.KeyRight:
		if m.form.input(m.form.focus) == nil {
			m.form.cycle(1)
			return nil
		}
	case tea.KeyCtrlS:
		return m.submitForm()
	case tea.KeyEnter:
		if m.form.focus == fieldCount-1 {
			return m.submitForm()
		}
		return m.form.setFocus(m.form.focus + 1)
	}
	return m.form.update(msg)
}

func (m *Model) submitForm() tea.Cmd {
	form := m.form.value()
	if errs := form.Validate(m.form.users); errs != nil {
		m.form.errs = errs
		m.err = ""
		return nil
	}
	m.form.errs = nil

	ctrl, ctx := m.ctrl, m.ctx
	return m.startLoading(func() tea.Msg {
		saved, err := ctrl.Submit(ctx, form)
		return submittedMsg{saved: saved, err: err}
	})
}

func (m *Model) handleSubmitted(msg submittedMsg) tea.Cmd {
	var verr utils.ValidationErrors
	switch {
	case errors.As(msg.err, &verr):
		m.form.errs = verr
		return nil
	case msg.err != nil && msg.saved == nil:
		m.err = errorText(msg.err)
		return nil
	}

	m.screen = ScreenList
	if msg.err != nil {
		m.err = errorText(msg.err)
	}
	m.derive()
	return nil
}

// Run starts the TUI on the terminal. Logging is redirected to a file while
// the screen is in use.
func Run(opts Options) error {
	logFile, err := utils.RedirectToFile(utils.DefaultLogFilePath())
	if err != nil {
		utils.Debugf("tui: log redirect failed: %v", err)
	}
	defer logFile.Close()

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
