package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"taskdesk/backend"
	"taskdesk/internal/tasks"
	"taskdesk/internal/views"
)

// HeaderTitle is shown at the top of the task list.
const HeaderTitle = "Task Management"

type styles struct {
	header    lipgloss.Style
	avatar    lipgloss.Style
	label     lipgloss.Style
	selected  lipgloss.Style
	completed lipgloss.Style
	muted     lipgloss.Style
	errText   lipgloss.Style
	help      lipgloss.Style
	dialog    lipgloss.Style
	done      lipgloss.Style
	open      lipgloss.Style
	priority  map[backend.Priority]lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
		avatar: lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230")).
			Padding(0, 1),
		label: lipgloss.NewStyle().
			Bold(true),
		selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
		completed: lipgloss.NewStyle().
			Strikethrough(true).
			Foreground(lipgloss.Color("240")),
		muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
		errText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
		help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
		done: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		open: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		priority: map[backend.Priority]lipgloss.Style{
			backend.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
			backend.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
			backend.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		},
	}
}

// View renders the TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		m.width = 80
		m.height = 24
	}

	switch m.screen {
	case ScreenLogin:
		return m.viewLogin()
	case ScreenForm:
		return m.viewForm()
	case ScreenConfirmDelete:
		return m.viewConfirmDelete()
	case ScreenHelp:
		return m.viewHelp()
	}
	return m.viewList()
}

func (m *Model) errorLine() string {
	if m.err == "" {
		return ""
	}
	return m.styles.errText.Render("Error: "+m.err) + "\n"
}

func (m *Model) viewLogin() string {
	var b strings.Builder
	b.WriteString(m.styles.header.Render(HeaderTitle) + "\n")
	b.WriteString("Sign in\n\n")
	b.WriteString(m.styles.label.Render("Username") + "\n")
	b.WriteString(m.username.View() + "\n")
	b.WriteString(m.styles.label.Render("Password") + "\n")
	b.WriteString(m.password.View() + "\n\n")

	if m.loading {
		b.WriteString(m.spinner.View() + " Logging in...\n")
	}
	b.WriteString(m.errorLine())
	b.WriteString(m.styles.help.Render("enter: submit • tab: next field • ctrl+c: quit"))
	return b.String()
}

func (m *Model) viewHeader() string {
	name := m.session.DisplayName()
	left := m.styles.header.Render(HeaderTitle)
	right := m.styles.avatar.Render(m.session.Initials()) + " " + name + "  " + m.styles.muted.Render("L: Logout")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m *Model) filterLine() string {
	status := "all"
	if m.state.StatusFilter != "" {
		status = string(m.state.StatusFilter)
	}
	user := "all"
	if m.state.UserFilter != "" {
		user = m.ctrl.Cache().UserName(m.state.UserFilter)
	}
	sort := "none"
	if m.state.SortOption != views.SortNone {
		sort = string(m.state.SortOption)
	}
	return m.styles.muted.Render(fmt.Sprintf("Status: %s | User: %s | Sort: %s", status, user, sort))
}

func (m *Model) viewList() string {
	var b strings.Builder
	b.WriteString(m.viewHeader() + "\n\n")
	b.WriteString(m.search.View() + "\n")
	b.WriteString(m.filterLine() + "\n\n")

	switch {
	case m.loading && len(m.page.Tasks) == 0:
		b.WriteString(m.spinner.View() + " Loading tasks...\n")
	case len(m.page.Tasks) == 0:
		b.WriteString(views.EmptyMessage + "\n")
	default:
		for i := range m.page.Tasks {
			b.WriteString(m.renderCard(&m.page.Tasks[i], i == m.cursor))
		}
		if m.loading {
			b.WriteString(m.spinner.View() + " Loading tasks...\n")
		}
	}

	if m.page.TotalMatches > 0 {
		b.WriteString(fmt.Sprintf("\nPage %s (%d tasks)\n", m.pager.View(), m.page.TotalMatches))
	}
	b.WriteString(m.errorLine())
	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderCard(t *backend.Task, selected bool) string {
	cursor := " "
	title := t.Title
	switch {
	case selected:
		cursor = ">"
		title = m.styles.selected.Render(title)
	case t.Status.Done():
		title = m.styles.completed.Render(title)
	}

	badge := m.styles.open.Render(views.LabelIncomplete)
	if t.Status.Done() {
		badge = m.styles.done.Render(views.LabelCompleted)
	}
	priority := m.styles.priority[t.Priority].Render("[" + string(t.Priority) + "]")

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s %s  %s\n", cursor, views.Checkbox(t.Status), title, priority, badge)
	fmt.Fprintf(&b, "    Due: %s  Assigned to: %s\n", t.DueDate, m.ctrl.Cache().UserName(t.AssignedUser))
	if desc := firstLine(t.Description); desc != "" {
		b.WriteString("    " + m.styles.muted.Render(desc) + "\n")
	}
	return b.String()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func (m *Model) fieldError(field string) string {
	if msg := m.form.errs.Field(field); msg != "" {
		return m.styles.errText.Render("  "+msg) + "\n"
	}
	return ""
}

func (m *Model) pickerLine(focused bool, value string) string {
	if focused {
		return "> ◀ " + m.styles.selected.Render(value) + " ▶\n"
	}
	return "  " + value + "\n"
}

func (m *Model) viewForm() string {
	f := &m.form
	title := "New Task"
	if f.isEdit() {
		title = "Edit Task"
	}

	var b strings.Builder
	b.WriteString(m.styles.header.Render(title) + "\n\n")

	b.WriteString(m.styles.label.Render("Title") + "\n" + f.title.View() + "\n")
	b.WriteString(m.fieldError(tasks.FieldTitle))
	b.WriteString(m.styles.label.Render("Description") + "\n" + f.description.View() + "\n")
	b.WriteString(m.fieldError(tasks.FieldDescription))
	b.WriteString(m.styles.label.Render("Due date") + "\n" + f.dueDate.View() + "\n")
	b.WriteString(m.fieldError(tasks.FieldDueDate))

	b.WriteString(m.styles.label.Render("Assigned user") + "\n")
	if len(f.users) == 0 {
		b.WriteString("  " + m.styles.muted.Render(NoUsersMessage) + "\n")
	} else {
		b.WriteString(m.pickerLine(f.focus == fieldUser, f.users[f.userIdx].Name))
	}
	b.WriteString(m.fieldError(tasks.FieldAssignedUser))

	b.WriteString(m.styles.label.Render("Priority") + "\n")
	b.WriteString(m.pickerLine(f.focus == fieldPriority, string(backend.Priorities[f.priorityIdx])))
	b.WriteString(m.fieldError(tasks.FieldPriority))

	b.WriteString(m.styles.label.Render("Tags") + "\n" + f.tags.View() + "\n\n")

	if m.loading {
		b.WriteString(m.spinner.View() + " Saving...\n")
	}
	b.WriteString(m.errorLine())
	b.WriteString(m.styles.help.Render("tab: next • ←/→: change • ctrl+s: save • esc: cancel"))
	return b.String()
}

func (m *Model) viewConfirmDelete() string {
	name := ""
	if m.pendingDelete != nil {
		name = m.pendingDelete.Title
	}
	dialog := m.styles.dialog.Render(
		fmt.Sprintf("Delete %q?\n\n", name) +
			m.styles.help.Render("y: yes  n: no"),
	)
	return m.centerDialog(dialog)
}

func (m *Model) viewHelp() string {
	dialog := m.styles.dialog.Render(
		"Help - Key Bindings\n\n" +
			m.help.FullHelpView(m.keys.FullHelp()) + "\n\n" +
			m.styles.help.Render("Press any key to close"),
	)
	return m.centerDialog(dialog)
}

func (m *Model) centerDialog(dialog string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, dialog)
}
