package views

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/fatih/color"

	"taskdesk/backend"
)

// Badge labels shown on each task card.
const (
	LabelCompleted  = "Task Completed"
	LabelIncomplete = "Incomplete Task"
	EmptyMessage    = "No tasks found."
)

// UserNamer resolves an assignee id to a display name.
type UserNamer func(id string) string

// Renderer writes task cards as plain or colored text.
type Renderer struct {
	writer io.Writer
	names  UserNamer
	// Markdown selects glamour rendering for task details ("" disables it).
	Markdown string
}

// NewRenderer creates a renderer. A nil namer prints raw user ids.
func NewRenderer(w io.Writer, names UserNamer) *Renderer {
	if names == nil {
		names = func(id string) string { return id }
	}
	return &Renderer{writer: w, names: names}
}

// RenderPage prints the cards of a page followed by the pagination footer.
func (r *Renderer) RenderPage(p Page) {
	if len(p.Tasks) == 0 {
		_, _ = fmt.Fprintln(r.writer, EmptyMessage)
		if p.TotalMatches > 0 {
			r.footer(p)
		}
		return
	}

	for i := range p.Tasks {
		r.renderCard(&p.Tasks[i])
	}
	r.footer(p)
}

func (r *Renderer) footer(p Page) {
	total := p.TotalPages
	if total < 1 {
		total = 1
	}
	_, _ = fmt.Fprintf(r.writer, "Page %d of %d (%d %s)\n", p.CurrentPage, total, p.TotalMatches, plural(p.TotalMatches, "task", "tasks"))
}

func (r *Renderer) renderCard(t *backend.Task) {
	_, _ = fmt.Fprintf(r.writer, "%s %s  %s  %s  %s\n",
		Checkbox(t.Status), t.Title, PriorityBadge(t.Priority), StatusBadge(t.Status), t.DueDate)
	if t.Description != "" {
		_, _ = fmt.Fprintf(r.writer, "    %s\n", firstLine(t.Description))
	}

	meta := "    Assigned to: " + r.names(t.AssignedUser)
	if len(t.Tags) > 0 {
		meta += "  #" + strings.Join(t.Tags, " #")
	}
	_, _ = fmt.Fprintln(r.writer, meta)
	_, _ = fmt.Fprintf(r.writer, "    %s\n\n", color.New(color.Faint).Sprint("id: "+t.ID))
}

// RenderDetail prints every field of a task. The description is rendered as
// markdown when r.Markdown names a glamour style.
func (r *Renderer) RenderDetail(t *backend.Task) {
	_, _ = fmt.Fprintf(r.writer, "%s %s\n", Checkbox(t.Status), color.New(color.Bold).Sprint(t.Title))
	_, _ = fmt.Fprintf(r.writer, "ID:          %s\n", t.ID)
	_, _ = fmt.Fprintf(r.writer, "Status:      %s (%s)\n", StatusBadge(t.Status), t.Status)
	_, _ = fmt.Fprintf(r.writer, "Priority:    %s\n", PriorityBadge(t.Priority))
	_, _ = fmt.Fprintf(r.writer, "Due:         %s\n", t.DueDate)
	_, _ = fmt.Fprintf(r.writer, "Assigned to: %s\n", r.names(t.AssignedUser))
	if len(t.Tags) > 0 {
		_, _ = fmt.Fprintf(r.writer, "Tags:        %s\n", strings.Join(t.Tags, ", "))
	}
	_, _ = fmt.Fprintln(r.writer)
	_, _ = fmt.Fprintln(r.writer, RenderMarkdown(t.Description, r.Markdown, 80))
}

// Checkbox mirrors the completion checkbox on a card.
func Checkbox(s backend.Status) string {
	if s.Done() {
		return "[x]"
	}
	return "[ ]"
}

// StatusBadge returns the completion label, colored when color is enabled.
func StatusBadge(s backend.Status) string {
	if s.Done() {
		return color.New(color.FgGreen).Sprint(LabelCompleted)
	}
	return color.New(color.FgHiBlack).Sprint(LabelIncomplete)
}

// PriorityBadge returns the priority label, colored by urgency.
func PriorityBadge(p backend.Priority) string {
	switch p {
	case backend.PriorityHigh:
		return color.New(color.FgRed).Sprint(p)
	case backend.PriorityMedium:
		return color.New(color.FgYellow).Sprint(p)
	}
	return color.New(color.FgBlue).Sprint(backend.PriorityLow)
}

var (
	mdRendererMu sync.Mutex
	mdRenderers  = map[string]*glamour.TermRenderer{}
)

// MarkdownStyle picks a glamour style for the output: dark for terminals,
// notty otherwise.
func MarkdownStyle(tty bool) string {
	if tty {
		return styles.DarkStyle
	}
	return styles.NoTTYStyle
}

// RenderMarkdown renders md with the given glamour style. Empty style or any
// renderer error returns the trimmed source.
func RenderMarkdown(md, style string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" || style == "" {
		return md
	}
	if width < 10 {
		width = 10
	}

	key := fmt.Sprintf("%s:%d", style, width)
	mdRendererMu.Lock()
	defer mdRendererMu.Unlock()

	r := mdRenderers[key]
	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		mdRenderers[key] = rr
		r = rr
	}

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i]) + " ..."
	}
	return s
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
