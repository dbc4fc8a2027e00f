// internal/tui/browser.go
// Package tui provides the interactive terminal browser for upcoming assignments.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/canvasmcp/internal/canvas"
	"github.com/mwiater/canvasmcp/internal/util"
)

// Fetcher loads the assignments the browser shows.
type Fetcher func(ctx context.Context) (canvas.UpcomingAssignments, error)

// viewState represents the current screen of the browser.
type viewState int

const (
	// viewLoading shows a spinner while assignments are fetched.
	viewLoading viewState = iota
	// viewList shows the assignment list.
	viewList
	// viewDetail shows the selected assignment.
	viewDetail
)

// model is the Bubble Tea model for the assignment browser.
type model struct {
	ctx         context.Context
	fetch       Fetcher
	now         func() time.Time
	daysAhead   int
	state       viewState
	err         error
	list        list.Model
	spinner     spinner.Model
	diagnostics []canvas.Diagnostic
	selected    canvas.Assignment
	width       int
	height      int
	startedAt   time.Time
}

// item is one assignment row in the list.
type item struct {
	assignment canvas.Assignment
	now        time.Time
}

// Title returns the assignment name.
func (i item) Title() string { return i.assignment.Name }

// Description returns the course and relative due time.
func (i item) Description() string {
	return fmt.Sprintf("%s · %s", courseLabel(i.assignment), dueLabel(i.assignment.DueAt, i.now))
}

// FilterValue matches on assignment and course names.
func (i item) FilterValue() string {
	return i.assignment.Name + " " + i.assignment.CourseName
}

// assignmentsMsg carries a completed fetch.
type assignmentsMsg struct{ result canvas.UpcomingAssignments }

// assignmentsErr is sent when the fetch fails.
type assignmentsErr struct{ error }

func initialModel(ctx context.Context, fetch Fetcher, daysAhead int, now func() time.Time) *model {
	if now == nil {
		now = time.Now
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = fmt.Sprintf("Due in the next %d days", daysAhead)

	return &model{
		ctx:       ctx,
		fetch:     fetch,
		now:       now,
		daysAhead: daysAhead,
		state:     viewLoading,
		list:      l,
		spinner:   s,
		startedAt: now(),
	}
}

func (m *model) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		result, err := m.fetch(m.ctx)
		if err != nil {
			return assignmentsErr{error: err}
		}
		return assignmentsMsg{result: result}
	}
}

// Init starts the spinner and the first fetch.
func (m *model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchCmd())
}

// Update is the central update function for the Bubble Tea model.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			if m.state == viewDetail {
				m.state = viewList
				return m, nil
			}
		case "r":
			if m.state != viewLoading {
				m.state = viewLoading
				m.err = nil
				m.startedAt = m.now()
				return m, tea.Batch(m.spinner.Tick, m.fetchCmd())
			}
		case "enter":
			if m.state == viewList {
				if it, ok := m.list.SelectedItem().(item); ok {
					m.selected = it.assignment
					m.state = viewDetail
				}
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-4)
		return m, nil

	case assignmentsMsg:
		now := m.now()
		items := make([]list.Item, 0, len(msg.result.Assignments))
		for _, a := range msg.result.Assignments {
			items = append(items, item{assignment: a, now: now})
		}
		m.diagnostics = msg.result.Diagnostics
		m.state = viewList
		return m, m.list.SetItems(items)

	case assignmentsErr:
		m.err = msg.error
		m.state = viewList
		return m, nil

	case spinner.TickMsg:
		if m.state == viewLoading {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.state == viewList {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

// View renders the browser based on its current state.
func (m *model) View() string {
	if m.err != nil {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(1)
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress r to retry or q to quit.", m.err))
	}

	switch m.state {
	case viewLoading:
		timer := fmt.Sprintf("%.1f", m.now().Sub(m.startedAt).Seconds())
		return fmt.Sprintf("\n  %s Fetching assignments... %ss\n", m.spinner.View(), timer)

	case viewDetail:
		return lipgloss.NewStyle().Margin(1, 2).Render(renderDetail(m.selected, m.now(), m.width-4))

	default:
		header := lipgloss.JoinHorizontal(lipgloss.Top, renderWindowBadge(m.daysAhead), renderDiagnosticsBadge(len(m.diagnostics)))
		if len(m.list.Items()) == 0 {
			return lipgloss.NewStyle().Margin(1, 2).Render(header + "\n\nNothing due. Press r to refresh or q to quit.")
		}
		return lipgloss.NewStyle().Margin(1, 2).Render(header + "\n" + m.list.View())
	}
}

// renderDetail lays out one assignment; values are cut to fit width when it is known.
func renderDetail(a canvas.Assignment, now time.Time, width int) string {
	const labelWidth = 12
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(labelWidth)

	rows := []string{titleStyle.Render(a.Name), ""}
	add := func(label, value string) {
		if width > labelWidth {
			value = util.TruncateToWidth(value, width-labelWidth)
		}
		rows = append(rows, labelStyle.Render(label)+value)
	}
	add("Course", courseLabel(a))
	add("Due", dueLabel(a.DueAt, now))
	if a.PointsPossible != nil {
		add("Points", fmt.Sprintf("%g", *a.PointsPossible))
	}
	if a.SubmissionStatus != nil {
		add("Submission", *a.SubmissionStatus)
	}
	if a.HTMLURL != "" {
		add("Link", a.HTMLURL)
	}
	rows = append(rows, "", "esc: back  q: quit")
	return strings.Join(rows, "\n")
}

func courseLabel(a canvas.Assignment) string {
	return util.FirstNonEmpty(a.CourseName, fmt.Sprintf("course %d", a.CourseID))
}

// dueLabel renders a due date relative to now, e.g. "due in 2d 3h (Wed Mar 12 15:00 UTC)".
func dueLabel(due *time.Time, now time.Time) string {
	if due == nil {
		return "no due date"
	}
	d := due.Sub(now)
	when := due.UTC().Format("Mon Jan 2 15:04 MST")
	if d < 0 {
		return fmt.Sprintf("overdue (%s)", when)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	if days == 0 {
		return fmt.Sprintf("due in %dh (%s)", hours, when)
	}
	return fmt.Sprintf("due in %dd %dh (%s)", days, hours, when)
}

// StartBrowser runs the browser until the user quits.
func StartBrowser(ctx context.Context, fetch Fetcher, daysAhead int) error {
	m := initialModel(ctx, fetch, daysAhead, time.Now)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run browser: %w", err)
	}
	return nil
}
