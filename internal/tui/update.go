package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/timegrid/internal/api"
	"github.com/existflow/timegrid/internal/logger"
	"github.com/existflow/timegrid/internal/model"
	"github.com/existflow/timegrid/internal/timesheet"
)

// projectsMsg carries the project list fetched at startup.
type projectsMsg struct {
	projects []model.Project
	err      error
}

// weekLoadedMsg carries a week's entries. gen is the cache generation
// captured when the fetch started; a mismatch means the user has moved on
// and the result is discarded.
type weekLoadedMsg struct {
	gen     uint64
	entries []model.TimeEntry
	err     error
}

// writeDoneMsg carries a completed cell write back to the update loop.
type writeDoneMsg struct {
	op  timesheet.WriteOp
	res timesheet.WriteResult
}

// Init fetches projects and the current week.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchProjects(), m.fetchWeek())
}

func (m Model) fetchProjects() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		projects, err := client.Projects(ctx)
		return projectsMsg{projects: projects, err: err}
	}
}

func (m Model) fetchWeek() tea.Cmd {
	client := m.client
	userID := m.cache.UserID
	week := m.cache.Week
	gen := m.cache.Generation
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		entries, err := timesheet.FetchWeek(ctx, client, userID, week)
		return weekLoadedMsg{gen: gen, entries: entries, err: err}
	}
}

func (m Model) executeWrite(op timesheet.WriteOp) tea.Cmd {
	coord := m.coord
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return writeDoneMsg{op: op, res: coord.Execute(ctx, op)}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case projectsMsg:
		if msg.err != nil {
			return m.failRequest(msg.err)
		}
		m.projects = msg.projects
		if m.row >= len(m.projects) {
			m.row = 0
		}
		return m, nil

	case weekLoadedMsg:
		if msg.gen != m.cache.Generation {
			logger.Debug("discarding stale week load")
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			return m.failRequest(msg.err)
		}
		m.cache.Absorb(msg.entries)
		m.cells = make(map[string]*timesheet.CellState)
		return m, nil

	case writeDoneMsg:
		m.coord.Finish(msg.op, msg.res)
		cell := m.cell(msg.op.ProjectID, msg.op.Date)
		if msg.res.Err != nil {
			if errors.Is(msg.res.Err, api.ErrNotLoggedIn) {
				return m.failRequest(msg.res.Err)
			}
			cell.WriteFailed(timesheet.FailureMessage(msg.res.Err))
		} else {
			cell.WriteSucceeded()
		}
		return m, nil

	case tea.KeyMsg:
		if m.fatal != "" {
			return m, tea.Quit
		}
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

// failRequest handles errors that invalidate the whole view. A dead session
// quits; everything else shows in the status area.
func (m Model) failRequest(err error) (tea.Model, tea.Cmd) {
	if errors.Is(err, api.ErrNotLoggedIn) {
		m.fatal = "Session expired. Run 'timegrid auth login' and try again."
		return m, tea.Quit
	}
	m.message = err.Error()
	return m, nil
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Up):
		if m.row > 0 {
			m.row--
		}

	case key.Matches(msg, keys.Down):
		if m.row < len(m.projects)-1 {
			m.row++
		}

	case key.Matches(msg, keys.Left):
		if m.col > 0 {
			m.col--
		}

	case key.Matches(msg, keys.Right):
		if m.col < 6 {
			m.col++
		}

	case key.Matches(msg, keys.PrevWeek):
		return m.switchWeek(m.cache.Week.Prev())

	case key.Matches(msg, keys.NextWeek):
		return m.switchWeek(m.cache.Week.Next())

	case key.Matches(msg, keys.Today):
		return m.switchWeek(timesheet.WeekOf(time.Now()))

	case key.Matches(msg, keys.Refresh):
		m.loading = true
		m.message = ""
		return m, m.fetchWeek()

	case key.Matches(msg, keys.Edit):
		return m.startEditing()

	case key.Matches(msg, keys.Clear):
		return m.submitValue("0")
	}

	return m, nil
}

func (m Model) switchWeek(week timesheet.Week) (tea.Model, tea.Cmd) {
	m.cache.Reset(m.cache.UserID, week)
	m.cells = make(map[string]*timesheet.CellState)
	m.loading = true
	m.message = ""
	return m, m.fetchWeek()
}

func (m Model) startEditing() (tea.Model, tea.Cmd) {
	proj := m.currentProject()
	if proj == nil {
		return m, nil
	}

	cell := m.cell(proj.ID, m.currentDate())
	if cell.Phase == timesheet.CellPending {
		m.message = "cell is still saving"
		return m, nil
	}

	current := ""
	if rec, ok := m.cache.Get(proj.ID, m.currentDate()); ok {
		current = formatAmount(rec.Amount)
	}
	m.editing = true
	m.input.SetValue(current)
	m.input.CursorEnd()
	m.input.Focus()
	return m, nil
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.editing = false
		m.input.Blur()
		return m, nil

	case msg.Type == tea.KeyEnter:
		raw := m.input.Value()
		m.editing = false
		m.input.Blur()
		return m.submitValue(raw)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submitValue runs the edit through the validator and, when accepted, hands
// it to the coordinator. Begin runs here on the update goroutine; only the
// network call is dispatched as a command.
func (m Model) submitValue(raw string) (tea.Model, tea.Cmd) {
	proj := m.currentProject()
	if proj == nil {
		return m, nil
	}
	date := m.currentDate()
	cell := m.cell(proj.ID, date)

	prior := 0.0
	if rec, ok := m.cache.Get(proj.ID, date); ok {
		prior = rec.Amount
	}

	outcome := timesheet.Validate(raw, prior, m.cache.DayTotal(date, proj.ID))
	switch outcome.Kind {
	case timesheet.OutcomePending:
		// Incomplete input from an enter press: treat as abandoned typing.
		cell.Settle()
		return m, nil
	case timesheet.OutcomeRejected:
		cell.Reject(outcome.Reason)
		return m, nil
	}

	op, err := m.coord.Begin(proj.ID, date, outcome)
	if err != nil {
		if errors.Is(err, timesheet.ErrWritePending) {
			m.message = "previous save still in flight, edit dropped"
		} else {
			m.message = err.Error()
		}
		return m, nil
	}
	if op.Kind == timesheet.OpNone {
		cell.Settle()
		return m, nil
	}

	cell.StartWrite()
	logger.Debug("cell write started",
		logger.F("key", timesheet.Key(proj.ID, date)),
		logger.F("amount", fmt.Sprintf("%.1f", outcome.Amount)))
	return m, m.executeWrite(op)
}
