// Package tui renders the weekly timesheet grid: projects as rows, the
// Monday–Sunday window as columns, one editable day-fraction cell each.
package tui

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/existflow/timegrid/internal/api"
	"github.com/existflow/timegrid/internal/logger"
	"github.com/existflow/timegrid/internal/model"
	"github.com/existflow/timegrid/internal/timesheet"
)

// Model is the main TUI model. The cache and coordinator are only touched
// from Update; commands carry fetches and writes off-thread and report back
// as messages.
type Model struct {
	client   *api.Client
	projects []model.Project

	cache *timesheet.Cache
	coord *timesheet.Coordinator
	cells map[string]*timesheet.CellState

	// Cursor position: row indexes projects, col indexes weekdays.
	row int
	col int

	editing bool
	input   textinput.Model

	width   int
	height  int
	loading bool
	message string
	fatal   string
}

// NewModel builds the grid for the logged-in user, anchored on the current
// week.
func NewModel(client *api.Client) Model {
	logger.Info("initializing grid",
		logger.F("user", client.Session().Username))

	ti := textinput.New()
	ti.CharLimit = 4
	ti.Width = 5

	week := timesheet.WeekOf(time.Now())
	cache := timesheet.NewCache(client.Session().UserID, week)

	return Model{
		client:  client,
		cache:   cache,
		coord:   timesheet.NewCoordinator(cache, client),
		cells:   make(map[string]*timesheet.CellState),
		input:   ti,
		loading: true,
	}
}

// cell returns the editing state for a grid position, creating it on first
// touch.
func (m *Model) cell(projectID int, date time.Time) *timesheet.CellState {
	k := timesheet.Key(projectID, date)
	if s, ok := m.cells[k]; ok {
		return s
	}
	s := &timesheet.CellState{}
	m.cells[k] = s
	return s
}

func (m *Model) currentProject() *model.Project {
	if m.row < len(m.projects) {
		return &m.projects[m.row]
	}
	return nil
}

func (m *Model) currentDate() time.Time {
	return m.cache.Week.Day(m.col)
}

// formatAmount renders a day fraction the way the cells display it, with a
// comma decimal separator.
func formatAmount(v float64) string {
	switch {
	case model.AmountEqual(v, model.AmountHalf):
		return "0,5"
	case model.AmountEqual(v, model.AmountFull):
		return "1"
	case model.AmountEqual(v, 0):
		return ""
	default:
		return strings.ReplaceAll(strconv.FormatFloat(v, 'g', -1, 64), ".", ",")
	}
}
