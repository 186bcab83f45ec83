package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/timegrid/internal/model"
	"github.com/existflow/timegrid/internal/timesheet"
)

const (
	projectColWidth = 22
	cellWidth       = 8
)

// View renders the grid.
func (m Model) View() string {
	if m.fatal != "" {
		return ErrorBarStyle.Render(m.fatal) + "\n"
	}
	if m.width == 0 || m.loading {
		return "Loading timesheet..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderColumnHeaders())
	b.WriteString("\n")

	for i, p := range m.projects {
		b.WriteString(m.renderProjectRow(i, p))
		b.WriteString("\n")
	}
	if len(m.projects) == 0 {
		b.WriteString(HelpStyle.Render("  No projects assigned.") + "\n")
	}

	b.WriteString(m.renderTotalsRow())
	b.WriteString("\n")
	b.WriteString(m.renderCellError())
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m Model) renderHeader() string {
	title := HeaderStyle.Render("Timegrid")
	week := WeekLabelStyle.Render(fmt.Sprintf("Week of %s", m.cache.Week.Label()))
	user := HelpStyle.Render(m.client.Session().Username)
	return lipgloss.JoinHorizontal(lipgloss.Top, title, week, user)
}

func (m Model) renderColumnHeaders() string {
	var b strings.Builder
	b.WriteString(padRight("", projectColWidth))
	for i, d := range m.cache.Week.Days() {
		label := padCenter(d.Format("Mon 02"), cellWidth)
		if i >= 5 {
			b.WriteString(WeekendHeaderStyle.Render(label))
		} else {
			b.WriteString(ColHeaderStyle.Render(label))
		}
	}
	return b.String()
}

func (m Model) renderProjectRow(row int, p model.Project) string {
	var b strings.Builder
	b.WriteString(ProjectColStyle.Render(padRight(" "+truncate(p.Name, projectColWidth-2), projectColWidth)))

	for col, d := range m.cache.Week.Days() {
		selected := row == m.row && col == m.col

		if selected && m.editing {
			b.WriteString(padCenter(m.input.View(), cellWidth))
			continue
		}

		text := ""
		style := CellStyle
		if rec, ok := m.cache.Get(p.ID, d); ok {
			text = formatAmount(rec.Amount)
			if rec.Pending {
				text += "…"
				style = CellPendingStyle
			}
		}
		if cell, ok := m.cells[timesheet.Key(p.ID, d)]; ok {
			switch cell.Phase {
			case timesheet.CellPending:
				style = CellPendingStyle
			case timesheet.CellRejected:
				style = CellErrorStyle
				if text == "" {
					text = "!"
				}
			}
		}
		if selected {
			style = CellSelectedStyle
		}
		b.WriteString(style.Render(padCenter(text, cellWidth)))
	}
	return b.String()
}

func (m Model) renderTotalsRow() string {
	var b strings.Builder
	b.WriteString(TotalRowStyle.Render(padRight(" Total", projectColWidth)))
	for _, d := range m.cache.Week.Days() {
		total := m.cache.DayTotal(d, -1)
		text := formatAmount(total)
		if text == "" && total != 0 {
			text = fmt.Sprintf("%.1f", total)
		}
		style := TotalRowStyle
		if model.AmountEqual(total, model.DayCapacity) {
			style = TotalFullStyle
		}
		b.WriteString(style.Render(padCenter(text, cellWidth)))
	}
	return b.String()
}

// renderCellError shows the selected cell's last rejection under the grid.
func (m Model) renderCellError() string {
	proj := m.currentProject()
	if proj == nil {
		return ""
	}
	if cell, ok := m.cells[timesheet.Key(proj.ID, m.currentDate())]; ok && cell.Reason != "" {
		return ErrorBarStyle.Render("✗ "+cell.Reason) + "\n"
	}
	return ""
}

func (m Model) renderStatusBar() string {
	if m.message != "" {
		return StatusBarStyle.Render(m.message)
	}
	help := "←↑↓→ move · enter edit · x clear · [/] week · t today · r reload · q quit"
	if m.editing {
		help = "enter save · esc cancel · values: 0, 0,5 or 1"
	}
	return StatusBarStyle.Render(help)
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

func padCenter(s string, width int) string {
	n := lipgloss.Width(s)
	if n >= width {
		return s
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 1 {
		return s[:max]
	}
	return s[:max-1] + "…"
}
