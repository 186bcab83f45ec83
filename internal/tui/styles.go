package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Primary   = lipgloss.Color("#4ECDC4")
	Surface   = lipgloss.Color("#16213e")
	Text      = lipgloss.Color("#FFFFFF")
	TextMuted = lipgloss.Color("#888888")
	Border    = lipgloss.Color("#333333")

	PendingColor  = lipgloss.Color("#FFE66D") // write in flight
	ErrorColor    = lipgloss.Color("#FF6B6B")
	WeekendColor  = lipgloss.Color("#6C757D")
	CapacityColor = lipgloss.Color("#95E1A3") // day fully booked
)

// Styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1)

	WeekLabelStyle = lipgloss.NewStyle().
			Foreground(Text).
			Padding(0, 1)

	ColHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextMuted)

	WeekendHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(WeekendColor)

	ProjectColStyle = lipgloss.NewStyle().
			Foreground(Text)

	CellStyle = lipgloss.NewStyle().
			Foreground(Text)

	CellSelectedStyle = lipgloss.NewStyle().
				Background(Surface).
				Bold(true)

	CellPendingStyle = lipgloss.NewStyle().
				Foreground(PendingColor)

	CellErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	TotalRowStyle = lipgloss.NewStyle().
			Foreground(TextMuted)

	TotalFullStyle = lipgloss.NewStyle().
			Foreground(CapacityColor)

	ErrorBarStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1)

	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted)
)
