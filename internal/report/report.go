// Package report aggregates a user's month of entries into per-project
// totals for display or CSV export.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/existflow/timegrid/internal/model"
)

// ProjectTotal is one project's share of a monthly report.
type ProjectTotal struct {
	ProjectID int
	Name      string
	Days      float64
	Entries   int
}

// Monthly is a user's aggregated month.
type Monthly struct {
	Month     string // YYYY-MM
	Username  string
	Totals    []ProjectTotal
	TotalDays float64
	DaysUsed  int // distinct dates with at least one entry
}

// Build aggregates entries into a monthly report. Project names come from
// the projects list; unknown projects render by id.
func Build(month, username string, entries []model.TimeEntry, projects []model.Project) Monthly {
	names := make(map[int]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}

	byProject := make(map[int]*ProjectTotal)
	dates := make(map[string]struct{})
	var total float64

	for _, e := range entries {
		if !strings.HasPrefix(e.Date, month) {
			continue
		}
		pt, ok := byProject[e.ProjectID]
		if !ok {
			name := names[e.ProjectID]
			if name == "" {
				name = fmt.Sprintf("project %d", e.ProjectID)
			}
			pt = &ProjectTotal{ProjectID: e.ProjectID, Name: name}
			byProject[e.ProjectID] = pt
		}
		pt.Days += e.Amount
		pt.Entries++
		total += e.Amount
		dates[e.Date] = struct{}{}
	}

	totals := make([]ProjectTotal, 0, len(byProject))
	for _, pt := range byProject {
		totals = append(totals, *pt)
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Days != totals[j].Days {
			return totals[i].Days > totals[j].Days
		}
		return totals[i].Name < totals[j].Name
	})

	return Monthly{
		Month:     month,
		Username:  username,
		Totals:    totals,
		TotalDays: total,
		DaysUsed:  len(dates),
	}
}

// Text renders the report as an aligned table.
func (m Monthly) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Report %s — %s\n\n", m.Month, m.Username)
	if len(m.Totals) == 0 {
		b.WriteString("No entries recorded.\n")
		return b.String()
	}
	for _, t := range m.Totals {
		fmt.Fprintf(&b, "  %-30s %5.1f d  (%d entries)\n", t.Name, t.Days, t.Entries)
	}
	fmt.Fprintf(&b, "\n  %-30s %5.1f d over %d day(s)\n", "Total", m.TotalDays, m.DaysUsed)
	return b.String()
}

// WriteCSV writes the report with a header row and a trailing total.
func (m Monthly) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"month", "user", "project", "days", "entries"}); err != nil {
		return err
	}
	for _, t := range m.Totals {
		row := []string{
			m.Month,
			m.Username,
			t.Name,
			fmt.Sprintf("%.1f", t.Days),
			fmt.Sprintf("%d", t.Entries),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	if err := cw.Write([]string{m.Month, m.Username, "TOTAL", fmt.Sprintf("%.1f", m.TotalDays), ""}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
