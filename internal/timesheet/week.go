// Package timesheet implements the weekly grid reconciliation core: the week
// window, the entry cache the grid renders from, cell input validation, and
// the coordinator that keeps the cache consistent with the server.
package timesheet

import "time"

// Week is the 7 contiguous calendar dates, Monday through Sunday, currently
// displayed in the grid. Derived purely from a reference date.
type Week struct {
	days [7]time.Time
}

// WeekOf returns the week containing ref. Go's weekday numbers Sunday as 0;
// treat it as 7 so Monday stays the first day.
func WeekOf(ref time.Time) Week {
	ref = time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	wd := int(ref.Weekday())
	if wd == 0 {
		wd = 7
	}
	monday := ref.AddDate(0, 0, -(wd - 1))

	var w Week
	for i := range w.days {
		w.days[i] = monday.AddDate(0, 0, i)
	}
	return w
}

// Monday returns the first day of the week.
func (w Week) Monday() time.Time { return w.days[0] }

// Sunday returns the last day of the week.
func (w Week) Sunday() time.Time { return w.days[6] }

// Days returns the seven dates in order.
func (w Week) Days() [7]time.Time { return w.days }

// Day returns the i-th date (0 = Monday).
func (w Week) Day(i int) time.Time { return w.days[i] }

// Next returns the immediately following week.
func (w Week) Next() Week { return WeekOf(w.days[0].AddDate(0, 0, 7)) }

// Prev returns the immediately preceding week.
func (w Week) Prev() Week { return WeekOf(w.days[0].AddDate(0, 0, -7)) }

// Equal reports whether both windows start on the same Monday.
func (w Week) Equal(o Week) bool { return w.days[0].Equal(o.days[0]) }

// Contains reports whether d falls inside the window.
func (w Week) Contains(d time.Time) bool {
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return !d.Before(w.days[0]) && !d.After(w.days[6])
}

// Months returns the distinct YYYY-MM months the window spans, in order. A
// week straddling a month boundary yields two; otherwise one.
func (w Week) Months() []string {
	first := w.days[0].Format("2006-01")
	last := w.days[6].Format("2006-01")
	if first == last {
		return []string{first}
	}
	return []string{first, last}
}

// Label returns a short human label for the window, e.g. "2024-03-04 – 2024-03-10".
func (w Week) Label() string {
	return w.days[0].Format("2006-01-02") + " – " + w.days[6].Format("2006-01-02")
}
