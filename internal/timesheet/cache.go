package timesheet

import (
	"context"
	"fmt"
	"time"

	"github.com/existflow/timegrid/internal/logger"
	"github.com/existflow/timegrid/internal/model"
)

// Record is the client-side view of one (project, date) cell. It exists only
// for entries with a non-zero amount or an in-flight operation.
type Record struct {
	Amount    float64
	EntryID   int    // server id; zero until the create response arrives
	Pending   bool   // a write for this key is in flight
	LastError string // most recent failure for this key, shown in the grid
}

// Persisted reports whether the record has a server-side identity.
func (r Record) Persisted() bool { return r.EntryID != 0 }

// Key identifies a cell as "<projectID>-<ISO date>".
func Key(projectID int, date time.Time) string {
	return fmt.Sprintf("%d-%s", projectID, date.Format(model.DateFormat))
}

// MonthLister fetches all of a user's entries for one YYYY-MM month.
type MonthLister interface {
	MonthlyEntries(ctx context.Context, userID int, month string) ([]model.TimeEntry, error)
}

// Cache is the single source of truth the grid renders from. It is owned by
// one user and one week window, rebuilt whenever either changes, and mutated
// only between event-loop turns (single writer). The generation counter lets
// callers detect that a slow load belongs to a window that is no longer
// displayed.
type Cache struct {
	UserID     int
	Week       Week
	Generation uint64

	records map[string]Record
}

// NewCache returns an empty cache scoped to the given user and week.
func NewCache(userID int, week Week) *Cache {
	return &Cache{
		UserID:  userID,
		Week:    week,
		records: make(map[string]Record),
	}
}

// Reset rebinds the cache to a new user/week, discards every record, and
// bumps the generation so in-flight loads for the old scope are ignored.
func (c *Cache) Reset(userID int, week Week) {
	c.UserID = userID
	c.Week = week
	c.Generation++
	c.records = make(map[string]Record)
}

// FetchWeek retrieves every entry intersecting the months spanned by week.
// A week straddling a month boundary needs one fetch per month; results are
// concatenated. Pure fetch, no cache mutation, so it can run off the owning
// goroutine.
func FetchWeek(ctx context.Context, src MonthLister, userID int, week Week) ([]model.TimeEntry, error) {
	var all []model.TimeEntry
	for _, month := range week.Months() {
		entries, err := src.MonthlyEntries(ctx, userID, month)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", month, err)
		}
		all = append(all, entries...)
	}
	return all, nil
}

// Absorb rebuilds the record set from fetched entries, discarding whatever
// was cached before. Must run on the owning goroutine.
func (c *Cache) Absorb(entries []model.TimeEntry) {
	merged := make(map[string]Record, len(entries))
	for _, e := range entries {
		merged[fmt.Sprintf("%d-%s", e.ProjectID, e.Date)] = Record{
			Amount:  e.Amount,
			EntryID: e.ID,
		}
	}
	c.records = merged
	logger.Debug("cache loaded",
		logger.F("user", c.UserID),
		logger.F("week", c.Week.Label()),
		logger.F("records", len(merged)))
}

// Load fetches and absorbs in one step. Convenience for callers without an
// event loop.
func (c *Cache) Load(ctx context.Context, src MonthLister) error {
	entries, err := FetchWeek(ctx, src, c.UserID, c.Week)
	if err != nil {
		return err
	}
	c.Absorb(entries)
	return nil
}

// Get returns the record for a cell, if any.
func (c *Cache) Get(projectID int, date time.Time) (Record, bool) {
	r, ok := c.records[Key(projectID, date)]
	return r, ok
}

// Put overwrites the record for a cell.
func (c *Cache) Put(projectID int, date time.Time, r Record) {
	c.records[Key(projectID, date)] = r
}

// Remove evicts the record for a cell.
func (c *Cache) Remove(projectID int, date time.Time) {
	delete(c.records, Key(projectID, date))
}

// Len returns the number of cached records.
func (c *Cache) Len() int { return len(c.records) }

// DayTotal sums the cached amounts for one date across all projects,
// excluding excludeProject (pass a non-existent id, e.g. -1, to exclude
// nothing). This backs the day-capacity pre-check.
func (c *Cache) DayTotal(date time.Time, excludeProject int) float64 {
	suffix := "-" + date.Format(model.DateFormat)
	exclude := Key(excludeProject, date)
	var total float64
	for k, r := range c.records {
		if k == exclude || len(k) < len(suffix) || k[len(k)-len(suffix):] != suffix {
			continue
		}
		total += r.Amount
	}
	return total
}

// WeekTotal sums the cached amounts for every day of the window.
func (c *Cache) WeekTotal() float64 {
	var total float64
	for _, d := range c.Week.Days() {
		total += c.DayTotal(d, -1)
	}
	return total
}
