package timesheet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekOfStartsOnMonday(t *testing.T) {
	tests := []struct {
		name string
		ref  time.Time
		want time.Time // expected Monday
	}{
		{"monday itself", date(2024, 3, 4), date(2024, 3, 4)},
		{"midweek", date(2024, 3, 6), date(2024, 3, 4)},
		{"sunday belongs to preceding monday", date(2024, 3, 10), date(2024, 3, 4)},
		{"year boundary", date(2025, 1, 1), date(2024, 12, 30)},
		{"leap february", date(2024, 2, 29), date(2024, 2, 26)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := WeekOf(tt.ref)
			assert.True(t, w.Monday().Equal(tt.want), "monday = %v, want %v", w.Monday(), tt.want)
			assert.Equal(t, time.Monday, w.Monday().Weekday())
			assert.Equal(t, time.Sunday, w.Sunday().Weekday())
		})
	}
}

func TestWeekOfConsecutiveDays(t *testing.T) {
	w := WeekOf(date(2024, 3, 6))
	days := w.Days()
	for i := 1; i < 7; i++ {
		assert.Equal(t, days[i-1].AddDate(0, 0, 1), days[i])
	}
}

func TestWeekOfIdempotent(t *testing.T) {
	for _, ref := range []time.Time{
		date(2024, 3, 4),
		date(2024, 3, 9),
		date(2023, 12, 31),
	} {
		w := WeekOf(ref)
		again := WeekOf(w.Monday())
		assert.True(t, w.Equal(again), "WeekOf not stable for %v", ref)
	}
}

func TestNextPrevAdjacentDisjoint(t *testing.T) {
	w := WeekOf(date(2024, 3, 6))

	next := w.Next()
	require.Equal(t, w.Sunday().AddDate(0, 0, 1), next.Monday(), "next week must start the day after this sunday")

	prev := w.Prev()
	require.Equal(t, w.Monday().AddDate(0, 0, -1), prev.Sunday(), "previous week must end the day before this monday")

	assert.True(t, w.Prev().Next().Equal(w))
}

func TestMonths(t *testing.T) {
	tests := []struct {
		name string
		ref  time.Time
		want []string
	}{
		{"single month", date(2024, 3, 6), []string{"2024-03"}},
		{"straddles month", date(2024, 2, 28), []string{"2024-02", "2024-03"}},
		{"straddles year", date(2024, 12, 31), []string{"2024-12", "2025-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WeekOf(tt.ref).Months())
		})
	}
}

func TestContains(t *testing.T) {
	w := WeekOf(date(2024, 3, 6))
	assert.True(t, w.Contains(date(2024, 3, 4)))
	assert.True(t, w.Contains(date(2024, 3, 10)))
	assert.False(t, w.Contains(date(2024, 3, 3)))
	assert.False(t, w.Contains(date(2024, 3, 11)))
}
