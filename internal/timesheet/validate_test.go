package timesheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw      string
		want     float64
		complete bool
		wantErr  bool
	}{
		{"", 0, true, false},
		{"0", 0, true, false},
		{"1", 1, true, false},
		{"0.5", 0.5, true, false},
		{"0,5", 0.5, true, false},
		{",5", 0.5, true, false},
		{" 1 ", 1, true, false},
		{"0,", 0, false, false},
		{"0.", 0, false, false},
		{".", 0, false, false},
		{",", 0, false, false},
		{"abc", 0, true, true},
		{"1x", 0, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, complete, err := ParseAmount(tt.raw)
			assert.Equal(t, tt.complete, complete)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			if complete {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestValidateAllowedValues(t *testing.T) {
	tests := []struct {
		raw  string
		kind OutcomeKind
	}{
		{"0", OutcomeAccepted},
		{"0.5", OutcomeAccepted},
		{"0,5", OutcomeAccepted},
		{"1", OutcomeAccepted},
		{"", OutcomeAccepted}, // clearing a cell
		{"0.3", OutcomeRejected},
		{"2", OutcomeRejected},
		{"24", OutcomeRejected},
		{"-0.5", OutcomeRejected},
		{"abc", OutcomeRejected},
		{"1,", OutcomePending},
		{".", OutcomePending},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			out := Validate(tt.raw, 0, 0)
			assert.Equal(t, tt.kind, out.Kind)
			if tt.kind == OutcomeRejected {
				assert.NotEmpty(t, out.Reason)
			}
		})
	}
}

func TestValidateFloatTolerance(t *testing.T) {
	out := Validate("0.4999999", 0, 0)
	assert.Equal(t, OutcomeAccepted, out.Kind)
	assert.InDelta(t, 0.5, out.Amount, 1e-3)
}

func TestValidateCapacity(t *testing.T) {
	// Half a day recorded elsewhere: a full day on this cell must not fit.
	out := Validate("1", 0, 0.5)
	assert.Equal(t, OutcomeRejected, out.Kind)
	assert.Contains(t, out.Reason, "capacity")

	// But half a day still fits exactly.
	out = Validate("0.5", 0, 0.5)
	assert.Equal(t, OutcomeAccepted, out.Kind)

	// A full day with nothing else recorded is fine.
	out = Validate("1", 0, 0)
	assert.Equal(t, OutcomeAccepted, out.Kind)
}

func TestValidateUnchangedValueSkipsCapacity(t *testing.T) {
	// The cell already holds 0.5 and the day is otherwise full; re-entering
	// the same value must not be rejected.
	out := Validate("0,5", 0.5, 0.5)
	assert.Equal(t, OutcomeAccepted, out.Kind)
	assert.InDelta(t, 0.5, out.Amount, 1e-9)
}
