package timesheet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/existflow/timegrid/internal/model"
)

// OutcomeKind tags the result of validating raw cell input.
type OutcomeKind int

const (
	// OutcomeAccepted means the input parsed to an allowed value that fits
	// the day's remaining capacity and should be persisted.
	OutcomeAccepted OutcomeKind = iota
	// OutcomeRejected means the input is wrong (syntax, disallowed value, or
	// capacity) and the cell must revert to its last accepted value.
	OutcomeRejected
	// OutcomePending means the input is syntactically incomplete (the user
	// is still typing, e.g. "0," or "."); keep the raw text displayed and
	// do not persist anything yet.
	OutcomePending
)

// Outcome is the validator's verdict on one cell edit.
type Outcome struct {
	Kind   OutcomeKind
	Amount float64 // meaningful only when Kind == OutcomeAccepted
	Reason string  // meaningful only when Kind == OutcomeRejected
}

func Accepted(amount float64) Outcome { return Outcome{Kind: OutcomeAccepted, Amount: amount} }
func Rejected(reason string) Outcome  { return Outcome{Kind: OutcomeRejected, Reason: reason} }
func Pending() Outcome                { return Outcome{Kind: OutcomePending} }

// ParseAmount normalizes raw cell text to a number. Both "." and "," are
// accepted as the decimal separator. The second return is false when the
// text is incomplete and should not be validated yet.
func ParseAmount(raw string) (value float64, complete bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, true, nil
	}
	normalized := strings.ReplaceAll(raw, ",", ".")
	if normalized == "." || strings.HasSuffix(normalized, ".") {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, true, fmt.Errorf("not a number: %q", raw)
	}
	return v, true, nil
}

// Validate checks raw input for one cell. dayTotalExcluding is the sum of
// all cached amounts for the same date across other projects; the cell's own
// current value must not be included. prior is the cell's last accepted
// amount (0 when the cell is empty), used to detect an unchanged value.
//
// An empty input means "clear the cell": always accepted as 0, which the
// coordinator turns into a delete or a no-op.
func Validate(raw string, prior float64, dayTotalExcluding float64) Outcome {
	value, complete, err := ParseAmount(raw)
	if !complete {
		return Pending()
	}
	if err != nil {
		return Rejected("only numbers are allowed (0, 0.5 or 1)")
	}
	if !model.ValidAmount(value) {
		return Rejected("only 0, 0.5 and 1 are allowed")
	}
	if model.AmountEqual(value, prior) {
		// Unchanged value: accept without re-checking capacity, the
		// coordinator will see no transition to apply.
		return Accepted(value)
	}
	if total := dayTotalExcluding + value; total > model.DayCapacity+1e-6 {
		return Rejected(fmt.Sprintf(
			"capacity exceeded: day total would be %.1f, at most %.1f allowed",
			total, model.DayCapacity))
	}
	return Accepted(value)
}
