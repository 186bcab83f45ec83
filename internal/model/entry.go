package model

// Allowed day fractions for a single entry. Anything else is rejected both
// client-side and by the server.
const (
	AmountNone = 0.0
	AmountHalf = 0.5
	AmountFull = 1.0
)

// DayCapacity is the maximum total a user may record for one calendar day.
const DayCapacity = 1.0

// DateFormat is the wire format for entry dates.
const DateFormat = "2006-01-02"

// MonthFormat is the wire format for monthly report paths.
const MonthFormat = "2006-01"

// TimeEntry is a persisted record of how much of a working day a user spent
// on a project on a given date. JSON field names follow the backend contract
// (the API speaks French: projet, temps).
type TimeEntry struct {
	ID          int     `json:"id,omitempty"`
	UserID      int     `json:"user,omitempty"`
	ProjectID   int     `json:"projet"`
	Date        string  `json:"date"`
	Amount      float64 `json:"temps"`
	Description string  `json:"description"`
}

// ValidAmount reports whether v is one of the allowed day fractions,
// tolerating floating-point representation error.
func ValidAmount(v float64) bool {
	return AmountEqual(v, AmountNone) || AmountEqual(v, AmountHalf) || AmountEqual(v, AmountFull)
}

// AmountEqual compares two amounts with a tolerance instead of exact
// equality, so a parsed 0.4999999 still counts as 0.5.
func AmountEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-6
}
