package timesheet

// CellPhase is the lifecycle state of one grid cell. Transitions are driven
// by explicit events (input, write start, write success, write failure) so
// the state machine stays independent of any concurrency primitive.
type CellPhase int

const (
	CellIdle CellPhase = iota
	CellTyping
	CellPending
	CellAccepted
	CellRejected
)

// CellState tracks the editing lifecycle of a single cell alongside the
// cache record. RawText carries the partial input while typing; Reason
// carries the rejection message while rejected.
type CellState struct {
	Phase   CellPhase
	RawText string
	Reason  string
}

// Type records partial input. Valid from any phase except Pending: while a
// write is in flight, onward input for the key is dropped.
func (s *CellState) Type(raw string) bool {
	if s.Phase == CellPending {
		return false
	}
	s.Phase = CellTyping
	s.RawText = raw
	s.Reason = ""
	return true
}

// StartWrite marks the cell's write as in flight.
func (s *CellState) StartWrite() {
	s.Phase = CellPending
	s.Reason = ""
}

// WriteSucceeded settles the cell on its accepted value.
func (s *CellState) WriteSucceeded() {
	s.Phase = CellAccepted
	s.RawText = ""
	s.Reason = ""
}

// WriteFailed reverts the cell and records the reason for display.
func (s *CellState) WriteFailed(reason string) {
	s.Phase = CellRejected
	s.RawText = ""
	s.Reason = reason
}

// Reject reverts the cell on local validation failure.
func (s *CellState) Reject(reason string) {
	s.Phase = CellRejected
	s.RawText = ""
	s.Reason = reason
}

// Settle returns the cell to idle, clearing transient text and errors.
func (s *CellState) Settle() {
	*s = CellState{}
}
