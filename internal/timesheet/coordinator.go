package timesheet

import (
	"context"
	"errors"
	"time"

	"github.com/existflow/timegrid/internal/logger"
	"github.com/existflow/timegrid/internal/model"
)

// EntryWriter is the slice of the REST client the coordinator needs.
type EntryWriter interface {
	CreateEntry(ctx context.Context, e model.TimeEntry) (model.TimeEntry, error)
	UpdateEntry(ctx context.Context, id int, amount float64) (model.TimeEntry, error)
	DeleteEntry(ctx context.Context, id int) error
}

// serverMessager is implemented by errors that carry a server-provided
// rejection message worth showing verbatim.
type serverMessager interface {
	ServerMessage() string
}

// ErrWritePending is returned when an edit targets a key that already has a
// write in flight. The discipline is suppression: the newer edit is dropped
// and the user retries once the cell settles.
var ErrWritePending = errors.New("a write for this cell is already in flight")

// OpKind is the persistence transition derived from a validated edit.
type OpKind int

const (
	OpNone OpKind = iota // nothing to do (no entry, target 0, or unchanged)
	OpCreate
	OpUpdate
	OpDelete
)

// WriteOp describes one pending write. It carries everything Finish needs to
// commit or roll back without consulting mutable state, plus the cache
// generation captured at Begin time so results for a discarded week are
// dropped.
type WriteOp struct {
	Kind      OpKind
	ProjectID int
	Date      time.Time
	Amount    float64
	EntryID   int

	prev    Record
	hadPrev bool
	gen     uint64
}

// WriteResult is the outcome of executing a WriteOp against the server.
type WriteResult struct {
	Err     error
	EntryID int // server id assigned by a create
}

// Coordinator translates validated cell edits into create/update/delete
// calls and reconciles the cache with the result. Begin and Finish mutate
// the cache and must run on the owning (UI) goroutine; Execute only talks to
// the network and may run anywhere.
type Coordinator struct {
	cache  *Cache
	writer EntryWriter
}

// NewCoordinator wires a coordinator to its cache and API client.
func NewCoordinator(cache *Cache, writer EntryWriter) *Coordinator {
	return &Coordinator{cache: cache, writer: writer}
}

// Begin turns an accepted outcome into a write operation and marks the cell
// pending. It returns ErrWritePending when the key already has a write in
// flight, and an OpNone op when the edit needs no network call.
func (c *Coordinator) Begin(projectID int, date time.Time, out Outcome) (WriteOp, error) {
	if out.Kind != OutcomeAccepted {
		return WriteOp{}, errors.New("only accepted outcomes can be applied")
	}

	prev, hadPrev := c.cache.Get(projectID, date)
	if hadPrev && prev.Pending {
		return WriteOp{}, ErrWritePending
	}

	op := WriteOp{
		ProjectID: projectID,
		Date:      date,
		Amount:    out.Amount,
		prev:      prev,
		hadPrev:   hadPrev,
		gen:       c.cache.Generation,
	}

	clearing := model.AmountEqual(out.Amount, 0)
	switch {
	case !hadPrev && clearing:
		op.Kind = OpNone
	case hadPrev && clearing:
		op.Kind = OpDelete
		op.EntryID = prev.EntryID
	case hadPrev:
		if model.AmountEqual(prev.Amount, out.Amount) {
			op.Kind = OpNone
			break
		}
		op.Kind = OpUpdate
		op.EntryID = prev.EntryID
	default:
		op.Kind = OpCreate
	}

	if op.Kind == OpNone {
		return op, nil
	}

	c.cache.Put(projectID, date, Record{
		Amount:  op.Amount,
		EntryID: op.EntryID,
		Pending: true,
	})
	return op, nil
}

// Execute performs the network call for an op. No cache mutation happens
// here, so it is safe to run inside a bubbletea command goroutine.
func (c *Coordinator) Execute(ctx context.Context, op WriteOp) WriteResult {
	switch op.Kind {
	case OpCreate:
		created, err := c.writer.CreateEntry(ctx, model.TimeEntry{
			UserID:    c.cache.UserID,
			ProjectID: op.ProjectID,
			Date:      op.Date.Format(model.DateFormat),
			Amount:    op.Amount,
		})
		if err != nil {
			return WriteResult{Err: err}
		}
		return WriteResult{EntryID: created.ID}
	case OpUpdate:
		_, err := c.writer.UpdateEntry(ctx, op.EntryID, op.Amount)
		return WriteResult{Err: err, EntryID: op.EntryID}
	case OpDelete:
		return WriteResult{Err: c.writer.DeleteEntry(ctx, op.EntryID)}
	default:
		return WriteResult{}
	}
}

// Finish reconciles the cache with a completed write. On failure the cell
// reverts to its last known-good state: a failed create leaves the key
// absent, a failed update restores the previous amount (the server id still
// points at the last known-good record), and a failed delete keeps the
// record because the server copy still exists. Results for a cache that has
// since been reset are discarded.
func (c *Coordinator) Finish(op WriteOp, res WriteResult) {
	if op.Kind == OpNone {
		return
	}
	if op.gen != c.cache.Generation {
		logger.Debug("dropping stale write result",
			logger.F("key", Key(op.ProjectID, op.Date)))
		return
	}

	if res.Err != nil {
		reason := FailureMessage(res.Err)
		logger.Warn("write failed",
			logger.F("key", Key(op.ProjectID, op.Date)),
			logger.F("error", res.Err))
		if !op.hadPrev {
			c.cache.Remove(op.ProjectID, op.Date)
			return
		}
		restored := op.prev
		restored.Pending = false
		restored.LastError = reason
		c.cache.Put(op.ProjectID, op.Date, restored)
		return
	}

	switch op.Kind {
	case OpDelete:
		c.cache.Remove(op.ProjectID, op.Date)
	default:
		c.cache.Put(op.ProjectID, op.Date, Record{
			Amount:  op.Amount,
			EntryID: res.EntryID,
		})
	}
}

// Apply runs Begin, Execute and Finish sequentially. Convenience for callers
// without an event loop (CLI, tests).
func (c *Coordinator) Apply(ctx context.Context, projectID int, date time.Time, out Outcome) error {
	op, err := c.Begin(projectID, date, out)
	if err != nil {
		return err
	}
	res := c.Execute(ctx, op)
	c.Finish(op, res)
	return res.Err
}

// FailureMessage extracts the user-facing text for a failed write: the
// server's rejection verbatim when present, a generic message otherwise.
func FailureMessage(err error) string {
	var sm serverMessager
	if errors.As(err, &sm) {
		if msg := sm.ServerMessage(); msg != "" {
			return msg
		}
	}
	return "saving failed, value restored"
}
