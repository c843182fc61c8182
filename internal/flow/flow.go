// Package flow holds the Kanban-flow rules that decide whether a card may cross
// from one column to another, and how many cards a column may hold.
package flow

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Status is the flow classification attached to a column.
type Status string

const (
	StatusNormal     Status = "normal"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

const (
	// MaxCardsNormal is the card ceiling of a column without a fixed status.
	MaxCardsNormal = 20
	// MaxCardsFixed is the card ceiling of the in-progress and done columns.
	MaxCardsFixed = 100
)

var (
	ErrFlowViolation = errors.New("move not allowed by kanban flow")
	ErrColumnFull    = errors.New("destination column is full")
	ErrUnknownColumn = errors.New("column status unknown")
)

// ParseStatus maps the stored representation to a Status. The empty string is
// treated as normal.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case "", StatusNormal:
		return StatusNormal, nil
	case StatusInProgress:
		return StatusInProgress, nil
	case StatusDone:
		return StatusDone, nil
	}
	return "", fmt.Errorf("invalid column status %q", s)
}

// Fixed reports whether the column is one of the flow-terminal columns.
func (s Status) Fixed() bool {
	return s == StatusInProgress || s == StatusDone
}

// Allowed reports whether a card may move from a column with status src to a
// column with status dst.
func Allowed(src, dst Status) bool {
	switch normalize(src) {
	case StatusDone:
		return false
	case StatusInProgress:
		return normalize(dst) == StatusDone
	default:
		return normalize(dst) != StatusDone
	}
}

// Capacity returns the maximum number of cards a column with the given status
// may hold.
func Capacity(s Status) int {
	if normalize(s).Fixed() {
		return MaxCardsFixed
	}
	return MaxCardsNormal
}

func normalize(s Status) Status {
	if s == "" {
		return StatusNormal
	}
	return s
}

// ColumnInfo is the slice of column metadata the gate needs.
type ColumnInfo struct {
	ID     uuid.UUID
	Status Status
}

// Gate evaluates cross-column moves against a column list supplied by the
// caller on every check.
type Gate struct {
	// AllowUnknown lets a move through when the source column is not in the
	// list. Off by default: an unresolved source is rejected. It is for
	// callers of Check that hold a partial column list; board.Protocol
	// resolves both columns on the loaded board first and uses the zero Gate.
	AllowUnknown bool
}

// Check validates a cross-column move of one card from src to dst, where dst
// currently holds dstCount cards. Same-column moves are never gated.
func (g Gate) Check(columns []ColumnInfo, src, dst uuid.UUID, dstCount int) error {
	if src == dst {
		return nil
	}

	srcInfo, srcOK := find(columns, src)
	dstInfo, dstOK := find(columns, dst)
	if !dstOK {
		return fmt.Errorf("%w: destination %s", ErrUnknownColumn, dst)
	}
	if !srcOK {
		if !g.AllowUnknown {
			return fmt.Errorf("%w: source %s", ErrUnknownColumn, src)
		}
	} else if !Allowed(srcInfo.Status, dstInfo.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrFlowViolation, normalize(srcInfo.Status), normalize(dstInfo.Status))
	}

	if dstCount >= Capacity(dstInfo.Status) {
		return fmt.Errorf("%w: %d of %d", ErrColumnFull, dstCount, Capacity(dstInfo.Status))
	}
	return nil
}

func find(columns []ColumnInfo, id uuid.UUID) (ColumnInfo, bool) {
	for _, c := range columns {
		if c.ID == id {
			return c, true
		}
	}
	return ColumnInfo{}, false
}
