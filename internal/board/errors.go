package board

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedDrop marks a drop event that references unknown columns or
	// out-of-range indices. Nothing is mutated and nothing is sent.
	ErrMalformedDrop  = errors.New("malformed drop")
	ErrColumnNotFound = errors.New("column not found")
	ErrCardNotFound   = errors.New("card not found")
)

// SyncError reports that a move was confirmed but one or more follow-up
// position writes failed. Local state is kept: the card did move.
type SyncError struct {
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("card moved but positions not fully persisted: %v", e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}
