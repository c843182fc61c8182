package repository

import (
	"errors"

	"github.com/google/uuid"
)

// Common repository errors
var (
	// ErrBoardNotFound is returned when a board is not found
	ErrBoardNotFound = errors.New("board not found")

	// ErrColumnNotFound is returned when a column referenced by a write does not exist
	ErrColumnNotFound = errors.New("column not found")

	// ErrStaleVersion is returned when a write carries an expected column
	// version that no longer matches the stored one
	ErrStaleVersion = errors.New("column was modified concurrently")

	// ErrInvalidOrder is returned when a bulk reorder names tasks that are not
	// exactly the tasks of the column
	ErrInvalidOrder = errors.New("order does not match the column's tasks")

	// ErrCrossBoardMove is returned when a task would leave its board
	ErrCrossBoardMove = errors.New("cannot move task to a column from another board")
)

// Placement is one (id, position) pair of a bulk reorder.
type Placement struct {
	ID       uuid.UUID
	Position int
}

// ColumnVersion is the version a column reached after a write.
type ColumnVersion struct {
	ColumnID uuid.UUID
	Version  int64
}
