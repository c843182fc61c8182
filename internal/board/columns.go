package board

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// ColumnMove reorders the board's columns. ColumnID is filled in by
// MoveColumn and identifies the moved column when undoing it.
type ColumnMove struct {
	ColumnID  uuid.UUID
	FromIndex int
	ToIndex   int
}

func (b *Board) applyColumns(m ColumnMove) {
	b.columns = rotate(b.columns, m.FromIndex, m.ToIndex)
	for i, col := range b.columns {
		col.Position = i + 1
	}
}

// MoveColumn rotates a column to a new index and persists the full column
// order. The board is restored on failure.
func (p *Protocol) MoveColumn(ctx context.Context, m ColumnMove) error {
	b := p.board
	b.mu.Lock()
	n := len(b.columns)
	if m.FromIndex < 0 || m.FromIndex >= n || m.ToIndex < 0 || m.ToIndex >= n {
		b.mu.Unlock()
		err := fmt.Errorf("%w: column move %d -> %d with %d columns", ErrMalformedDrop, m.FromIndex, m.ToIndex, n)
		p.logger.Warn("column drop ignored", "board_id", b.ID, "error", err)
		return err
	}
	if m.FromIndex == m.ToIndex {
		b.mu.Unlock()
		return nil
	}
	m.ColumnID = b.columns[m.FromIndex].ID
	b.applyColumns(m)
	items := make([]Placement, n)
	for i, col := range b.columns {
		items[i] = Placement{ID: col.ID, Position: col.Position}
	}
	b.mu.Unlock()

	if err := p.store.ReorderColumns(ctx, b.ID, items); err != nil {
		p.undoColumnMove(m, err)
		return fmt.Errorf("reorder columns: %w", err)
	}
	return nil
}

// undoColumnMove puts the moved column back at its original index. The board
// may have been replaced while the write was in flight, so the column is
// looked up by id and the undo is skipped when it no longer exists.
func (p *Protocol) undoColumnMove(m ColumnMove, cause error) {
	b := p.board
	b.mu.Lock()
	defer b.mu.Unlock()

	at := slices.IndexFunc(b.columns, func(col *Column) bool { return col.ID == m.ColumnID })
	if at < 0 {
		p.logger.Error("column rollback skipped", "board_id", b.ID, "column_id", m.ColumnID, "cause", cause)
		return
	}
	to := min(m.FromIndex, len(b.columns)-1)
	b.applyColumns(ColumnMove{ColumnID: m.ColumnID, FromIndex: at, ToIndex: to})
	p.logger.Warn("column drop rolled back", "board_id", b.ID, "column_id", m.ColumnID, "cause", cause)
}
