package board

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Source reads a board from the backend.
type Source interface {
	BoardName(ctx context.Context, boardID uuid.UUID) (string, error)
	ListColumns(ctx context.Context, boardID uuid.UUID) ([]Column, error)
	ListCards(ctx context.Context, columnID uuid.UUID) ([]Card, error)
}

// maxParallelFetch bounds the concurrent per-column card requests on load.
const maxParallelFetch = 4

// Load fetches a board with all its columns and cards.
func Load(ctx context.Context, src Source, boardID uuid.UUID) (*Board, error) {
	name, err := src.BoardName(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("load board %s: %w", boardID, err)
	}
	columns, err := fetchColumns(ctx, src, boardID)
	if err != nil {
		return nil, err
	}
	return New(boardID, name, columns), nil
}

// Reload replaces the board's columns with a fresh copy from src.
func Reload(ctx context.Context, src Source, b *Board) error {
	columns, err := fetchColumns(ctx, src, b.ID)
	if err != nil {
		return err
	}
	b.Replace(columns)
	return nil
}

func fetchColumns(ctx context.Context, src Source, boardID uuid.UUID) ([]*Column, error) {
	cols, err := src.ListColumns(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("list columns of board %s: %w", boardID, err)
	}
	slices.SortStableFunc(cols, func(a, b Column) int { return a.Position - b.Position })

	columns := make([]*Column, len(cols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetch)
	for i := range cols {
		col := cols[i]
		columns[i] = &col
		g.Go(func() error {
			cards, err := src.ListCards(gctx, col.ID)
			if err != nil {
				return fmt.Errorf("list cards of column %s: %w", col.ID, err)
			}
			slices.SortStableFunc(cards, func(a, b Card) int { return a.Position - b.Position })
			ptrs := make([]*Card, len(cards))
			for j := range cards {
				ptrs[j] = &cards[j]
			}
			columns[i].Cards = ptrs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return columns, nil
}
