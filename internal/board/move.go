package board

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Drop is a drag-release event as delivered by the UI: the containers the card
// left and landed in, and its index in each.
type Drop struct {
	FromColumn uuid.UUID
	ToColumn   uuid.UUID
	FromIndex  int
	ToIndex    int
}

// Move is a card relocation that has been resolved against board state.
type Move struct {
	CardID    uuid.UUID
	From      uuid.UUID
	To        uuid.UUID
	FromIndex int
	ToIndex   int
}

func (m Move) SameColumn() bool {
	return m.From == m.To
}

// Inverse returns the move that undoes m.
func (m Move) Inverse() Move {
	return Move{
		CardID:    m.CardID,
		From:      m.To,
		To:        m.From,
		FromIndex: m.ToIndex,
		ToIndex:   m.FromIndex,
	}
}

// resolve validates d against the current arrays. Caller holds b.mu.
func (b *Board) resolve(d Drop) (Move, error) {
	src := b.column(d.FromColumn)
	if src == nil {
		return Move{}, fmt.Errorf("%w: unknown source column %s", ErrMalformedDrop, d.FromColumn)
	}
	dst := b.column(d.ToColumn)
	if dst == nil {
		return Move{}, fmt.Errorf("%w: unknown destination column %s", ErrMalformedDrop, d.ToColumn)
	}
	if d.FromIndex < 0 || d.FromIndex >= len(src.Cards) {
		return Move{}, fmt.Errorf("%w: source index %d out of range [0,%d)", ErrMalformedDrop, d.FromIndex, len(src.Cards))
	}

	limit := len(dst.Cards)
	if src == dst {
		limit--
	}
	if d.ToIndex < 0 || d.ToIndex > limit {
		return Move{}, fmt.Errorf("%w: destination index %d out of range [0,%d]", ErrMalformedDrop, d.ToIndex, limit)
	}

	return Move{
		CardID:    src.Cards[d.FromIndex].ID,
		From:      src.ID,
		To:        dst.ID,
		FromIndex: d.FromIndex,
		ToIndex:   d.ToIndex,
	}, nil
}

// apply performs m on the arrays and renumbers the touched columns. The card
// is looked up by id when it is no longer at m.FromIndex, which happens when
// another drop on the same column landed in between. Caller holds b.mu.
func (b *Board) apply(m Move) error {
	src := b.column(m.From)
	dst := b.column(m.To)
	if src == nil || dst == nil {
		return ErrColumnNotFound
	}

	from := m.FromIndex
	if from < 0 || from >= len(src.Cards) || src.Cards[from].ID != m.CardID {
		from = src.indexOf(m.CardID)
		if from < 0 {
			return fmt.Errorf("%w: %s in column %s", ErrCardNotFound, m.CardID, src.ID)
		}
	}

	card := src.Cards[from]
	if src == dst {
		src.Cards = rotate(src.Cards, from, clamp(m.ToIndex, 0, len(src.Cards)-1))
		src.renumber()
		return nil
	}

	src.Cards = slices.Delete(src.Cards, from, from+1)
	dst.Cards = slices.Insert(dst.Cards, clamp(m.ToIndex, 0, len(dst.Cards)), card)
	src.renumber()
	dst.renumber()
	return nil
}

// rotate moves the element at from to index to, shifting the ones between.
func rotate[T any](s []T, from, to int) []T {
	if from == to {
		return s
	}
	v := s[from]
	s = slices.Delete(s, from, from+1)
	return slices.Insert(s, to, v)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
