// Package board keeps the in-memory state of one Kanban board and applies the
// optimistic reorder/move protocol to it.
package board

import (
	"slices"
	"sync"
	"time"

	"kanbanflow/internal/flow"

	"github.com/google/uuid"
)

type Priority string

const (
	PriorityNone   Priority = "none"
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type Assignee struct {
	ID   uuid.UUID
	Name string
}

type Card struct {
	ID          uuid.UUID
	ColumnID    uuid.UUID
	Title       string
	Description string
	Assignee    *Assignee
	DueDate     *time.Time
	Priority    Priority
	Position    int
	Comments    int
	Attachments int
}

type Column struct {
	ID       uuid.UUID
	Name     string
	Color    string
	Status   flow.Status
	Position int
	// Version is the sequence token the backend returned for the column's
	// last persisted ordering.
	Version int64
	Cards   []*Card
}

// Board is safe for concurrent use. Persistence calls never run while the
// lock is held, so overlapping drops on the same column can interleave.
type Board struct {
	ID   uuid.UUID
	Name string

	mu      sync.Mutex
	columns []*Column
}

// New builds a board from already ordered columns.
func New(id uuid.UUID, name string, columns []*Column) *Board {
	return &Board{ID: id, Name: name, columns: columns}
}

// Snapshot returns a deep copy of the columns and their cards.
func (b *Board) Snapshot() []Column {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Column, len(b.columns))
	for i, col := range b.columns {
		c := *col
		c.Cards = make([]*Card, len(col.Cards))
		for j, card := range col.Cards {
			cp := *card
			c.Cards[j] = &cp
		}
		out[i] = c
	}
	return out
}

// ColumnInfos returns the metadata the flow gate is evaluated against.
func (b *Board) ColumnInfos() []flow.ColumnInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.columnInfos()
}

func (b *Board) columnInfos() []flow.ColumnInfo {
	infos := make([]flow.ColumnInfo, len(b.columns))
	for i, col := range b.columns {
		infos[i] = flow.ColumnInfo{ID: col.ID, Status: col.Status}
	}
	return infos
}

// Replace swaps every column at once, as a reload does.
func (b *Board) Replace(columns []*Column) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.columns = columns
}

// AddCard appends a newly created card to the end of its column.
func (b *Board) AddCard(card Card) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	col := b.column(card.ColumnID)
	if col == nil {
		return ErrColumnNotFound
	}
	c := card
	col.Cards = append(col.Cards, &c)
	col.renumber()
	return nil
}

// UpdateCard overwrites the editable fields of a card in place.
func (b *Board) UpdateCard(card Card) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	existing, _, _ := b.locate(card.ID)
	if existing == nil {
		return ErrCardNotFound
	}
	existing.Title = card.Title
	existing.Description = card.Description
	existing.Assignee = card.Assignee
	existing.DueDate = card.DueDate
	existing.Priority = card.Priority
	existing.Comments = card.Comments
	existing.Attachments = card.Attachments
	return nil
}

// RemoveCard drops a deleted card and closes the gap in its column.
func (b *Board) RemoveCard(id uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, col, idx := b.locate(id)
	if col == nil {
		return ErrCardNotFound
	}
	col.Cards = slices.Delete(col.Cards, idx, idx+1)
	col.renumber()
	return nil
}

func (b *Board) column(id uuid.UUID) *Column {
	for _, col := range b.columns {
		if col.ID == id {
			return col
		}
	}
	return nil
}

func (b *Board) locate(cardID uuid.UUID) (*Card, *Column, int) {
	for _, col := range b.columns {
		if i := col.indexOf(cardID); i >= 0 {
			return col.Cards[i], col, i
		}
	}
	return nil, nil, -1
}

func (b *Board) setVersions(revs ...Revision) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, rev := range revs {
		if col := b.column(rev.ColumnID); col != nil && rev.Version > col.Version {
			col.Version = rev.Version
		}
	}
}

func (c *Column) indexOf(cardID uuid.UUID) int {
	return slices.IndexFunc(c.Cards, func(card *Card) bool { return card.ID == cardID })
}

// renumber re-establishes 1..N positions from array order.
func (c *Column) renumber() {
	for i, card := range c.Cards {
		card.Position = i + 1
		card.ColumnID = c.ID
	}
}

func (c *Column) placements() []Placement {
	items := make([]Placement, len(c.Cards))
	for i, card := range c.Cards {
		items[i] = Placement{ID: card.ID, Position: card.Position}
	}
	return items
}
