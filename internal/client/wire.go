package client

import (
	"fmt"
	"time"

	"kanbanflow/internal/board"
	"kanbanflow/internal/flow"

	"github.com/google/uuid"
)

type credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type BoardSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	OwnerID     string `json:"owner_id"`
}

type columnDTO struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Color      string `json:"color"`
	FlowStatus string `json:"flow_status"`
	Position   int    `json:"position"`
	Version    int64  `json:"version"`
}

type taskDTO struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	ColumnID        string  `json:"column_id"`
	AssignedTo      *string `json:"assigned_to"`
	AssigneeName    *string `json:"assignee_name"`
	DueDate         *string `json:"due_date"`
	Priority        string  `json:"priority"`
	Position        int     `json:"position"`
	CommentCount    int     `json:"comment_count"`
	AttachmentCount int     `json:"attachment_count"`
}

type placementDTO struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
}

type reorderDTO struct {
	ColumnID        string         `json:"column_id"`
	Items           []placementDTO `json:"items"`
	ExpectedVersion int64          `json:"expected_version,omitempty"`
}

type moveDTO struct {
	ColumnID      string `json:"column_id"`
	Position      int    `json:"position"`
	SourceVersion int64  `json:"source_version,omitempty"`
	TargetVersion int64  `json:"target_version,omitempty"`
}

type revisionDTO struct {
	ColumnID string `json:"column_id"`
	Version  int64  `json:"version"`
}

// CardInput carries the fields of a card create or update.
type CardInput struct {
	ColumnID    string  `json:"column_id,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Priority    *string `json:"priority,omitempty"`
}

func toPlacements(items []board.Placement) []placementDTO {
	out := make([]placementDTO, len(items))
	for i, item := range items {
		out[i] = placementDTO{ID: item.ID.String(), Position: item.Position}
	}
	return out
}

func (r revisionDTO) revision() (board.Revision, error) {
	id, err := uuid.Parse(r.ColumnID)
	if err != nil {
		return board.Revision{}, fmt.Errorf("revision column id: %w", err)
	}
	return board.Revision{ColumnID: id, Version: r.Version}, nil
}

func (c columnDTO) column() (board.Column, error) {
	id, err := uuid.Parse(c.ID)
	if err != nil {
		return board.Column{}, fmt.Errorf("column id: %w", err)
	}
	status, err := flow.ParseStatus(c.FlowStatus)
	if err != nil {
		return board.Column{}, err
	}
	return board.Column{
		ID:       id,
		Name:     c.Title,
		Color:    c.Color,
		Status:   status,
		Position: c.Position,
		Version:  c.Version,
	}, nil
}

func (t taskDTO) card() (board.Card, error) {
	id, err := uuid.Parse(t.ID)
	if err != nil {
		return board.Card{}, fmt.Errorf("task id: %w", err)
	}
	columnID, err := uuid.Parse(t.ColumnID)
	if err != nil {
		return board.Card{}, fmt.Errorf("task column id: %w", err)
	}

	card := board.Card{
		ID:          id,
		ColumnID:    columnID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    board.Priority(t.Priority),
		Position:    t.Position,
		Comments:    t.CommentCount,
		Attachments: t.AttachmentCount,
	}
	if card.Priority == "" {
		card.Priority = board.PriorityNone
	}
	if t.AssignedTo != nil {
		assigneeID, err := uuid.Parse(*t.AssignedTo)
		if err != nil {
			return board.Card{}, fmt.Errorf("task assignee id: %w", err)
		}
		card.Assignee = &board.Assignee{ID: assigneeID}
		if t.AssigneeName != nil {
			card.Assignee.Name = *t.AssigneeName
		}
	}
	if t.DueDate != nil {
		due, err := time.Parse(time.RFC3339, *t.DueDate)
		if err != nil {
			return board.Card{}, fmt.Errorf("task due date: %w", err)
		}
		card.DueDate = &due
	}
	return card, nil
}
