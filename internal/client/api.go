package client

import (
	"context"
	"net/http"
	"net/url"

	"kanbanflow/internal/board"

	"github.com/google/uuid"
)

var (
	_ board.Persister = (*Client)(nil)
	_ board.Source    = (*Client)(nil)
)

// Login exchanges credentials for a token and keeps it for later requests.
func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/login", credentials{Email: email, Password: password}, &resp); err != nil {
		return User{}, err
	}
	c.token = resp.Token
	return resp.User, nil
}

func (c *Client) Register(ctx context.Context, name, email, password string) (User, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/register", credentials{Name: name, Email: email, Password: password}, &resp); err != nil {
		return User{}, err
	}
	c.token = resp.Token
	return resp.User, nil
}

// ListBoards returns owned boards followed by the ones shared with the user.
func (c *Client) ListBoards(ctx context.Context) ([]BoardSummary, error) {
	var owned, shared []BoardSummary
	if err := c.do(ctx, http.MethodGet, "/boards", nil, &owned); err != nil {
		return nil, err
	}
	if err := c.do(ctx, http.MethodGet, "/shared-boards", nil, &shared); err != nil {
		return nil, err
	}
	return append(owned, shared...), nil
}

func (c *Client) BoardName(ctx context.Context, boardID uuid.UUID) (string, error) {
	var b BoardSummary
	if err := c.do(ctx, http.MethodGet, "/boards/"+boardID.String(), nil, &b); err != nil {
		return "", err
	}
	return b.Title, nil
}

func (c *Client) ListColumns(ctx context.Context, boardID uuid.UUID) ([]board.Column, error) {
	var dtos []columnDTO
	if err := c.do(ctx, http.MethodGet, "/boards/"+boardID.String()+"/columns", nil, &dtos); err != nil {
		return nil, err
	}
	columns := make([]board.Column, len(dtos))
	for i, dto := range dtos {
		col, err := dto.column()
		if err != nil {
			return nil, err
		}
		columns[i] = col
	}
	return columns, nil
}

func (c *Client) ListCards(ctx context.Context, columnID uuid.UUID) ([]board.Card, error) {
	var dtos []taskDTO
	if err := c.do(ctx, http.MethodGet, "/columns/"+columnID.String()+"/tasks", nil, &dtos); err != nil {
		return nil, err
	}
	cards := make([]board.Card, len(dtos))
	for i, dto := range dtos {
		card, err := dto.card()
		if err != nil {
			return nil, err
		}
		cards[i] = card
	}
	return cards, nil
}

func (c *Client) ReorderTasks(ctx context.Context, req board.ReorderRequest) (board.Revision, error) {
	var rev revisionDTO
	err := c.do(ctx, http.MethodPost, "/tasks/bulk/reorder", reorderDTO{
		ColumnID:        req.ColumnID.String(),
		Items:           toPlacements(req.Items),
		ExpectedVersion: req.ExpectedVersion,
	}, &rev)
	if err != nil {
		return board.Revision{}, err
	}
	return rev.revision()
}

func (c *Client) MoveTask(ctx context.Context, req board.MoveRequest) ([]board.Revision, error) {
	var resp struct {
		Revisions []revisionDTO `json:"revisions"`
	}
	err := c.do(ctx, http.MethodPost, "/tasks/"+req.TaskID.String()+"/move", moveDTO{
		ColumnID:      req.ColumnID.String(),
		Position:      req.Position,
		SourceVersion: req.SourceVersion,
		TargetVersion: req.TargetVersion,
	}, &resp)
	if err != nil {
		return nil, err
	}

	revs := make([]board.Revision, len(resp.Revisions))
	for i, dto := range resp.Revisions {
		rev, err := dto.revision()
		if err != nil {
			return nil, err
		}
		revs[i] = rev
	}
	return revs, nil
}

func (c *Client) ReorderColumns(ctx context.Context, boardID uuid.UUID, items []board.Placement) error {
	body := struct {
		Columns []placementDTO `json:"columns"`
	}{Columns: toPlacements(items)}
	return c.do(ctx, http.MethodPost, "/boards/"+boardID.String()+"/columns/reorder", body, nil)
}

// CreateCard creates a task at the bottom of its column.
func (c *Client) CreateCard(ctx context.Context, in CardInput) (board.Card, error) {
	var dto taskDTO
	if err := c.do(ctx, http.MethodPost, "/tasks", in, &dto); err != nil {
		return board.Card{}, err
	}
	return dto.card()
}

func (c *Client) UpdateCard(ctx context.Context, id uuid.UUID, in CardInput) (board.Card, error) {
	var dto taskDTO
	if err := c.do(ctx, http.MethodPut, "/tasks/"+id.String(), in, &dto); err != nil {
		return board.Card{}, err
	}
	return dto.card()
}

func (c *Client) DeleteCard(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id.String()), nil, nil)
}
