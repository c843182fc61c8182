package handler

import (
	"context"
	"net/http"

	"kanbanflow/internal/model"
	"kanbanflow/internal/realtime"
	"kanbanflow/internal/repository"

	"github.com/google/uuid"
)

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type BoardStore interface {
	Create(ctx context.Context, board *model.Board) error
	GetOwned(ctx context.Context, ownerID uuid.UUID) ([]model.Board, error)
	CountOwned(ctx context.Context, ownerID uuid.UUID) (int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Board, error)
	Update(ctx context.Context, board *model.Board) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ShareStore interface {
	ShareBoard(ctx context.Context, boardID, userID uuid.UUID, role string) error
	RemoveShare(ctx context.Context, boardID, userID uuid.UUID) error
	GetBoardShares(ctx context.Context, boardID uuid.UUID) ([]model.BoardShare, error)
	GetSharedBoards(ctx context.Context, userID uuid.UUID) ([]model.Board, error)
	CheckAccess(ctx context.Context, boardID, userID uuid.UUID, requiredRole string) (bool, error)
}

type ColumnStore interface {
	Create(ctx context.Context, column *model.Column) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Column, error)
	GetByBoardID(ctx context.Context, boardID uuid.UUID) ([]model.Column, error)
	Update(ctx context.Context, column *model.Column) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetMaxPosition(ctx context.Context, boardID uuid.UUID) (int, error)
	ReorderColumns(ctx context.Context, boardID uuid.UUID, items []repository.Placement) error
}

type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	GetByColumnID(ctx context.Context, columnID uuid.UUID) ([]model.Task, error)
	CountByColumnID(ctx context.Context, columnID uuid.UUID) (int64, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	BulkReorder(ctx context.Context, columnID uuid.UUID, items []repository.Placement, expectedVersion int64) (repository.ColumnVersion, error)
	MoveTask(ctx context.Context, taskID, columnID uuid.UUID, newPosition int, sourceVersion, targetVersion int64) (repository.MoveResult, error)
	AssignUser(ctx context.Context, taskID, userID uuid.UUID) error
	UnassignUser(ctx context.Context, taskID uuid.UUID) error
}

type CommentStore interface {
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Comment, error)
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]model.Comment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountByTasks(ctx context.Context, taskIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

type AttachmentStore interface {
	Create(ctx context.Context, attachment *model.Attachment) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Attachment, error)
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]model.Attachment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountByTasks(ctx context.Context, taskIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

// Publisher receives board change notifications after successful writes.
type Publisher interface {
	Publish(e realtime.Event)
}

// EventStream upgrades a request into a subscription to one board.
type EventStream interface {
	Serve(w http.ResponseWriter, r *http.Request, boardID uuid.UUID) error
}

type discardPublisher struct{}

func (discardPublisher) Publish(realtime.Event) {}
