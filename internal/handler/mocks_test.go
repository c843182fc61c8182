package handler_test

import (
	"context"
	"sync"

	"kanbanflow/internal/model"
	"kanbanflow/internal/realtime"
	"kanbanflow/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockBoardRepository struct{ mock.Mock }

func (m *MockBoardRepository) Create(ctx context.Context, board *model.Board) error {
	return m.Called(ctx, board).Error(0)
}

func (m *MockBoardRepository) GetOwned(ctx context.Context, ownerID uuid.UUID) ([]model.Board, error) {
	args := m.Called(ctx, ownerID)
	boards, _ := args.Get(0).([]model.Board)
	return boards, args.Error(1)
}

func (m *MockBoardRepository) CountOwned(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBoardRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Board, error) {
	args := m.Called(ctx, id)
	board, _ := args.Get(0).(*model.Board)
	return board, args.Error(1)
}

func (m *MockBoardRepository) Update(ctx context.Context, board *model.Board) error {
	return m.Called(ctx, board).Error(0)
}

func (m *MockBoardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockShareRepository struct{ mock.Mock }

func (m *MockShareRepository) ShareBoard(ctx context.Context, boardID, userID uuid.UUID, role string) error {
	return m.Called(ctx, boardID, userID, role).Error(0)
}

func (m *MockShareRepository) RemoveShare(ctx context.Context, boardID, userID uuid.UUID) error {
	return m.Called(ctx, boardID, userID).Error(0)
}

func (m *MockShareRepository) GetBoardShares(ctx context.Context, boardID uuid.UUID) ([]model.BoardShare, error) {
	args := m.Called(ctx, boardID)
	shares, _ := args.Get(0).([]model.BoardShare)
	return shares, args.Error(1)
}

func (m *MockShareRepository) GetSharedBoards(ctx context.Context, userID uuid.UUID) ([]model.Board, error) {
	args := m.Called(ctx, userID)
	boards, _ := args.Get(0).([]model.Board)
	return boards, args.Error(1)
}

func (m *MockShareRepository) CheckAccess(ctx context.Context, boardID, userID uuid.UUID, requiredRole string) (bool, error) {
	args := m.Called(ctx, boardID, userID, requiredRole)
	return args.Bool(0), args.Error(1)
}

type MockColumnRepository struct{ mock.Mock }

func (m *MockColumnRepository) Create(ctx context.Context, column *model.Column) error {
	return m.Called(ctx, column).Error(0)
}

func (m *MockColumnRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Column, error) {
	args := m.Called(ctx, id)
	column, _ := args.Get(0).(*model.Column)
	return column, args.Error(1)
}

func (m *MockColumnRepository) GetByBoardID(ctx context.Context, boardID uuid.UUID) ([]model.Column, error) {
	args := m.Called(ctx, boardID)
	columns, _ := args.Get(0).([]model.Column)
	return columns, args.Error(1)
}

func (m *MockColumnRepository) Update(ctx context.Context, column *model.Column) error {
	return m.Called(ctx, column).Error(0)
}

func (m *MockColumnRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockColumnRepository) GetMaxPosition(ctx context.Context, boardID uuid.UUID) (int, error) {
	args := m.Called(ctx, boardID)
	return args.Int(0), args.Error(1)
}

func (m *MockColumnRepository) ReorderColumns(ctx context.Context, boardID uuid.UUID, items []repository.Placement) error {
	return m.Called(ctx, boardID, items).Error(0)
}

type MockTaskRepository struct{ mock.Mock }

func (m *MockTaskRepository) Create(ctx context.Context, task *model.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, id)
	task, _ := args.Get(0).(*model.Task)
	return task, args.Error(1)
}

func (m *MockTaskRepository) GetByColumnID(ctx context.Context, columnID uuid.UUID) ([]model.Task, error) {
	args := m.Called(ctx, columnID)
	tasks, _ := args.Get(0).([]model.Task)
	return tasks, args.Error(1)
}

func (m *MockTaskRepository) CountByColumnID(ctx context.Context, columnID uuid.UUID) (int64, error) {
	args := m.Called(ctx, columnID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, task *model.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTaskRepository) BulkReorder(ctx context.Context, columnID uuid.UUID, items []repository.Placement, expectedVersion int64) (repository.ColumnVersion, error) {
	args := m.Called(ctx, columnID, items, expectedVersion)
	return args.Get(0).(repository.ColumnVersion), args.Error(1)
}

func (m *MockTaskRepository) MoveTask(ctx context.Context, taskID, columnID uuid.UUID, newPosition int, sourceVersion, targetVersion int64) (repository.MoveResult, error) {
	args := m.Called(ctx, taskID, columnID, newPosition, sourceVersion, targetVersion)
	res, _ := args.Get(0).(repository.MoveResult)
	return res, args.Error(1)
}

func (m *MockTaskRepository) AssignUser(ctx context.Context, taskID, userID uuid.UUID) error {
	return m.Called(ctx, taskID, userID).Error(0)
}

func (m *MockTaskRepository) UnassignUser(ctx context.Context, taskID uuid.UUID) error {
	return m.Called(ctx, taskID).Error(0)
}

type MockUserStore struct{ mock.Mock }

func (m *MockUserStore) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

// countStore serves both the comment and attachment counts.
type countStore struct {
	counts map[uuid.UUID]int
}

func (s countStore) CountByTasks(_ context.Context, _ []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out, nil
}

type stubCommentStore struct{ countStore }

func (stubCommentStore) Create(context.Context, *model.Comment) error { return nil }
func (stubCommentStore) GetByID(context.Context, uuid.UUID) (*model.Comment, error) {
	return nil, repository.ErrCommentNotFound
}
func (stubCommentStore) ListByTask(context.Context, uuid.UUID) ([]model.Comment, error) {
	return nil, nil
}
func (stubCommentStore) Delete(context.Context, uuid.UUID) error { return nil }

type stubAttachmentStore struct{ countStore }

func (stubAttachmentStore) Create(context.Context, *model.Attachment) error { return nil }
func (stubAttachmentStore) GetByID(context.Context, uuid.UUID) (*model.Attachment, error) {
	return nil, repository.ErrAttachmentNotFound
}
func (stubAttachmentStore) ListByTask(context.Context, uuid.UUID) ([]model.Attachment, error) {
	return nil, nil
}
func (stubAttachmentStore) Delete(context.Context, uuid.UUID) error { return nil }

type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *recordingPublisher) Publish(e realtime.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}
