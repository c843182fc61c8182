package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kanbanflow/internal/flow"
	"kanbanflow/internal/model"
)

var (
	ErrTaskNotFound = errors.New("task not found")
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create adds a new task to the database
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// GetByID retrieves a task by its ID
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).Preload("Assignee").First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// GetByColumnID retrieves all tasks in a specific column, ordered by position
func (r *TaskRepository) GetByColumnID(ctx context.Context, columnID uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	result := r.db.WithContext(ctx).
		Preload("Assignee").
		Where("column_id = ?", columnID).
		Order("position").
		Find(&tasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return tasks, nil
}

// CountByColumnID returns how many tasks a column holds
func (r *TaskRepository) CountByColumnID(ctx context.Context, columnID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Task{}).Where("column_id = ?", columnID).Count(&count).Error
	return count, err
}

// Update saves the editable fields of a task. Column and position only
// change through MoveTask and BulkReorder.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	result := r.db.WithContext(ctx).Model(task).
		Select("title", "description", "assigned_to", "due_date", "priority").
		Updates(task)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Delete removes a task and closes the gap it leaves in its column
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task model.Task
		if err := tx.First(&task, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return err
		}
		if err := tx.Delete(&model.Task{}, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Model(&model.Task{}).
			Where("column_id = ? AND position > ?", task.ColumnID, task.Position).
			Update("position", gorm.Expr("position - 1")).Error
	})
}

// BulkReorder writes the full order of one column. items must name every
// task of the column exactly once with positions 1..N. expectedVersion of
// zero skips the concurrency check and the last writer wins.
func (r *TaskRepository) BulkReorder(ctx context.Context, columnID uuid.UUID, items []Placement, expectedVersion int64) (ColumnVersion, error) {
	var rev ColumnVersion
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		columns, err := lockColumns(tx, columnID)
		if err != nil {
			return err
		}
		column := columns[columnID]
		if expectedVersion > 0 && column.Version != expectedVersion {
			return ErrStaleVersion
		}

		var total int64
		if err := tx.Model(&model.Task{}).Where("column_id = ?", columnID).Count(&total).Error; err != nil {
			return err
		}
		if int(total) != len(items) || !distinct(items) || !contiguous(items) {
			return ErrInvalidOrder
		}

		for _, item := range items {
			result := tx.Model(&model.Task{}).
				Where("id = ? AND column_id = ?", item.ID, columnID).
				Update("position", item.Position)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrInvalidOrder
			}
		}

		rev, err = bumpVersion(tx, column)
		return err
	})
	return rev, err
}

// MoveResult is the outcome of MoveTask: the position the task landed on
// after clamping, and the versions of the touched columns.
type MoveResult struct {
	Position  int
	Revisions []ColumnVersion
}

// MoveTask updates the position and/or column of a task. A cross-column move
// is checked against the kanban flow and the destination's capacity inside
// the same transaction that performs it.
func (r *TaskRepository) MoveTask(ctx context.Context, taskID, columnID uuid.UUID, newPosition int, sourceVersion, targetVersion int64) (MoveResult, error) {
	var res MoveResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := findTask(tx, taskID)
		if err != nil {
			return err
		}
		oldColumnID := task.ColumnID

		columns, err := lockColumns(tx, oldColumnID, columnID)
		if err != nil {
			return err
		}

		// A concurrent move may have committed between the read above and the
		// column locks. Once the source column is locked the task cannot leave
		// it, so re-read and give up if it already did.
		task, err = findTask(tx, taskID)
		if err != nil {
			return err
		}
		if task.ColumnID != oldColumnID {
			return ErrStaleVersion
		}
		oldPosition := task.Position
		source, target := columns[oldColumnID], columns[columnID]
		if sourceVersion > 0 && source.Version != sourceVersion {
			return ErrStaleVersion
		}
		if targetVersion > 0 && target.Version != targetVersion {
			return ErrStaleVersion
		}

		if oldColumnID != columnID {
			if source.BoardID != target.BoardID {
				return ErrCrossBoardMove
			}

			var count int64
			if err := tx.Model(&model.Task{}).Where("column_id = ?", columnID).Count(&count).Error; err != nil {
				return err
			}
			infos := []flow.ColumnInfo{
				{ID: source.ID, Status: flow.Status(source.FlowStatus)},
				{ID: target.ID, Status: flow.Status(target.FlowStatus)},
			}
			if err := (flow.Gate{}).Check(infos, source.ID, target.ID, int(count)); err != nil {
				return err
			}
			newPosition = clampPosition(newPosition, int(count)+1)

			// Close the gap in the old column
			if err := tx.Model(&model.Task{}).
				Where("column_id = ? AND position > ?", oldColumnID, oldPosition).
				Update("position", gorm.Expr("position - 1")).Error; err != nil {
				return err
			}

			// Make space in the new column
			if err := tx.Model(&model.Task{}).
				Where("column_id = ? AND position >= ?", columnID, newPosition).
				Update("position", gorm.Expr("position + 1")).Error; err != nil {
				return err
			}

			task.ColumnID = columnID
			task.Position = newPosition
		} else {
			var count int64
			if err := tx.Model(&model.Task{}).Where("column_id = ?", columnID).Count(&count).Error; err != nil {
				return err
			}
			newPosition = clampPosition(newPosition, int(count))

			if oldPosition < newPosition {
				if err := tx.Model(&model.Task{}).
					Where("column_id = ? AND position > ? AND position <= ?", columnID, oldPosition, newPosition).
					Update("position", gorm.Expr("position - 1")).Error; err != nil {
					return err
				}
			} else if oldPosition > newPosition {
				if err := tx.Model(&model.Task{}).
					Where("column_id = ? AND position >= ? AND position < ?", columnID, newPosition, oldPosition).
					Update("position", gorm.Expr("position + 1")).Error; err != nil {
					return err
				}
			}
			task.Position = newPosition
		}

		if err := tx.Model(&model.Task{}).Where("id = ?", task.ID).
			Updates(map[string]any{"column_id": task.ColumnID, "position": task.Position}).Error; err != nil {
			return err
		}

		for _, id := range uniqueIDs(oldColumnID, columnID) {
			rev, err := bumpVersion(tx, columns[id])
			if err != nil {
				return fmt.Errorf("bump version of column %s: %w", id, err)
			}
			res.Revisions = append(res.Revisions, rev)
		}
		res.Position = task.Position
		return nil
	})
	return res, err
}

func findTask(tx *gorm.DB, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	if err := tx.First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

// AssignUser assigns a user to a task
func (r *TaskRepository) AssignUser(ctx context.Context, taskID, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", taskID).
		Update("assigned_to", userID)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// UnassignUser removes user assignment from a task
func (r *TaskRepository) UnassignUser(ctx context.Context, taskID uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", taskID).
		Update("assigned_to", nil)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func clampPosition(pos, last int) int {
	if last < 1 {
		return 1
	}
	return max(1, min(pos, last))
}

func distinct(items []Placement) bool {
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		if _, dup := seen[item.ID]; dup {
			return false
		}
		seen[item.ID] = struct{}{}
	}
	return true
}

// contiguous reports whether the positions are exactly 1..len(items).
func contiguous(items []Placement) bool {
	positions := make([]int, len(items))
	for i, item := range items {
		positions[i] = item.Position
	}
	slices.Sort(positions)
	for i, p := range positions {
		if p != i+1 {
			return false
		}
	}
	return true
}

func uniqueIDs(a, b uuid.UUID) []uuid.UUID {
	if a == b {
		return []uuid.UUID{a}
	}
	return []uuid.UUID{a, b}
}
