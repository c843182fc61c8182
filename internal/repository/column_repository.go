package repository

import (
	"context"
	"errors"

	"kanbanflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ColumnRepository struct {
	db *gorm.DB
}

func NewColumnRepository(db *gorm.DB) *ColumnRepository {
	return &ColumnRepository{db: db}
}

func (r *ColumnRepository) Create(ctx context.Context, column *model.Column) error {
	return r.db.WithContext(ctx).Create(column).Error
}

func (r *ColumnRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Column, error) {
	var column model.Column
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&column).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &column, nil
}

func (r *ColumnRepository) GetByBoardID(ctx context.Context, boardID uuid.UUID) ([]model.Column, error) {
	var columns []model.Column
	err := r.db.WithContext(ctx).Where("board_id = ?", boardID).Order("position").Find(&columns).Error
	return columns, err
}

// Update saves title, color and status. Position and version are only
// changed through the reorder and move paths.
func (r *ColumnRepository) Update(ctx context.Context, column *model.Column) error {
	return r.db.WithContext(ctx).Model(column).
		Select("title", "color", "flow_status").
		Updates(column).Error
}

func (r *ColumnRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Column{}, "id = ?", id).Error
}

func (r *ColumnRepository) GetMaxPosition(ctx context.Context, boardID uuid.UUID) (int, error) {
	var maxPosition struct {
		Max int
	}
	err := r.db.WithContext(ctx).Model(&model.Column{}).
		Select("COALESCE(MAX(position), 0) as max").
		Where("board_id = ?", boardID).
		Scan(&maxPosition).Error

	return maxPosition.Max, err
}

// ReorderColumns rewrites the position of every listed column of a board.
func (r *ColumnRepository) ReorderColumns(ctx context.Context, boardID uuid.UUID, items []Placement) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			result := tx.Model(&model.Column{}).
				Where("id = ? AND board_id = ?", item.ID, boardID).
				Update("position", item.Position)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrColumnNotFound
			}
		}
		return nil
	})
}

// lockColumns loads the given columns with row locks, always in id order so
// two concurrent moves between the same pair cannot deadlock.
func lockColumns(tx *gorm.DB, ids ...uuid.UUID) (map[uuid.UUID]*model.Column, error) {
	var columns []model.Column
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&columns).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*model.Column, len(columns))
	for i := range columns {
		byID[columns[i].ID] = &columns[i]
	}
	for _, id := range ids {
		if byID[id] == nil {
			return nil, ErrColumnNotFound
		}
	}
	return byID, nil
}

func bumpVersion(tx *gorm.DB, column *model.Column) (ColumnVersion, error) {
	next := column.Version + 1
	if err := tx.Model(&model.Column{}).Where("id = ?", column.ID).Update("version", next).Error; err != nil {
		return ColumnVersion{}, err
	}
	column.Version = next
	return ColumnVersion{ColumnID: column.ID, Version: next}, nil
}
