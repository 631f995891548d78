package repository

import (
	"context"
	"errors"

	"github.com/keramy/formula-backend/internal/pm/entity"
	"gorm.io/gorm"
)

type DrawingRepository struct {
	db *gorm.DB
}

func NewDrawingRepository(db *gorm.DB) *DrawingRepository {
	return &DrawingRepository{db: db}
}

// FindByID 根据ID查找图纸
func (r *DrawingRepository) FindByID(ctx context.Context, id string) (*entity.Drawing, error) {
	var drawing entity.Drawing
	err := r.db.WithContext(ctx).First(&drawing, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &drawing, nil
}

// FindByScopeItem 根据范围条目查找图纸，不存在返回nil
func (r *DrawingRepository) FindByScopeItem(ctx context.Context, scopeItemID string) (*entity.Drawing, error) {
	var drawing entity.Drawing
	err := r.db.WithContext(ctx).First(&drawing, "scope_item_id = ?", scopeItemID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &drawing, nil
}

// FindByScopeItemWithRevisions 带修订版列表查找图纸
func (r *DrawingRepository) FindByScopeItemWithRevisions(ctx context.Context, scopeItemID string) (*entity.Drawing, error) {
	var drawing entity.Drawing
	err := r.db.WithContext(ctx).
		Preload("Revisions", func(db *gorm.DB) *gorm.DB {
			return db.Order("length(revision_letter) ASC, revision_letter ASC")
		}).
		Preload("Revisions.Uploader").
		First(&drawing, "scope_item_id = ?", scopeItemID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &drawing, nil
}

// ListByIDs 批量查找图纸
func (r *DrawingRepository) ListByIDs(ctx context.Context, ids []string) ([]entity.Drawing, error) {
	var drawings []entity.Drawing
	if len(ids) == 0 {
		return drawings, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&drawings).Error
	return drawings, err
}

// UpdateStatusGuarded 带乐观前置条件的状态更新：只有当前状态仍为expected时才生效
// 返回实际更新行数，0表示前置条件已被并发写入者破坏
func (r *DrawingRepository) UpdateStatusGuarded(tx *gorm.DB, drawingID string, expected entity.DrawingStatus, updates map[string]interface{}) (int64, error) {
	result := tx.Model(&entity.Drawing{}).
		Where("id = ? AND status = ?", drawingID, expected).
		Updates(updates)
	return result.RowsAffected, result.Error
}
