package repository

import (
	"context"
	"errors"

	"github.com/keramy/formula-backend/internal/pm/entity"
	"gorm.io/gorm"
)

type ScopeItemRepository struct {
	db *gorm.DB
}

func NewScopeItemRepository(db *gorm.DB) *ScopeItemRepository {
	return &ScopeItemRepository{db: db}
}

// FindByID 根据ID查找范围条目
func (r *ScopeItemRepository) FindByID(ctx context.Context, id string) (*entity.ScopeItem, error) {
	var item entity.ScopeItem
	err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// Create 创建范围条目
func (r *ScopeItemRepository) Create(ctx context.Context, item *entity.ScopeItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// ListByProject 获取项目下带图纸的范围条目列表
func (r *ScopeItemRepository) ListByProject(ctx context.Context, projectID string) ([]entity.ScopeItem, error) {
	var items []entity.ScopeItem
	err := r.db.WithContext(ctx).
		Preload("Drawing").
		Where("project_id = ?", projectID).
		Order("code ASC").
		Find(&items).Error
	return items, err
}
