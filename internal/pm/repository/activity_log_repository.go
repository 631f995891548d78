package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/keramy/formula-backend/internal/pm/entity"
	"gorm.io/gorm"
)

// ActivityLogRepository 操作日志仓库，只提供追加和查询
type ActivityLogRepository struct {
	db *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

// Append 追加一条操作日志（可在事务内调用）
func (r *ActivityLogRepository) Append(tx *gorm.DB, log *entity.ActivityLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()[:32]
	}
	return tx.Create(log).Error
}

// FindByEntity 查询某实体的操作日志，分页，按时间倒序
func (r *ActivityLogRepository) FindByEntity(ctx context.Context, entityType, entityID string, page, pageSize int) ([]entity.ActivityLog, int64, error) {
	var items []entity.ActivityLog
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.ActivityLog{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// CountByEntityAction 统计某实体某动作的日志条数
func (r *ActivityLogRepository) CountByEntityAction(ctx context.Context, entityType, entityID, action string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.ActivityLog{}).
		Where("entity_type = ? AND entity_id = ? AND action = ?", entityType, entityID, action).
		Count(&count).Error
	return count, err
}
