package repository

import (
	"context"
	"errors"

	"github.com/keramy/formula-backend/internal/pm/entity"
	"gorm.io/gorm"
)

type RevisionRepository struct {
	db *gorm.DB
}

func NewRevisionRepository(db *gorm.DB) *RevisionRepository {
	return &RevisionRepository{db: db}
}

// FindByDrawingAndLetter 查找图纸的某个修订版
func (r *RevisionRepository) FindByDrawingAndLetter(ctx context.Context, drawingID, letter string) (*entity.Revision, error) {
	var rev entity.Revision
	err := r.db.WithContext(ctx).
		First(&rev, "drawing_id = ? AND revision_letter = ?", drawingID, letter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rev, nil
}

// ListByDrawing 获取图纸的全部修订版，按字母升序
func (r *RevisionRepository) ListByDrawing(ctx context.Context, drawingID string) ([]entity.Revision, error) {
	var revs []entity.Revision
	err := r.db.WithContext(ctx).
		Preload("Uploader").
		Where("drawing_id = ?", drawingID).
		Order("length(revision_letter) ASC, revision_letter ASC").
		Find(&revs).Error
	return revs, err
}
