package repository

import "gorm.io/gorm"

// Repositories 仓库集合
type Repositories struct {
	User        *UserRepository
	Project     *ProjectRepository
	ScopeItem   *ScopeItemRepository
	Drawing     *DrawingRepository
	Revision    *RevisionRepository
	ActivityLog *ActivityLogRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		Project:     NewProjectRepository(db),
		ScopeItem:   NewScopeItemRepository(db),
		Drawing:     NewDrawingRepository(db),
		Revision:    NewRevisionRepository(db),
		ActivityLog: NewActivityLogRepository(db),
	}
}
