package entity

import "time"

// Project 项目（一个工程合同）
type Project struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	Code        string    `json:"code" gorm:"size:32;uniqueIndex;not null"` // PRJ-2026-0001
	Name        string    `json:"name" gorm:"size:200;not null"`
	Status      string    `json:"status" gorm:"size:20;default:active"` // active/on_hold/completed/cancelled
	ClientName  string    `json:"client_name" gorm:"size:200"`
	ClientEmail string    `json:"client_email" gorm:"size:200"`
	ManagerID   string    `json:"manager_id" gorm:"size:32;index"`
	CreatedBy   string    `json:"created_by" gorm:"size:32"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Manager *User `json:"manager,omitempty" gorm:"foreignKey:ManagerID"`
}

func (Project) TableName() string {
	return "projects"
}
