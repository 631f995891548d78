package entity

import "time"

// User 系统用户
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Username  string    `json:"username" gorm:"size:100;uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	Email     string    `json:"email" gorm:"size:200"`
	Role      string    `json:"role" gorm:"size:20;not null;default:production"`
	Status    string    `json:"status" gorm:"size:20;default:active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// 用户角色
const (
	RoleAdmin       = "admin"
	RolePM          = "pm"
	RoleProduction  = "production"
	RoleProcurement = "procurement"
	RoleManagement  = "management"
	RoleClient      = "client"
)

// ValidRole 角色是否合法
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RolePM, RoleProduction, RoleProcurement, RoleManagement, RoleClient:
		return true
	}
	return false
}
