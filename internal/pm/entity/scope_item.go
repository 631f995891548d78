package entity

import "time"

// ScopeItem 工作范围条目（项目中的一个制作单元，如一组定制柜体）
type ScopeItem struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	ProjectID   string    `json:"project_id" gorm:"size:32;not null;index"`
	Code        string    `json:"code" gorm:"size:32;not null"` // SI-001
	Name        string    `json:"name" gorm:"size:200;not null"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	Status      string    `json:"status" gorm:"size:20;not null;default:in_design"`
	Quantity    float64   `json:"quantity" gorm:"default:1"`
	Unit        string    `json:"unit" gorm:"size:20;default:pcs"`
	CreatedBy   string    `json:"created_by" gorm:"size:32"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Project *Project `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
	Drawing *Drawing `json:"drawing,omitempty" gorm:"foreignKey:ScopeItemID"`
}

func (ScopeItem) TableName() string {
	return "scope_items"
}

// ScopeItem 状态
const (
	ScopeStatusInDesign         = "in_design"
	ScopeStatusAwaitingApproval = "awaiting_approval"
	ScopeStatusApproved         = "approved"
	ScopeStatusInProduction     = "in_production"
	ScopeStatusComplete         = "complete"
	ScopeStatusCancelled        = "cancelled"
)

// ScopeStatusPostApproval 审批之后的生产阶段状态（图纸流程不再回写）
func ScopeStatusPostApproval(status string) bool {
	switch status {
	case ScopeStatusInProduction, ScopeStatusComplete, ScopeStatusCancelled:
		return true
	}
	return false
}
