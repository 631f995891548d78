package entity

import "time"

// ActivityLog 操作日志，只追加，不修改不删除
type ActivityLog struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	EntityType string `json:"entity_type" gorm:"size:50;not null;index:idx_activity_entity"` // drawing
	EntityID   string `json:"entity_id" gorm:"size:32;not null;index:idx_activity_entity"`
	EntityCode string `json:"entity_code" gorm:"size:50"`
	ProjectID  string `json:"project_id" gorm:"size:32;not null;index"`

	Action     string `json:"action" gorm:"size:50;not null"`
	FromStatus string `json:"from_status" gorm:"size:30"`
	ToStatus   string `json:"to_status" gorm:"size:30"`
	Details    JSONB  `json:"details" gorm:"type:jsonb"` // {revision_letter, reason, comments...}

	OperatorID   string    `json:"operator_id" gorm:"size:32;not null"`
	OperatorName string    `json:"operator_name" gorm:"size:100"`
	CreatedAt    time.Time `json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

// 日志实体类型
const (
	ActivityEntityDrawing = "drawing"
)

// 图纸流程动作
const (
	ActionUploaded          = "UPLOADED"
	ActionSentToClient      = "SENT_TO_CLIENT"
	ActionApproved          = "APPROVED"
	ActionRejected          = "REJECTED"
	ActionPMOverride        = "PM_OVERRIDE"
	ActionMarkedNotRequired = "MARKED_NOT_REQUIRED"
)
