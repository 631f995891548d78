package entity

import "time"

// DrawingStatus 图纸状态
type DrawingStatus string

const (
	DrawingStatusNotUploaded          DrawingStatus = "not_uploaded"
	DrawingStatusUploaded             DrawingStatus = "uploaded"
	DrawingStatusSentToClient         DrawingStatus = "sent_to_client"
	DrawingStatusApproved             DrawingStatus = "approved"
	DrawingStatusApprovedWithComments DrawingStatus = "approved_with_comments"
	DrawingStatusRejected             DrawingStatus = "rejected"
	DrawingStatusNotRequired          DrawingStatus = "not_required"
)

// IsApprovedLike 是否属于已批准状态（approved / approved_with_comments）
func (s DrawingStatus) IsApprovedLike() bool {
	return s == DrawingStatusApproved || s == DrawingStatusApprovedWithComments
}

// AwaitingClient 是否已发客户、待客户反馈
func (s DrawingStatus) AwaitingClient() bool {
	return s == DrawingStatusSentToClient
}

// Valid 状态值是否合法
func (s DrawingStatus) Valid() bool {
	switch s {
	case DrawingStatusNotUploaded, DrawingStatusUploaded, DrawingStatusSentToClient,
		DrawingStatusApproved, DrawingStatusApprovedWithComments,
		DrawingStatusRejected, DrawingStatusNotRequired:
		return true
	}
	return false
}

// Drawing 审批流程跟踪的设计图纸，与ScopeItem一对一
type Drawing struct {
	ID          string        `json:"id" gorm:"primaryKey;size:32"`
	ScopeItemID string        `json:"scope_item_id" gorm:"size:32;not null;uniqueIndex"`
	ProjectID   string        `json:"project_id" gorm:"size:32;not null;index"`
	Status      DrawingStatus `json:"status" gorm:"size:30;not null;default:not_uploaded"`

	// 当前修订版字母（A, B, C...），未上传或无需图纸时为空
	CurrentRevision *string `json:"current_revision,omitempty" gorm:"size:4"`

	SentToClientAt    *time.Time `json:"sent_to_client_at,omitempty"`
	ClientRespondedAt *time.Time `json:"client_responded_at,omitempty"`
	ClientComments    string     `json:"client_comments,omitempty" gorm:"type:text"`
	ApprovedBy        *string    `json:"approved_by,omitempty" gorm:"size:32"`

	// PM强制批准
	PMOverride       bool       `json:"pm_override" gorm:"default:false"`
	PMOverrideReason string     `json:"pm_override_reason,omitempty" gorm:"type:text"`
	PMOverrideAt     *time.Time `json:"pm_override_at,omitempty"`
	PMOverrideBy     *string    `json:"pm_override_by,omitempty" gorm:"size:32"`

	// 无需图纸豁免
	NotRequiredReason string     `json:"not_required_reason,omitempty" gorm:"type:text"`
	NotRequiredAt     *time.Time `json:"not_required_at,omitempty"`
	NotRequiredBy     *string    `json:"not_required_by,omitempty" gorm:"size:32"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	ScopeItem *ScopeItem `json:"scope_item,omitempty" gorm:"foreignKey:ScopeItemID;references:ID"`
	Revisions []Revision `json:"revisions,omitempty" gorm:"foreignKey:DrawingID"`
}

func (Drawing) TableName() string {
	return "drawings"
}
