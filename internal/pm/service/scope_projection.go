package service

import (
	"github.com/keramy/formula-backend/internal/pm/entity"
)

// DeriveScopeItemStatus 从图纸状态推导范围条目状态，纯函数
// 条目已进入生产后续阶段（in_production/complete/cancelled）时一律保持不变：
// 那些阶段在图纸流程之外推进，任何图纸状态都不再回写
func DeriveScopeItemStatus(drawingStatus entity.DrawingStatus, priorScopeStatus string) string {
	if entity.ScopeStatusPostApproval(priorScopeStatus) {
		return priorScopeStatus
	}
	switch drawingStatus {
	case entity.DrawingStatusNotUploaded, entity.DrawingStatusUploaded, entity.DrawingStatusRejected:
		return entity.ScopeStatusInDesign
	case entity.DrawingStatusSentToClient:
		return entity.ScopeStatusAwaitingApproval
	case entity.DrawingStatusApproved, entity.DrawingStatusApprovedWithComments, entity.DrawingStatusNotRequired:
		return entity.ScopeStatusApproved
	}
	return priorScopeStatus
}
