package service

import (
	"github.com/keramy/formula-backend/internal/pm/entity"
)

// TransitionEvent 图纸流程事件
type TransitionEvent string

const (
	EventUploadFirstRevision TransitionEvent = "upload_first_revision"
	EventUploadNewRevision   TransitionEvent = "upload_new_revision"
	EventReplaceFile         TransitionEvent = "replace_file"
	EventSendToClient        TransitionEvent = "send_to_client"
	EventClientResponse      TransitionEvent = "record_client_response"
	EventPMOverride          TransitionEvent = "pm_override"
	EventMarkNotRequired     TransitionEvent = "mark_not_required"
)

// 客户反馈结果
const (
	OutcomeApproved             = "approved"
	OutcomeApprovedWithComments = "approved_with_comments"
	OutcomeRejected             = "rejected"
)

// TransitionPayload 事件参数
type TransitionPayload struct {
	FileRef         string
	CADFileRef      string
	Outcome         string // record_client_response: approved / approved_with_comments / rejected
	Comments        string
	ClientMarkupRef string
	Reason          string // pm_override / mark_not_required 必填
	Confirmed       bool   // 覆盖已有批准时必须为true
}

// transitionTarget 状态机核心：从当前状态计算事件的目标状态
// 事件在当前状态下不合法时返回 invalid_transition；
// 覆盖已批准状态且未确认时返回 confirmation_required。任何错误都不产生副作用。
func transitionTarget(current entity.DrawingStatus, event TransitionEvent, p TransitionPayload) (entity.DrawingStatus, error) {
	switch event {
	case EventUploadFirstRevision:
		if current != entity.DrawingStatusNotUploaded {
			return "", invalidTransition(current, event)
		}
		return entity.DrawingStatusUploaded, nil

	case EventUploadNewRevision:
		switch current {
		case entity.DrawingStatusUploaded, entity.DrawingStatusRejected:
			return entity.DrawingStatusUploaded, nil
		case entity.DrawingStatusApproved, entity.DrawingStatusApprovedWithComments:
			// 废弃已有客户批准，必须显式确认
			if !p.Confirmed {
				return "", newWorkflowError(KindConfirmationRequired,
					"图纸已批准，上传新版本将作废现有批准，需明确确认")
			}
			return entity.DrawingStatusUploaded, nil
		}
		return "", invalidTransition(current, event)

	case EventReplaceFile:
		switch current {
		case entity.DrawingStatusUploaded, entity.DrawingStatusSentToClient, entity.DrawingStatusRejected:
			return entity.DrawingStatusUploaded, nil
		case entity.DrawingStatusApproved, entity.DrawingStatusApprovedWithComments:
			if !p.Confirmed {
				return "", newWorkflowError(KindConfirmationRequired,
					"图纸已批准，替换文件将作废现有批准，需明确确认")
			}
			return entity.DrawingStatusUploaded, nil
		}
		return "", invalidTransition(current, event)

	case EventSendToClient:
		if current != entity.DrawingStatusUploaded {
			return "", invalidTransition(current, event)
		}
		return entity.DrawingStatusSentToClient, nil

	case EventClientResponse:
		if current != entity.DrawingStatusSentToClient {
			return "", invalidTransition(current, event)
		}
		switch p.Outcome {
		case OutcomeApproved:
			return entity.DrawingStatusApproved, nil
		case OutcomeApprovedWithComments:
			return entity.DrawingStatusApprovedWithComments, nil
		case OutcomeRejected:
			return entity.DrawingStatusRejected, nil
		}
		return "", newWorkflowError(KindValidation, "客户反馈结果不合法: %q", p.Outcome)

	case EventPMOverride:
		switch current {
		case entity.DrawingStatusSentToClient, entity.DrawingStatusRejected:
			return entity.DrawingStatusApproved, nil
		}
		return "", invalidTransition(current, event)

	case EventMarkNotRequired:
		// 仅在从未上传过图纸时可豁免；not_required 为终态
		if current != entity.DrawingStatusNotUploaded {
			return "", invalidTransition(current, event)
		}
		return entity.DrawingStatusNotRequired, nil
	}

	return "", newWorkflowError(KindValidation, "未知事件: %q", event)
}

func invalidTransition(current entity.DrawingStatus, event TransitionEvent) *WorkflowError {
	return newWorkflowError(KindInvalidTransition,
		"当前状态 %s 不允许执行 %s", current, event)
}

// authorizeEvent 事件级授权：上传、发送、替换、覆盖批准、豁免仅限 admin/pm；
// 客户反馈允许 admin/pm/client；其余角色一律拒绝
func authorizeEvent(actor Actor, event TransitionEvent) error {
	switch event {
	case EventClientResponse:
		switch actor.Role {
		case entity.RoleAdmin, entity.RolePM, entity.RoleClient:
			return nil
		}
	default:
		switch actor.Role {
		case entity.RoleAdmin, entity.RolePM:
			return nil
		}
	}
	return newWorkflowError(KindAuthorization,
		"角色 %s 无权执行 %s", actor.Role, event)
}

// validatePayload 事件参数校验
func validatePayload(event TransitionEvent, p TransitionPayload) error {
	switch event {
	case EventUploadFirstRevision, EventUploadNewRevision:
		if p.FileRef == "" {
			return newWorkflowError(KindValidation, "上传图纸必须提供文件引用")
		}
	case EventReplaceFile:
		if p.FileRef == "" && p.CADFileRef == "" {
			return newWorkflowError(KindValidation, "替换文件至少需要一个新文件引用")
		}
	case EventPMOverride:
		if p.Reason == "" {
			return newWorkflowError(KindValidation, "PM强制批准必须填写原因")
		}
	case EventMarkNotRequired:
		if p.Reason == "" {
			return newWorkflowError(KindValidation, "标记无需图纸必须填写原因")
		}
	case EventClientResponse:
		switch p.Outcome {
		case OutcomeApproved, OutcomeApprovedWithComments, OutcomeRejected:
		default:
			return newWorkflowError(KindValidation, "客户反馈结果不合法: %q", p.Outcome)
		}
	}
	return nil
}
