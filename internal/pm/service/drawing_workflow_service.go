package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/keramy/formula-backend/internal/pm/entity"
	"github.com/keramy/formula-backend/internal/pm/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Actor 发起操作的用户：身份由调用方显式传入，服务不读任何环境态
type Actor struct {
	ID   string
	Name string
	Role string
}

// DrawingWorkflowService 图纸审批流程服务
// 所有图纸/范围条目状态变更的唯一入口：授权校验、状态机推进、
// 范围条目联动、操作日志追加在一个事务内完成
type DrawingWorkflowService struct {
	db          *gorm.DB
	drawingRepo *repository.DrawingRepository
	logRepo     *repository.ActivityLogRepository
	notifier    *NotifyService
	logger      *zap.Logger
}

// NewDrawingWorkflowService 创建图纸审批流程服务
func NewDrawingWorkflowService(db *gorm.DB, repos *repository.Repositories, notifier *NotifyService, logger *zap.Logger) *DrawingWorkflowService {
	return &DrawingWorkflowService{
		db:          db,
		drawingRepo: repos.Drawing,
		logRepo:     repos.ActivityLog,
		notifier:    notifier,
		logger:      logger,
	}
}

// UploadFirstRevision 上传首版图纸：创建Drawing和修订版A
func (s *DrawingWorkflowService) UploadFirstRevision(ctx context.Context, actor Actor, scopeItemID, fileRef, cadFileRef string) (*entity.Drawing, error) {
	return s.ApplyTransition(ctx, actor, scopeItemID, EventUploadFirstRevision, TransitionPayload{
		FileRef:    fileRef,
		CADFileRef: cadFileRef,
	})
}

// UploadNewRevision 上传新修订版，分配下一个字母
// 覆盖已批准图纸时confirmed必须为true
func (s *DrawingWorkflowService) UploadNewRevision(ctx context.Context, actor Actor, scopeItemID, fileRef, cadFileRef string, confirmed bool) (*entity.Drawing, error) {
	return s.ApplyTransition(ctx, actor, scopeItemID, EventUploadNewRevision, TransitionPayload{
		FileRef:    fileRef,
		CADFileRef: cadFileRef,
		Confirmed:  confirmed,
	})
}

// ReplaceFile 替换当前修订版的文件，不分配新字母
func (s *DrawingWorkflowService) ReplaceFile(ctx context.Context, actor Actor, scopeItemID, fileRef, cadFileRef string, confirmed bool) (*entity.Drawing, error) {
	return s.ApplyTransition(ctx, actor, scopeItemID, EventReplaceFile, TransitionPayload{
		FileRef:    fileRef,
		CADFileRef: cadFileRef,
		Confirmed:  confirmed,
	})
}

// SendToClient 发送图纸给客户审阅
func (s *DrawingWorkflowService) SendToClient(ctx context.Context, actor Actor, scopeItemID string) (*entity.Drawing, error) {
	return s.ApplyTransition(ctx, actor, scopeItemID, EventSendToClient, TransitionPayload{})
}

// RecordClientResponse 记录客户反馈（批准/带意见批准/驳回）
func (s *DrawingWorkflowService) RecordClientResponse(ctx context.Context, actor Actor, scopeItemID, outcome, comments, markupRef string) (*entity.Drawing, error) {
	return s.ApplyTransition(ctx, actor, scopeItemID, EventClientResponse, TransitionPayload{
		Outcome:         outcome,
		Comments:        comments,
		ClientMarkupRef: markupRef,
	})
}

// PMOverride PM强制批准，绕过客户确认，必须填写原因
func (s *DrawingWorkflowService) PMOverride(ctx context.Context, actor Actor, scopeItemID, reason string) (*entity.Drawing, error) {
	return s.ApplyTransition(ctx, actor, scopeItemID, EventPMOverride, TransitionPayload{
		Reason: reason,
	})
}

// MarkNotRequired 标记范围条目无需图纸，必须填写原因
func (s *DrawingWorkflowService) MarkNotRequired(ctx context.Context, actor Actor, scopeItemID, reason string) (*entity.Drawing, error) {
	return s.ApplyTransition(ctx, actor, scopeItemID, EventMarkNotRequired, TransitionPayload{
		Reason: reason,
	})
}

// ApplyTransition 图纸流程统一入口
// 步骤：授权 → 参数校验 → 读取当前状态 → 状态机计算目标状态 →
// 事务内（带乐观前置条件）写Drawing + 联动ScopeItem + 追加日志 →
// 提交后执行通知等副作用
func (s *DrawingWorkflowService) ApplyTransition(ctx context.Context, actor Actor, scopeItemID string, event TransitionEvent, p TransitionPayload) (*entity.Drawing, error) {
	if err := authorizeEvent(actor, event); err != nil {
		return nil, err
	}
	if err := validatePayload(event, p); err != nil {
		return nil, err
	}

	var item entity.ScopeItem
	if err := s.db.WithContext(ctx).First(&item, "id = ?", scopeItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newWorkflowError(KindNotFound, "范围条目不存在: %s", scopeItemID)
		}
		return nil, fmt.Errorf("查询范围条目失败: %w", err)
	}

	// 读取当前图纸，记录此刻的状态作为提交时的乐观前置条件
	var loaded *entity.Drawing
	var drawing entity.Drawing
	err := s.db.WithContext(ctx).First(&drawing, "scope_item_id = ?", scopeItemID).Error
	switch {
	case err == nil:
		loaded = &drawing
	case errors.Is(err, gorm.ErrRecordNotFound):
		loaded = nil
	default:
		return nil, fmt.Errorf("查询图纸失败: %w", err)
	}

	current := entity.DrawingStatusNotUploaded
	if loaded != nil {
		current = loaded.Status
	}

	target, err := transitionTarget(current, event, p)
	if err != nil {
		return nil, err
	}

	var result *entity.Drawing
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var applyErr error
		if loaded == nil {
			result, applyErr = s.applyCreate(tx, actor, &item, event, p, target)
		} else {
			result, applyErr = s.applyMutation(tx, actor, &item, loaded, event, p, current, target)
		}
		if applyErr != nil {
			return applyErr
		}

		if err := s.syncScopeItem(tx, &item, event, current, target); err != nil {
			return err
		}

		return s.appendAudit(tx, actor, &item, result, event, p, current, target)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.logger.Info("drawing transition applied",
		zap.String("scope_item_id", item.ID),
		zap.String("event", string(event)),
		zap.String("from", string(current)),
		zap.String("to", string(target)),
		zap.String("actor_id", actor.ID),
	)

	// 提交后副作用：通知不参与事务，失败不回滚
	if event == EventSendToClient && s.notifier != nil {
		go s.notifier.NotifyDrawingSent(context.Background(), item.ProjectID, &item, result)
	}

	return result, nil
}

// applyCreate 处理需要新建Drawing行的事件（首版上传、无需图纸豁免）
// 并发创建由 scope_item_id 唯一索引挡住，重复键视为冲突
func (s *DrawingWorkflowService) applyCreate(tx *gorm.DB, actor Actor, item *entity.ScopeItem, event TransitionEvent, p TransitionPayload, target entity.DrawingStatus) (*entity.Drawing, error) {
	now := time.Now()
	d := &entity.Drawing{
		ID:          uuid.New().String()[:32],
		ScopeItemID: item.ID,
		ProjectID:   item.ProjectID,
		Status:      target,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	switch event {
	case EventUploadFirstRevision:
		letter := entity.FirstRevisionLetter
		d.CurrentRevision = &letter
	case EventMarkNotRequired:
		d.NotRequiredReason = p.Reason
		d.NotRequiredAt = &now
		actorID := actor.ID
		d.NotRequiredBy = &actorID
	}

	if err := tx.Create(d).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, newWorkflowError(KindConflict, "图纸已被并发创建，请刷新后重试")
		}
		return nil, fmt.Errorf("创建图纸失败: %w", err)
	}

	if event == EventUploadFirstRevision {
		if err := s.createRevision(tx, actor, d.ID, entity.FirstRevisionLetter, p); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// applyMutation 处理已有Drawing行的事件
// 状态更新带乐观前置条件：提交时状态必须仍等于读取时的状态，否则冲突
func (s *DrawingWorkflowService) applyMutation(tx *gorm.DB, actor Actor, item *entity.ScopeItem, loaded *entity.Drawing, event TransitionEvent, p TransitionPayload, current, target entity.DrawingStatus) (*entity.Drawing, error) {
	now := time.Now()
	updates := map[string]interface{}{
		"status":     target,
		"updated_at": now,
	}

	newLetter := ""
	switch event {
	case EventUploadNewRevision:
		if loaded.CurrentRevision == nil {
			return nil, newWorkflowError(KindNotFound, "图纸没有当前修订版")
		}
		newLetter = entity.NextRevisionLetter(*loaded.CurrentRevision)
		updates["current_revision"] = newLetter
		clearReviewFields(updates)

	case EventReplaceFile:
		if loaded.CurrentRevision == nil {
			return nil, newWorkflowError(KindNotFound, "图纸没有当前修订版")
		}
		clearReviewFields(updates)

	case EventSendToClient:
		updates["sent_to_client_at"] = now

	case EventClientResponse:
		updates["client_responded_at"] = now
		updates["client_comments"] = p.Comments
		if target.IsApprovedLike() {
			updates["approved_by"] = actor.ID
		} else {
			updates["approved_by"] = nil
		}

	case EventPMOverride:
		updates["approved_by"] = actor.ID
		updates["pm_override"] = true
		updates["pm_override_reason"] = p.Reason
		updates["pm_override_at"] = now
		updates["pm_override_by"] = actor.ID
		updates["client_responded_at"] = now
	}

	rows, err := s.drawingRepo.UpdateStatusGuarded(tx, loaded.ID, current, updates)
	if err != nil {
		return nil, fmt.Errorf("更新图纸状态失败: %w", err)
	}
	if rows == 0 {
		return nil, newWorkflowError(KindConflict,
			"图纸状态已被其他人变更（读取时为 %s），请刷新后重试", current)
	}

	// 修订版写入放在状态守卫之后：输掉并发竞争的调用不会碰修订版数据
	switch event {
	case EventUploadNewRevision:
		if err := s.createRevision(tx, actor, loaded.ID, newLetter, p); err != nil {
			return nil, err
		}
	case EventReplaceFile:
		if err := s.replaceRevisionFiles(tx, loaded.ID, *loaded.CurrentRevision, p); err != nil {
			return nil, err
		}
	case EventClientResponse:
		// 客户批注文件只在批准时附在当前修订版上
		if target.IsApprovedLike() && p.ClientMarkupRef != "" && loaded.CurrentRevision != nil {
			if err := tx.Model(&entity.Revision{}).
				Where("drawing_id = ? AND revision_letter = ?", loaded.ID, *loaded.CurrentRevision).
				Update("client_markup_ref", p.ClientMarkupRef).Error; err != nil {
				return nil, fmt.Errorf("更新客户批注失败: %w", err)
			}
		}
	}

	var updated entity.Drawing
	if err := tx.First(&updated, "id = ?", loaded.ID).Error; err != nil {
		return nil, fmt.Errorf("读取更新后图纸失败: %w", err)
	}
	return &updated, nil
}

// clearReviewFields 回到uploaded时清空审阅痕迹，
// 保证 pm_override=true 只出现在approved状态上
func clearReviewFields(updates map[string]interface{}) {
	updates["sent_to_client_at"] = nil
	updates["client_responded_at"] = nil
	updates["client_comments"] = ""
	updates["approved_by"] = nil
	updates["pm_override"] = false
	updates["pm_override_reason"] = ""
	updates["pm_override_at"] = nil
	updates["pm_override_by"] = nil
}

// createRevision 创建修订版记录；(drawing_id, letter)唯一索引兜底并发分配
func (s *DrawingWorkflowService) createRevision(tx *gorm.DB, actor Actor, drawingID, letter string, p TransitionPayload) error {
	rev := &entity.Revision{
		ID:             uuid.New().String()[:32],
		DrawingID:      drawingID,
		RevisionLetter: letter,
		FileRef:        p.FileRef,
		CADFileRef:     p.CADFileRef,
		UploadedBy:     actor.ID,
		CreatedAt:      time.Now(),
	}
	if err := tx.Create(rev).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return newWorkflowError(KindConflict, "修订版 %s 已被并发分配，请刷新后重试", letter)
		}
		return fmt.Errorf("创建修订版失败: %w", err)
	}
	return nil
}

// replaceRevisionFiles 原地替换当前修订版的文件引用，不分配新字母
func (s *DrawingWorkflowService) replaceRevisionFiles(tx *gorm.DB, drawingID, letter string, p TransitionPayload) error {
	updates := map[string]interface{}{}
	if p.FileRef != "" {
		updates["file_ref"] = p.FileRef
	}
	if p.CADFileRef != "" {
		updates["cad_file_ref"] = p.CADFileRef
	}
	result := tx.Model(&entity.Revision{}).
		Where("drawing_id = ? AND revision_letter = ?", drawingID, letter).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("替换修订版文件失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return newWorkflowError(KindNotFound, "修订版 %s 不属于该图纸", letter)
	}
	return nil
}

// syncScopeItem 按投影规则联动范围条目状态
// 替换/新版使图纸离开sent_to_client或rejected时强制回到in_design（撤销了对客户的承诺）；
// 对已是uploaded的图纸单纯重传则不动范围条目；
// 条目进入生产后续阶段后图纸流程不再回写
func (s *DrawingWorkflowService) syncScopeItem(tx *gorm.DB, item *entity.ScopeItem, event TransitionEvent, current, target entity.DrawingStatus) error {
	if entity.ScopeStatusPostApproval(item.Status) {
		return nil
	}

	newStatus := DeriveScopeItemStatus(target, item.Status)

	if event == EventReplaceFile || event == EventUploadNewRevision {
		switch current {
		case entity.DrawingStatusSentToClient, entity.DrawingStatusRejected:
			newStatus = entity.ScopeStatusInDesign
		case entity.DrawingStatusUploaded:
			return nil
		}
	}

	if newStatus == item.Status {
		return nil
	}

	if err := tx.Model(&entity.ScopeItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]interface{}{
			"status":     newStatus,
			"updated_at": time.Now(),
		}).Error; err != nil {
		return fmt.Errorf("更新范围条目状态失败: %w", err)
	}
	item.Status = newStatus
	return nil
}

// appendAudit 每次状态变更追加恰好一条操作日志，与主事务一起提交
func (s *DrawingWorkflowService) appendAudit(tx *gorm.DB, actor Actor, item *entity.ScopeItem, d *entity.Drawing, event TransitionEvent, p TransitionPayload, current, target entity.DrawingStatus) error {
	details := entity.JSONB{
		"item_code": item.Code,
	}
	if d.CurrentRevision != nil {
		details["revision_letter"] = *d.CurrentRevision
	}

	action := ""
	switch event {
	case EventUploadFirstRevision, EventUploadNewRevision:
		action = entity.ActionUploaded
	case EventReplaceFile:
		action = entity.ActionUploaded
		details["replaced"] = true
	case EventSendToClient:
		action = entity.ActionSentToClient
	case EventClientResponse:
		details["outcome"] = p.Outcome
		if p.Comments != "" {
			details["comments"] = p.Comments
		}
		if target == entity.DrawingStatusRejected {
			action = entity.ActionRejected
		} else {
			action = entity.ActionApproved
		}
	case EventPMOverride:
		action = entity.ActionPMOverride
		details["reason"] = p.Reason
	case EventMarkNotRequired:
		action = entity.ActionMarkedNotRequired
		details["reason"] = p.Reason
	}

	fromStatus := string(current)
	if event == EventUploadFirstRevision || event == EventMarkNotRequired {
		fromStatus = string(entity.DrawingStatusNotUploaded)
	}

	return s.logRepo.Append(tx, &entity.ActivityLog{
		EntityType:   entity.ActivityEntityDrawing,
		EntityID:     d.ID,
		EntityCode:   item.Code,
		ProjectID:    item.ProjectID,
		Action:       action,
		FromStatus:   fromStatus,
		ToStatus:     string(target),
		Details:      details,
		OperatorID:   actor.ID,
		OperatorName: actor.Name,
		CreatedAt:    time.Now(),
	})
}
