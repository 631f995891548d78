package service

import (
	"context"

	"github.com/keramy/formula-backend/internal/pm/repository"
	"go.uber.org/zap"
)

// BulkSendService 批量发送图纸给客户
type BulkSendService struct {
	workflow    *DrawingWorkflowService
	projectRepo *repository.ProjectRepository
	drawingRepo *repository.DrawingRepository
	logger      *zap.Logger
}

// NewBulkSendService 创建批量发送服务
func NewBulkSendService(workflow *DrawingWorkflowService, projectRepo *repository.ProjectRepository, drawingRepo *repository.DrawingRepository, logger *zap.Logger) *BulkSendService {
	return &BulkSendService{
		workflow:    workflow,
		projectRepo: projectRepo,
		drawingRepo: drawingRepo,
		logger:      logger,
	}
}

// BulkSendFailure 单张图纸的发送失败记录
type BulkSendFailure struct {
	DrawingID string `json:"drawing_id"`
	Reason    string `json:"reason"`
}

// BulkSendResult 批量发送结果
type BulkSendResult struct {
	SentCount int               `json:"sent_count"`
	Failures  []BulkSendFailure `json:"failures"`
}

// SendAllUploadedToClient 对项目内一组图纸逐张执行"发送客户"
// 尽力而为：单张失败（如已被并发推进）记入failures，不中断其余；
// 项目不存在等系统性错误则整体失败
func (s *BulkSendService) SendAllUploadedToClient(ctx context.Context, actor Actor, projectID string, drawingIDs []string) (*BulkSendResult, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, newWorkflowError(KindNotFound, "项目不存在: %s", projectID)
	}

	result := &BulkSendResult{Failures: []BulkSendFailure{}}

	for _, drawingID := range drawingIDs {
		drawing, err := s.drawingRepo.FindByID(ctx, drawingID)
		if err != nil {
			return nil, err
		}
		if drawing == nil {
			result.Failures = append(result.Failures, BulkSendFailure{
				DrawingID: drawingID,
				Reason:    "图纸不存在",
			})
			continue
		}
		if drawing.ProjectID != projectID {
			result.Failures = append(result.Failures, BulkSendFailure{
				DrawingID: drawingID,
				Reason:    "图纸不属于该项目",
			})
			continue
		}

		if _, err := s.workflow.SendToClient(ctx, actor, drawing.ScopeItemID); err != nil {
			if KindOf(err) == "" {
				// 非流程错误说明基础设施出了问题，整体失败
				return nil, err
			}
			s.logger.Warn("bulk send: drawing skipped",
				zap.String("drawing_id", drawingID),
				zap.Error(err),
			)
			result.Failures = append(result.Failures, BulkSendFailure{
				DrawingID: drawingID,
				Reason:    err.Error(),
			})
			continue
		}
		result.SentCount++
	}

	return result, nil
}
