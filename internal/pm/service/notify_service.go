package service

import (
	"context"
	"fmt"

	"github.com/keramy/formula-backend/internal/config"
	"github.com/keramy/formula-backend/internal/pm/entity"
	"github.com/keramy/formula-backend/internal/pm/repository"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// NotifyService 邮件通知服务
// 只在事务提交后调用，发送失败只记日志，绝不影响已提交的状态变更
type NotifyService struct {
	cfg         config.SMTPConfig
	projectRepo *repository.ProjectRepository
	logger      *zap.Logger
}

// NewNotifyService 创建通知服务
func NewNotifyService(cfg config.SMTPConfig, projectRepo *repository.ProjectRepository, logger *zap.Logger) *NotifyService {
	return &NotifyService{cfg: cfg, projectRepo: projectRepo, logger: logger}
}

// NotifyDrawingSent 图纸发送客户后通知项目的客户联系邮箱
func (s *NotifyService) NotifyDrawingSent(ctx context.Context, projectID string, item *entity.ScopeItem, drawing *entity.Drawing) {
	if s.cfg.Host == "" {
		return
	}

	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil || project == nil {
		s.logger.Warn("notify: project lookup failed",
			zap.String("project_id", projectID), zap.Error(err))
		return
	}
	if project.ClientEmail == "" {
		s.logger.Info("notify: project has no client email, skipping",
			zap.String("project_id", projectID))
		return
	}

	revision := ""
	if drawing.CurrentRevision != nil {
		revision = *drawing.CurrentRevision
	}

	subject := fmt.Sprintf("[%s] 图纸待审阅: %s (Rev %s)", project.Code, item.Name, revision)
	body := fmt.Sprintf(
		"<p>项目 <b>%s</b> 的范围条目 <b>%s %s</b> 已上传修订版 <b>%s</b>，待您审阅确认。</p>"+
			"<p>请登录 Formula 系统查看并反馈。</p>",
		project.Name, item.Code, item.Name, revision,
	)

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", project.ClientEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		s.logger.Warn("notify: send mail failed",
			zap.String("to", project.ClientEmail), zap.Error(err))
		return
	}
	s.logger.Info("notify: drawing-sent mail delivered",
		zap.String("to", project.ClientEmail),
		zap.String("drawing_id", drawing.ID),
	)
}
