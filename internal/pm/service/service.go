package service

import (
	"github.com/keramy/formula-backend/internal/config"
	"github.com/keramy/formula-backend/internal/pm/repository"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services 服务集合
type Services struct {
	Identity *IdentityService
	Workflow *DrawingWorkflowService
	BulkSend *BulkSendService
	File     *FileService
	Notify   *NotifyService
}

// NewServices 创建服务集合
func NewServices(db *gorm.DB, repos *repository.Repositories, rdb *redis.Client, cfg *config.Config, logger *zap.Logger) *Services {
	// 初始化MinIO客户端
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warn("minio init failed, file storage disabled", zap.Error(err))
			minioClient = nil
		}
	}

	notify := NewNotifyService(cfg.SMTP, repos.Project, logger)
	workflow := NewDrawingWorkflowService(db, repos, notify, logger)

	return &Services{
		Identity: NewIdentityService(repos.User, rdb),
		Workflow: workflow,
		BulkSend: NewBulkSendService(workflow, repos.Project, repos.Drawing, logger),
		File:     NewFileService(minioClient, cfg.MinIO.Bucket),
		Notify:   notify,
	}
}
