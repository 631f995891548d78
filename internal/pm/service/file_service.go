package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// FileService 图纸文件存储：字节进MinIO，业务表只存引用
type FileService struct {
	minioClient *minio.Client
	bucketName  string
}

// NewFileService 创建文件存储服务
func NewFileService(minioClient *minio.Client, bucketName string) *FileService {
	return &FileService{minioClient: minioClient, bucketName: bucketName}
}

// StoredFile 存储结果
type StoredFile struct {
	Ref         string `json:"ref"`
	FileName    string `json:"file_name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// Store 保存文件，返回可存入Revision的持久引用
func (s *FileService) Store(ctx context.Context, fileName string, reader io.Reader, size int64, contentType string) (*StoredFile, error) {
	if s.minioClient == nil {
		return nil, fmt.Errorf("文件存储未配置")
	}

	objectName := fmt.Sprintf("drawings/%s/%s%s",
		time.Now().Format("2006/01/02"),
		uuid.New().String()[:8],
		filepath.Ext(fileName),
	)

	_, err := s.minioClient.PutObject(ctx, s.bucketName, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}

	return &StoredFile{
		Ref:         fmt.Sprintf("minio://%s/%s", s.bucketName, objectName),
		FileName:    fileName,
		Size:        size,
		ContentType: contentType,
	}, nil
}

// PresignedURL 生成临时下载链接
func (s *FileService) PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	if s.minioClient == nil {
		return "", fmt.Errorf("文件存储未配置")
	}
	u, err := s.minioClient.PresignedGetObject(ctx, s.bucketName, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign object: %w", err)
	}
	return u.String(), nil
}
