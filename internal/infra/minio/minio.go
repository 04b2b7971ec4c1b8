package minio

import (
	"context"
	"fmt"
	"io"
	"time"

	"chirp-go/internal/config"
	"chirp-go/pkg/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

var client *minio.Client

// publicReadPolicy 头像 bucket 公开读
func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
}

// Init 初始化 MinIO 客户端并确保头像 Bucket 存在
func Init(cfg *config.MinIOConfig) error {
	if cfg.AvatarBucket == "" {
		return fmt.Errorf("minio avatar bucket is empty")
	}

	var err error
	client, err = minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bucket := cfg.AvatarBucket
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
		logger.Info("MinIO bucket created", zap.String("bucket", bucket))
	}

	if err := client.SetBucketPolicy(ctx, bucket, publicReadPolicy(bucket)); err != nil {
		return fmt.Errorf("failed to set public policy for %s: %w", bucket, err)
	}

	logger.Info("MinIO connected",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("avatar_bucket", bucket),
	)
	return nil
}

// Get 获取 MinIO 客户端实例
func Get() *minio.Client {
	return client
}

// UploadFile 上传文件到指定 Bucket，返回对象名
func UploadFile(ctx context.Context, bucket, objectName string, reader io.Reader, fileSize int64, contentType string) (string, error) {
	if client == nil {
		return "", fmt.Errorf("minio client not initialized")
	}
	_, err := client.PutObject(ctx, bucket, objectName, reader, fileSize, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to minio: %w", err)
	}
	return objectName, nil
}

// GetPublicURL 生成公开访问 URL（需要 Bucket 设置为 public-read）
func GetPublicURL(endpoint string, useSSL bool, bucket, objectName string) string {
	scheme := "http"
	if useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, endpoint, bucket, objectName)
}

// AvatarStorage 头像存储
type AvatarStorage struct {
	endpoint string
	useSSL   bool
	bucket   string
}

func NewAvatarStorage(cfg *config.MinIOConfig) *AvatarStorage {
	return &AvatarStorage{
		endpoint: cfg.Endpoint,
		useSSL:   cfg.UseSSL,
		bucket:   cfg.AvatarBucket,
	}
}

// Upload 上传头像并返回公开地址
func (s *AvatarStorage) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	name, err := UploadFile(ctx, s.bucket, objectName, reader, size, contentType)
	if err != nil {
		return "", err
	}
	return GetPublicURL(s.endpoint, s.useSSL, s.bucket, name), nil
}
