package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"chirp-go/internal/repository"
	"chirp-go/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaxAvatarSize 头像文件大小上限
const MaxAvatarSize = 2 << 20

var (
	ErrAvatarDisabled = errors.New("avatar uploads are disabled")
	ErrAvatarFormat   = errors.New("avatar must be a png, jpg, gif or webp image")
	ErrAvatarSize     = errors.New("avatar must be between 1 byte and 2 MiB")

	avatarContentTypes = map[string]string{
		".png":  "image/png",
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".gif":  "image/gif",
		".webp": "image/webp",
	}
)

// ObjectStorage 对象存储，返回对象的公开访问地址
type ObjectStorage interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
}

type AvatarService struct {
	userRepo *repository.UserRepository
	storage  ObjectStorage
}

// NewAvatarService storage 为 nil 时上传功能关闭
func NewAvatarService(userRepo *repository.UserRepository, storage ObjectStorage) *AvatarService {
	return &AvatarService{userRepo: userRepo, storage: storage}
}

// Enabled 是否配置了对象存储
func (s *AvatarService) Enabled() bool {
	return s.storage != nil
}

// Upload 上传头像并更新用户资料，返回头像地址
func (s *AvatarService) Upload(ctx context.Context, userID int64, filename string, reader io.Reader, size int64) (string, error) {
	if s.storage == nil {
		return "", ErrAvatarDisabled
	}

	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := avatarContentTypes[ext]
	if !ok {
		return "", ErrAvatarFormat
	}
	if size <= 0 || size > MaxAvatarSize {
		return "", ErrAvatarSize
	}

	objectName := fmt.Sprintf("users/%d/%s%s", userID, uuid.NewString(), ext)
	url, err := s.storage.Upload(ctx, objectName, reader, size, contentType)
	if err != nil {
		return "", err
	}

	if err := s.userRepo.UpdateAvatar(ctx, userID, url); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	logger.Info("Avatar updated", zap.Int64("user_id", userID), zap.String("object", objectName))
	return url, nil
}
