package service

import (
	"context"
	"errors"

	"chirp-go/internal/repository"
	"chirp-go/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrCannotFollowSelf = errors.New("you can't follow yourself")

type RelationService struct {
	relationRepo *repository.RelationRepository
	userRepo     *repository.UserRepository
}

func NewRelationService(relationRepo *repository.RelationRepository, userRepo *repository.UserRepository) *RelationService {
	return &RelationService{
		relationRepo: relationRepo,
		userRepo:     userRepo,
	}
}

// Follow 关注用户，返回是否新建了关系；已关注时返回 false 而不是错误
func (s *RelationService) Follow(ctx context.Context, currentUserID, targetUserID int64) (bool, error) {
	if currentUserID == targetUserID {
		return false, ErrCannotFollowSelf
	}

	if _, err := s.userRepo.GetByID(ctx, targetUserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrUserNotFound
		}
		return false, err
	}

	created, err := s.relationRepo.Create(ctx, currentUserID, targetUserID)
	if err != nil {
		return false, err
	}

	if created {
		logger.Info("User followed",
			zap.Int64("follower_id", currentUserID),
			zap.Int64("followee_id", targetUserID),
		)
	}
	return created, nil
}

// Unfollow 取消关注，返回是否删除了关系；未关注时返回 false 而不是错误
func (s *RelationService) Unfollow(ctx context.Context, currentUserID, targetUserID int64) (bool, error) {
	removed, err := s.relationRepo.Delete(ctx, currentUserID, targetUserID)
	if err != nil {
		return false, err
	}

	if removed {
		logger.Info("User unfollowed",
			zap.Int64("follower_id", currentUserID),
			zap.Int64("followee_id", targetUserID),
		)
	}
	return removed, nil
}

// IsFollowing 查询关注状态
func (s *RelationService) IsFollowing(ctx context.Context, currentUserID, targetUserID int64) (bool, error) {
	return s.relationRepo.Exists(ctx, currentUserID, targetUserID)
}
