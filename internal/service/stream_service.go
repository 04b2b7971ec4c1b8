package service

import (
	"context"
	"errors"

	"chirp-go/internal/api/dto"
	"chirp-go/internal/model"
	"chirp-go/internal/repository"

	"gorm.io/gorm"
)

const (
	// DefaultStreamLimit 每个流最多返回的帖子数
	DefaultStreamLimit = 100
	// profileFollowingLimit 主页展示的关注用户数
	profileFollowingLimit = 20
)

func clampLimit(limit int) int {
	if limit <= 0 || limit > DefaultStreamLimit {
		return DefaultStreamLimit
	}
	return limit
}

type StreamService struct {
	postRepo     *repository.PostRepository
	relationRepo *repository.RelationRepository
	userRepo     *repository.UserRepository
}

func NewStreamService(postRepo *repository.PostRepository, relationRepo *repository.RelationRepository, userRepo *repository.UserRepository) *StreamService {
	return &StreamService{
		postRepo:     postRepo,
		relationRepo: relationRepo,
		userRepo:     userRepo,
	}
}

// GetStream 个人信息流：本人与其关注用户的帖子，按时间倒序
func (s *StreamService) GetStream(ctx context.Context, userID int64, limit int) ([]model.Post, error) {
	followees := s.relationRepo.FolloweeIDsQuery(ctx, userID)
	return s.postRepo.ListByAuthorOrFollowees(ctx, userID, followees, clampLimit(limit))
}

// GetGlobalStream 全站最新帖子
func (s *StreamService) GetGlobalStream(ctx context.Context, limit int) ([]model.Post, error) {
	return s.postRepo.ListLatest(ctx, clampLimit(limit))
}

// GetUserStream 用户主页：只包含该用户本人的帖子
func (s *StreamService) GetUserStream(ctx context.Context, viewer *model.User, username string, limit int) (*dto.UserStream, error) {
	user, err := s.lookupUser(ctx, username)
	if err != nil {
		return nil, err
	}

	posts, err := s.postRepo.ListByAuthor(ctx, user.ID, clampLimit(limit))
	if err != nil {
		return nil, err
	}

	data := &dto.UserStream{
		User:   user,
		Posts:  posts,
		IsSelf: viewer.IsAuthenticated() && viewer.ID == user.ID,
	}

	if data.PostCount, err = s.postRepo.CountByAuthor(ctx, user.ID); err != nil {
		return nil, err
	}
	if data.FollowingCount, err = s.relationRepo.CountFollowing(ctx, user.ID); err != nil {
		return nil, err
	}
	if data.FollowerCount, err = s.relationRepo.CountFollowers(ctx, user.ID); err != nil {
		return nil, err
	}
	if viewer.IsAuthenticated() && !data.IsSelf {
		if data.IsFollowing, err = s.relationRepo.Exists(ctx, viewer.ID, user.ID); err != nil {
			return nil, err
		}
	}
	if data.Following, err = s.recentFollowing(ctx, user.ID); err != nil {
		return nil, err
	}

	return data, nil
}

// recentFollowing 最近关注的用户，按关注时间倒序
func (s *StreamService) recentFollowing(ctx context.Context, userID int64) ([]model.User, error) {
	ids, err := s.relationRepo.GetFollowingList(ctx, userID, 0, profileFollowingLimit)
	if err != nil || len(ids) == 0 {
		return nil, err
	}

	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	userMap := make(map[int64]model.User, len(users))
	for _, u := range users {
		userMap[u.ID] = u
	}
	ordered := make([]model.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := userMap[id]; ok {
			ordered = append(ordered, u)
		}
	}
	return ordered, nil
}

func (s *StreamService) lookupUser(ctx context.Context, username string) (*model.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
