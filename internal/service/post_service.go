package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"chirp-go/internal/model"
	"chirp-go/internal/repository"
	"chirp-go/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaxPostLength 帖子内容最大字符数（去除首尾空白后）
const MaxPostLength = 1000

var (
	ErrPostNotFound   = errors.New("post not found")
	ErrEmptyContent   = errors.New("post content can't be empty")
	ErrContentTooLong = errors.New("post content is too long")
)

// PostPublisher 新帖事件发布
type PostPublisher interface {
	PublishPostCreated(ctx context.Context, post *model.Post) error
}

type noopPublisher struct{}

func (noopPublisher) PublishPostCreated(context.Context, *model.Post) error { return nil }

type PostService struct {
	postRepo  *repository.PostRepository
	publisher PostPublisher
	now       func() time.Time
}

// NewPostService publisher 为 nil 时不发布事件
func NewPostService(postRepo *repository.PostRepository, publisher PostPublisher) *PostService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &PostService{
		postRepo:  postRepo,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreatePost 发帖：内容去除首尾空白后不能为空，时间取服务端时钟
func (s *PostService) CreatePost(ctx context.Context, authorID int64, content string) (*model.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > MaxPostLength {
		return nil, ErrContentTooLong
	}

	post := &model.Post{
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	created, err := s.postRepo.GetByIDWithAuthor(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	// 事件发布失败不影响发帖
	if err := s.publisher.PublishPostCreated(ctx, created); err != nil {
		logger.Warn("Publish post created event failed", zap.Int64("post_id", created.ID), zap.Error(err))
	}

	logger.Info("Post created", zap.Int64("post_id", created.ID), zap.Int64("author_id", authorID))
	return created, nil
}

// GetPost 获取单个帖子
func (s *PostService) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	post, err := s.postRepo.GetByIDWithAuthor(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return post, nil
}

// GetPostsByAuthor 获取作者最新的帖子；每次调用重新查询
func (s *PostService) GetPostsByAuthor(ctx context.Context, authorID int64, limit int) ([]model.Post, error) {
	return s.postRepo.ListByAuthor(ctx, authorID, clampLimit(limit))
}
