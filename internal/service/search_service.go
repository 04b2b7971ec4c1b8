package service

import (
	"context"
	"errors"
	"strings"

	"chirp-go/internal/api/dto"
	"chirp-go/internal/model"
	"chirp-go/internal/repository"
	"chirp-go/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	SearchSourceES = "elasticsearch"
	SearchSourceDB = "database"

	reindexBatchSize = 500
)

var ErrSearchDisabled = errors.New("search index is not configured")

// PostIndex 帖子全文索引
type PostIndex interface {
	SearchPostIDs(ctx context.Context, query map[string]interface{}) ([]int64, error)
	IndexPost(ctx context.Context, post *model.Post) error
	BulkIndexPosts(ctx context.Context, posts []model.Post) (success, failed int, err error)
}

type SearchService struct {
	postRepo *repository.PostRepository
	index    PostIndex
}

// NewSearchService index 为 nil 时只使用数据库搜索
func NewSearchService(postRepo *repository.PostRepository, index PostIndex) *SearchService {
	return &SearchService{postRepo: postRepo, index: index}
}

// SearchPosts 搜索帖子（ES 优先，失败则降级到 DB）
func (s *SearchService) SearchPosts(ctx context.Context, q string, limit int) (*dto.SearchResult, error) {
	q = strings.TrimSpace(q)
	result := &dto.SearchResult{Query: q}
	if q == "" {
		return result, nil
	}
	limit = clampLimit(limit)

	if s.index != nil {
		posts, err := s.searchFromES(ctx, q, limit)
		if err == nil {
			result.Posts = posts
			result.Source = SearchSourceES
			return result, nil
		}
		logger.Warn("ES search failed, fallback to DB", zap.Error(err))
	}

	posts, err := s.postRepo.SearchContent(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	result.Posts = posts
	result.Source = SearchSourceDB
	return result, nil
}

func (s *SearchService) searchFromES(ctx context.Context, q string, limit int) ([]model.Post, error) {
	ids, err := s.index.SearchPostIDs(ctx, buildESQuery(q, limit))
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	posts, err := s.postRepo.GetByIDsWithAuthor(ctx, ids)
	if err != nil {
		return nil, err
	}

	postMap := make(map[int64]*model.Post, len(posts))
	for i := range posts {
		postMap[posts[i].ID] = &posts[i]
	}

	// 按 ES 返回顺序输出，索引中已不存在于数据库的帖子直接跳过
	ordered := make([]model.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := postMap[id]; ok {
			ordered = append(ordered, *p)
		}
	}
	return ordered, nil
}

func buildESQuery(q string, limit int) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":    q,
				"fields":   []string{"content^2", "author_name"},
				"type":     "best_fields",
				"operator": "and",
			},
		},
		"_source": []string{"id"},
		"size":    limit,
		"sort": []interface{}{
			map[string]interface{}{"created_at": map[string]string{"order": "desc"}},
			map[string]interface{}{"id": map[string]string{"order": "desc"}},
		},
	}
}

// IndexPost 将单个帖子写入索引（worker 消费新帖事件时调用）
func (s *SearchService) IndexPost(ctx context.Context, postID int64) error {
	if s.index == nil {
		return ErrSearchDisabled
	}

	post, err := s.postRepo.GetByIDWithAuthor(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	return s.index.IndexPost(ctx, post)
}

// ReindexAll 分批重建全部帖子的索引
func (s *SearchService) ReindexAll(ctx context.Context) (success, failed int, err error) {
	if s.index == nil {
		return 0, 0, ErrSearchDisabled
	}

	err = s.postRepo.ListAllWithAuthor(ctx, reindexBatchSize, func(batch []model.Post) error {
		ok, bad, err := s.index.BulkIndexPosts(ctx, batch)
		success += ok
		failed += bad
		return err
	})

	logger.Info("Reindex completed", zap.Int("success", success), zap.Int("failed", failed))
	return success, failed, err
}
