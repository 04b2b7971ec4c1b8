package repository

import (
	"context"
	"strings"

	"chirp-go/internal/model"

	"gorm.io/gorm"
)

// newestFirst 流排序：创建时间倒序，同一时刻按 ID 倒序
const newestFirst = "posts.created_at DESC, posts.id DESC"

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create 创建帖子
func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// GetByIDWithAuthor 根据 ID 获取帖子（含作者信息）
func (r *PostRepository) GetByIDWithAuthor(ctx context.Context, id int64) (*model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).Preload("Author").Where("id = ?", id).First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetByIDsWithAuthor 批量获取帖子（含作者信息），顺序不保证
func (r *PostRepository) GetByIDsWithAuthor(ctx context.Context, ids []int64) ([]model.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var posts []model.Post
	err := r.db.WithContext(ctx).Preload("Author").Where("id IN ?", ids).Find(&posts).Error
	return posts, err
}

// ListByAuthor 获取某作者最新的帖子
func (r *PostRepository) ListByAuthor(ctx context.Context, authorID int64, limit int) ([]model.Post, error) {
	var posts []model.Post
	err := r.db.WithContext(ctx).Preload("Author").
		Where("author_id = ?", authorID).
		Order(newestFirst).
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// ListByAuthorOrFollowees 获取 userID 本人及其关注者的最新帖子
func (r *PostRepository) ListByAuthorOrFollowees(ctx context.Context, userID int64, followees *gorm.DB, limit int) ([]model.Post, error) {
	var posts []model.Post
	err := r.db.WithContext(ctx).Preload("Author").
		Where("author_id = ? OR author_id IN (?)", userID, followees).
		Order(newestFirst).
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// ListLatest 获取全站最新的帖子
func (r *PostRepository) ListLatest(ctx context.Context, limit int) ([]model.Post, error) {
	var posts []model.Post
	err := r.db.WithContext(ctx).Preload("Author").
		Order(newestFirst).
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// SearchContent 按内容做不区分大小写的子串匹配
func (r *PostRepository) SearchContent(ctx context.Context, q string, limit int) ([]model.Post, error) {
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	var posts []model.Post
	err := r.db.WithContext(ctx).Preload("Author").
		Where(`LOWER(content) LIKE ? ESCAPE '\'`, pattern).
		Order(newestFirst).
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// ListAllWithAuthor 按主键分批读取全部帖子，用于重建索引
func (r *PostRepository) ListAllWithAuthor(ctx context.Context, batchSize int, fn func([]model.Post) error) error {
	var batch []model.Post
	result := r.db.WithContext(ctx).Preload("Author").
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			return fn(batch)
		})
	return result.Error
}

// CountByAuthor 统计作者的帖子数
func (r *PostRepository) CountByAuthor(ctx context.Context, authorID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Post{}).Where("author_id = ?", authorID).Count(&count).Error
	return count, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
