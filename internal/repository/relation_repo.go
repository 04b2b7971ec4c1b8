package repository

import (
	"context"

	"chirp-go/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RelationRepository struct {
	db *gorm.DB
}

func NewRelationRepository(db *gorm.DB) *RelationRepository {
	return &RelationRepository{db: db}
}

// Create 创建关注关系，已存在时不写入并返回 false
func (r *RelationRepository) Create(ctx context.Context, followerID, followeeID int64) (bool, error) {
	relation := &model.Relation{
		FollowerID: followerID,
		FolloweeID: followeeID,
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "follower_id"}, {Name: "followee_id"}},
			DoNothing: true,
		}).
		Create(relation)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Delete 删除关注关系，不存在时返回 false
func (r *RelationRepository) Delete(ctx context.Context, followerID, followeeID int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&model.Relation{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Exists 检查关注关系是否存在
func (r *RelationRepository) Exists(ctx context.Context, followerID, followeeID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Relation{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error
	return count > 0, err
}

// FolloweeIDsQuery 返回 userID 关注的用户 ID 子查询
func (r *RelationRepository) FolloweeIDsQuery(ctx context.Context, userID int64) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Relation{}).
		Select("followee_id").
		Where("follower_id = ?", userID)
}

// GetFollowingList 获取用户的关注列表（分页）
func (r *RelationRepository) GetFollowingList(ctx context.Context, userID int64, skip, limit int) ([]int64, error) {
	var followeeIDs []int64
	err := r.db.WithContext(ctx).Model(&model.Relation{}).
		Where("follower_id = ?", userID).
		Order("created_at DESC").
		Offset(skip).Limit(limit).
		Pluck("followee_id", &followeeIDs).Error
	return followeeIDs, err
}

// CountFollowing 统计关注数
func (r *RelationRepository) CountFollowing(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Relation{}).Where("follower_id = ?", userID).Count(&count).Error
	return count, err
}

// CountFollowers 统计粉丝数
func (r *RelationRepository) CountFollowers(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Relation{}).Where("followee_id = ?", userID).Count(&count).Error
	return count, err
}
