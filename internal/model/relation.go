package model

import "time"

// Relation 用户关注关系模型，FollowerID 关注 FolloweeID
type Relation struct {
	ID         int64     `gorm:"primaryKey;autoIncrement;comment:用户关系id" json:"id"`
	FollowerID int64     `gorm:"not null;uniqueIndex:idx_unique_follow_relation;index:idx_follower_id;comment:粉丝用户id" json:"follower_id"`
	FolloweeID int64     `gorm:"not null;uniqueIndex:idx_unique_follow_relation;index:idx_followee_id;comment:被关注用户id" json:"followee_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime;comment:关注时间" json:"created_at"`
}

func (Relation) TableName() string {
	return "relations"
}
