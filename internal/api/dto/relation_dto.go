package dto

import "chirp-go/internal/model"

// UserStream 用户主页：本人帖子与关注统计
type UserStream struct {
	User           *model.User
	Posts          []model.Post
	PostCount      int64
	FollowingCount int64
	FollowerCount  int64
	IsFollowing    bool
	IsSelf         bool
	Following      []model.User
}
