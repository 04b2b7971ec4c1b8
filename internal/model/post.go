package model

import "time"

// Post 帖子模型
type Post struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;comment:帖子标识" json:"id"`
	AuthorID  int64     `gorm:"not null;index:idx_author_id;comment:作者ID" json:"author_id"`
	Content   string    `gorm:"type:text;not null;comment:内容" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_posts_created_at;comment:发布时间" json:"created_at"`

	Author User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

func (Post) TableName() string {
	return "posts"
}
