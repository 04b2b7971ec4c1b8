package model

import "time"

// User 用户模型
type User struct {
	ID       int64     `gorm:"primaryKey;autoIncrement;comment:用户标识" json:"id"`
	Username string    `gorm:"size:64;not null;uniqueIndex;comment:用户名" json:"username"`
	Email    string    `gorm:"size:255;not null;uniqueIndex;comment:邮箱" json:"email"`
	Password string    `gorm:"size:255;not null;comment:密码哈希" json:"-"` // json:"-" 序列化时忽略密码
	IsAdmin  bool      `gorm:"not null;default:false;comment:是否管理员" json:"is_admin"`
	Avatar   *string   `gorm:"size:500;comment:用户头像" json:"avatar"`
	JoinedAt time.Time `gorm:"autoCreateTime;comment:注册时间" json:"joined_at"`

	Posts []Post `gorm:"foreignKey:AuthorID" json:"posts,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// AnonymousUser 未登录访问者
var AnonymousUser = &User{}

// IsAuthenticated 是否为已登录用户
func (u *User) IsAuthenticated() bool {
	return u != nil && u.ID != 0
}
