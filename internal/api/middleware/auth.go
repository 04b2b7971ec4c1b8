package middleware

import (
	"context"
	"net/url"

	"chirp-go/internal/api/flash"
	"chirp-go/internal/api/response"
	"chirp-go/internal/model"

	"github.com/gin-gonic/gin"
)

// UserResolver 根据会话令牌解析当前用户，失败时返回匿名用户
type UserResolver interface {
	CurrentUser(ctx context.Context, token string) *model.User
}

// Session 会话中间件：从 cookie 中解析当前用户并写入上下文，匿名访问也放行
func Session(cookieName string, resolver UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := model.AnonymousUser
		if token, err := c.Cookie(cookieName); err == nil && token != "" {
			user = resolver.CurrentUser(c.Request.Context(), token)
		}
		response.SetCurrentUser(c, user)
		c.Next()
	}
}

// GetCurrentUser 从 Gin Context 中获取当前用户
func GetCurrentUser(c *gin.Context) *model.User {
	return response.CurrentUser(c)
}

// GetCurrentUserID 从 Gin Context 中获取当前登录用户 ID
func GetCurrentUserID(c *gin.Context) (int64, bool) {
	user := response.CurrentUser(c)
	if !user.IsAuthenticated() {
		return 0, false
	}
	return user.ID, true
}

// LoginRequired 登录校验中间件（必须在 Session 之后使用），未登录跳转到登录页
func LoginRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetCurrentUserID(c); !ok {
			flash.Error(c, "Please log in to access this page.")
			response.Redirect(c, "/login/?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminRequired 管理员权限中间件（必须在 LoginRequired 之后使用）
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetCurrentUser(c).IsAdmin {
			response.NotFound(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
