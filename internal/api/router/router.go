package router

import (
	"chirp-go/internal/api/handler"
	"chirp-go/internal/api/middleware"
	"chirp-go/internal/api/response"

	"github.com/gin-gonic/gin"
)

// Handlers 页面处理器集合
type Handlers struct {
	Auth     *handler.AuthHandler
	Stream   *handler.StreamHandler
	Post     *handler.PostHandler
	Relation *handler.RelationHandler
	Search   *handler.SearchHandler
	Avatar   *handler.AvatarHandler
}

// Setup 注册所有业务路由（sessionMiddleware 负责解析当前用户）
func Setup(r *gin.Engine, sessionMiddleware gin.HandlerFunc, h *Handlers) {
	handler.RegisterValidators()

	r.Use(sessionMiddleware)

	// --- 公开页面 ---
	r.GET("/", h.Stream.Index)
	r.GET("/stream/:username/", h.Stream.UserStream)
	r.GET("/post/:id/", h.Stream.ViewPost)
	r.GET("/search/", h.Search.Search)

	// --- 认证 ---
	r.GET("/register/", h.Auth.RegisterForm)
	r.POST("/register/", h.Auth.Register)
	r.GET("/login/", h.Auth.LoginForm)
	r.POST("/login/", h.Auth.Login)

	// --- 需要登录 ---
	authed := r.Group("", middleware.LoginRequired())
	{
		authed.GET("/stream/", h.Stream.Stream)
		authed.GET("/logout/", h.Auth.Logout)

		authed.GET("/post_form", h.Post.PostForm)
		authed.POST("/post_form", h.Post.CreatePost)

		authed.GET("/follow/:username/", h.Relation.Follow)
		authed.GET("/unfollow/:username/", h.Relation.Unfollow)

		authed.GET("/avatar/", h.Avatar.AvatarForm)
		authed.POST("/avatar/", h.Avatar.Upload)

		// 管理员接口
		admin := authed.Group("/admin", middleware.AdminRequired())
		{
			admin.GET("/reindex/", h.Search.Reindex)
		}
	}

	r.NoRoute(response.NotFound)
}
