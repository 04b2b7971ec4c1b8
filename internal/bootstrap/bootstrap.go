// Package bootstrap 组装 Repository -> Service -> Handler，供 api、worker 与 chirpctl 共用
package bootstrap

import (
	"chirp-go/internal/api/handler"
	"chirp-go/internal/api/middleware"
	"chirp-go/internal/api/router"
	"chirp-go/internal/api/view"
	"chirp-go/internal/config"
	"chirp-go/internal/repository"
	"chirp-go/internal/service"
	"chirp-go/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps 外部依赖，可选组件为 nil 时对应功能关闭或降级
type Deps struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Session   config.SessionConfig
	Issuer    string
	Publisher service.PostPublisher
	Index     service.PostIndex
	Storage   service.ObjectStorage
}

type Services struct {
	Auth     *service.AuthService
	Relation *service.RelationService
	Post     *service.PostService
	Stream   *service.StreamService
	Search   *service.SearchService
	Avatar   *service.AvatarService
}

// NewServices 初始化依赖（Repository -> Service）
func NewServices(d Deps) *Services {
	userRepo := repository.NewUserRepository(d.DB)
	relationRepo := repository.NewRelationRepository(d.DB)
	postRepo := repository.NewPostRepository(d.DB)

	var sessions service.SessionStore
	if d.Redis != nil {
		sessions = session.NewRedisStore(d.Redis, session.Options{
			Secret: d.Session.Secret,
			Issuer: d.Issuer,
			TTL:    d.Session.TTL(),
		})
	}

	return &Services{
		Auth:     service.NewAuthService(userRepo, sessions),
		Relation: service.NewRelationService(relationRepo, userRepo),
		Post:     service.NewPostService(postRepo, d.Publisher),
		Stream:   service.NewStreamService(postRepo, relationRepo, userRepo),
		Search:   service.NewSearchService(postRepo, d.Index),
		Avatar:   service.NewAvatarService(userRepo, d.Storage),
	}
}

// NewEngine 创建 Gin 路由器并注册中间件、模板与全部页面路由；checks 用于 /healthz
func NewEngine(s *Services, cfg *config.Config, checks ...handler.HealthCheck) (*gin.Engine, error) {
	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())

	if err := view.Load(r); err != nil {
		return nil, err
	}

	r.GET("/healthz", handler.Health(cfg.App.Name, cfg.App.Version, checks...))

	router.Setup(r, middleware.Session(cfg.Session.CookieName, s.Auth), &router.Handlers{
		Auth:     handler.NewAuthHandler(s.Auth, &cfg.Session),
		Stream:   handler.NewStreamHandler(s.Stream, s.Post),
		Post:     handler.NewPostHandler(s.Post),
		Relation: handler.NewRelationHandler(s.Relation, s.Auth),
		Search:   handler.NewSearchHandler(s.Search),
		Avatar:   handler.NewAvatarHandler(s.Avatar),
	})
	return r, nil
}
