package main

import (
	"context"
	"fmt"

	"chirp-go/internal/api/handler"
	"chirp-go/internal/bootstrap"
	"chirp-go/internal/config"
	"chirp-go/internal/infra/database"
	infraES "chirp-go/internal/infra/elasticsearch"
	infraKafka "chirp-go/internal/infra/kafka"
	infraMinio "chirp-go/internal/infra/minio"
	infraRedis "chirp-go/internal/infra/redis"
	"chirp-go/internal/model"
	"chirp-go/internal/service"
	"chirp-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 加载配置文件
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 初始化日志系统
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.FilePath); err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	// 初始化数据库
	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("Failed to init database", zap.Error(err))
	}
	defer database.Close()

	if err := database.AutoMigrate(model.All()...); err != nil {
		logger.Fatal("Failed to auto migrate", zap.Error(err))
	}

	// 初始化Redis（会话存储）
	if err := infraRedis.Init(&cfg.Redis); err != nil {
		logger.Fatal("Failed to init redis", zap.Error(err))
	}
	defer infraRedis.Close()

	deps := bootstrap.Deps{
		DB:      database.Get(),
		Redis:   infraRedis.Get(),
		Session: cfg.Session,
		Issuer:  cfg.App.Name,
	}

	// Kafka 关闭时发帖不发布事件
	if cfg.Kafka.Enabled {
		if err := infraKafka.InitProducer(&cfg.Kafka); err != nil {
			logger.Fatal("Failed to init kafka producer", zap.Error(err))
		}
		defer infraKafka.CloseProducer()
		deps.Publisher = infraKafka.NewPostPublisher(cfg.Kafka.Topics["post_created"])
	}

	// Elasticsearch 可选，失败则搜索降级到 DB
	if cfg.Elasticsearch.Enabled {
		if err := infraES.Init(&cfg.Elasticsearch); err != nil {
			logger.Warn("Elasticsearch init failed, search will fallback to DB", zap.Error(err))
		} else {
			defer infraES.Close()
			if err := infraES.InitIndexes(cfg.Elasticsearch.PostsIndex()); err != nil {
				logger.Warn("Elasticsearch index init failed", zap.Error(err))
			}
			deps.Index = infraES.NewPostIndex(cfg.Elasticsearch.PostsIndex())
		}
	}

	// MinIO 关闭时头像上传不可用
	if cfg.MinIO.Enabled {
		if err := infraMinio.Init(&cfg.MinIO); err != nil {
			logger.Fatal("Failed to init minio", zap.Error(err))
		}
		deps.Storage = infraMinio.NewAvatarStorage(&cfg.MinIO)
	}

	services := bootstrap.NewServices(deps)
	seedAdmin(services.Auth, &cfg.Seed)

	gin.SetMode(cfg.App.Mode)
	r, err := bootstrap.NewEngine(services, cfg,
		handler.HealthCheck{Name: "database", Check: database.Ping},
		handler.HealthCheck{Name: "redis", Check: infraRedis.Ping},
	)
	if err != nil {
		logger.Fatal("Failed to load templates", zap.Error(err))
	}

	addr := cfg.App.Addr()
	logger.Info("Starting application",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("mode", cfg.App.Mode),
		zap.String("addr", addr),
		zap.Bool("kafka", cfg.Kafka.Enabled),
		zap.Bool("elasticsearch", deps.Index != nil),
		zap.Bool("minio", cfg.MinIO.Enabled),
	)

	if err := r.Run(addr); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

// seedAdmin 创建初始管理员账号，失败只记录日志
func seedAdmin(authService *service.AuthService, seed *config.SeedConfig) {
	admin := seed.Admin
	if err := authService.EnsureAdmin(context.Background(), admin.Username, admin.Email, admin.Password); err != nil {
		logger.Error("Failed to seed admin account", zap.Error(err))
	}
}
