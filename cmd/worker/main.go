package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"chirp-go/internal/bootstrap"
	"chirp-go/internal/config"
	"chirp-go/internal/infra/database"
	infraES "chirp-go/internal/infra/elasticsearch"
	infraKafka "chirp-go/internal/infra/kafka"
	"chirp-go/pkg/logger"

	"go.uber.org/zap"
)

const groupID = "chirp-go-post-indexer"

func main() {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.FilePath); err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	if !cfg.Kafka.Enabled || !cfg.Elasticsearch.Enabled {
		logger.Fatal("Post indexer requires kafka and elasticsearch to be enabled")
	}

	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("Failed to init database", zap.Error(err))
	}
	defer database.Close()

	if err := infraES.Init(&cfg.Elasticsearch); err != nil {
		logger.Fatal("Failed to init elasticsearch", zap.Error(err))
	}
	defer infraES.Close()

	postsIndex := cfg.Elasticsearch.PostsIndex()
	if err := infraES.InitIndexes(postsIndex); err != nil {
		logger.Fatal("Failed to init elasticsearch index", zap.Error(err))
	}

	services := bootstrap.NewServices(bootstrap.Deps{
		DB:    database.Get(),
		Index: infraES.NewPostIndex(postsIndex),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听系统信号，优雅退出
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	topic := cfg.Kafka.Topics["post_created"]
	logger.Info("Post indexer started",
		zap.String("topic", topic),
		zap.String("group", groupID),
		zap.Strings("brokers", cfg.Kafka.Brokers),
	)

	infraKafka.StartPostCreatedConsumer(ctx, cfg.Kafka.Brokers, topic, groupID,
		func(ctx context.Context, event *infraKafka.PostCreatedEvent) error {
			if err := services.Search.IndexPost(ctx, event.PostID); err != nil {
				return err
			}
			logger.Info("Post indexed", zap.Int64("post_id", event.PostID))
			return nil
		},
	)
}
