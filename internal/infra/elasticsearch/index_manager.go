package elasticsearch

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"chirp-go/pkg/logger"

	"go.uber.org/zap"
)

// postsIndexMapping posts 索引的 mapping
const postsIndexMapping = `{
	"settings": {
		"number_of_shards": 1,
		"number_of_replicas": 0
	},
	"mappings": {
		"properties": {
			"id": {"type": "long"},
			"author_id": {"type": "long"},
			"author_name": {"type": "text", "fields": {"keyword": {"type": "keyword", "ignore_above": 64}}},
			"content": {"type": "text", "analyzer": "standard"},
			"created_at": {"type": "date", "format": "strict_date_optional_time||epoch_millis"}
		}
	}
}`

// EnsurePostsIndex 确保 posts 索引存在，不存在则创建
func EnsurePostsIndex(ctx context.Context, indexName string) error {
	exists, err := IndicesExists(ctx, indexName)
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	if exists {
		logger.Info("Elasticsearch posts index already exists", zap.String("index", indexName))
		return nil
	}

	resp, err := IndicesCreate(ctx, indexName, bytes.NewReader([]byte(postsIndexMapping)))
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return fmt.Errorf("create index failed: %s", resp.String())
	}

	logger.Info("Elasticsearch posts index created", zap.String("index", indexName))
	return nil
}

// InitIndexes 初始化所有索引（启动时调用）
func InitIndexes(postsIndex string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return EnsurePostsIndex(ctx, postsIndex)
}
