package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chirp-go/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// PostCreatedHandler 处理新帖事件的回调函数
type PostCreatedHandler func(ctx context.Context, event *PostCreatedEvent) error

// DecodePostCreated 反序列化新帖事件
func DecodePostCreated(value []byte) (*PostCreatedEvent, error) {
	var event PostCreatedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal post created event: %w", err)
	}
	if event.PostID == 0 {
		return nil, fmt.Errorf("post created event without post_id")
	}
	return &event, nil
}

// StartPostCreatedConsumer 启动新帖事件消费者（阻塞），ctx 取消后返回
func StartPostCreatedConsumer(ctx context.Context, brokers []string, topic, groupID string, handler PostCreatedHandler) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})

	log := logger.With(zap.String("topic", topic), zap.String("group", groupID))

	defer func() {
		if err := reader.Close(); err != nil {
			log.Error("Failed to close kafka consumer", zap.Error(err))
		}
		log.Info("Kafka post created consumer stopped")
	}()

	log.Info("Kafka post created consumer started")

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("Failed to read kafka message", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		event, err := DecodePostCreated(msg.Value)
		if err != nil {
			log.Error("Skip malformed post created event",
				zap.Error(err),
				zap.ByteString("value", msg.Value),
			)
			continue
		}

		if err := handler(ctx, event); err != nil {
			log.Error("Failed to handle post created event",
				zap.Int64("post_id", event.PostID),
				zap.Error(err),
			)
		}
	}
}
