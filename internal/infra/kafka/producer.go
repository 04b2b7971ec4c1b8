package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chirp-go/internal/config"
	"chirp-go/internal/model"
	"chirp-go/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var producer *kafka.Writer

// PostCreatedEvent 新帖事件消息体
type PostCreatedEvent struct {
	PostID     int64     `json:"post_id"`
	AuthorID   int64     `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewPostCreatedEvent 由帖子构造事件，帖子需已加载作者
func NewPostCreatedEvent(post *model.Post) *PostCreatedEvent {
	return &PostCreatedEvent{
		PostID:     post.ID,
		AuthorID:   post.AuthorID,
		AuthorName: post.Author.Username,
		Content:    post.Content,
		CreatedAt:  post.CreatedAt,
	}
}

// InitProducer 初始化 Kafka 生产者
func InitProducer(cfg *config.KafkaConfig) error {
	if len(cfg.Brokers) == 0 {
		return fmt.Errorf("kafka brokers is empty")
	}

	producer = &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	logger.Info("Kafka producer initialized",
		zap.Strings("brokers", cfg.Brokers),
	)

	return nil
}

// EncodePostCreated 序列化新帖事件，返回消息 key 和 value
func EncodePostCreated(event *PostCreatedEvent) ([]byte, []byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal post created event: %w", err)
	}
	return []byte(fmt.Sprintf("post-%d", event.PostID)), payload, nil
}

// SendPostCreated 发送新帖事件到 Kafka
func SendPostCreated(ctx context.Context, topic string, event *PostCreatedEvent) error {
	if producer == nil {
		return fmt.Errorf("kafka producer not initialized")
	}

	key, value, err := EncodePostCreated(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	}

	if err := producer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to send post created event: %w", err)
	}

	logger.Debug("Post created event sent",
		zap.Int64("post_id", event.PostID),
		zap.String("topic", topic),
	)
	return nil
}

// PostPublisher 通过 Kafka 发布新帖事件
type PostPublisher struct {
	topic string
}

func NewPostPublisher(topic string) *PostPublisher {
	return &PostPublisher{topic: topic}
}

func (p *PostPublisher) PublishPostCreated(ctx context.Context, post *model.Post) error {
	return SendPostCreated(ctx, p.topic, NewPostCreatedEvent(post))
}

// CloseProducer 关闭生产者
func CloseProducer() error {
	if producer == nil {
		return nil
	}
	logger.Info("Kafka producer closed")
	return producer.Close()
}
