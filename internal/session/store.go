// Package session 服务端会话：Redis 保存 session -> 用户映射，Cookie 中只携带签名后的会话 ID
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"chirp-go/pkg/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// ErrNoSession 令牌无效、过期或会话已被销毁
var ErrNoSession = errors.New("no active session")

// Options 会话参数
type Options struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// RedisStore 基于 Redis 的会话存储
type RedisStore struct {
	client *redis.Client
	opts   Options
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, opts Options) *RedisStore {
	return &RedisStore{client: client, opts: opts, now: time.Now}
}

func sessionKey(id string) string {
	return keyPrefix + id
}

// Create 为用户创建会话，返回写入 Cookie 的令牌
func (s *RedisStore) Create(ctx context.Context, userID int64) (string, error) {
	sid := uuid.NewString()

	if err := s.client.Set(ctx, sessionKey(sid), userID, s.opts.TTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	token, err := utils.GenerateSessionToken(s.opts.Secret, s.opts.Issuer, sid, userID, s.opts.TTL, s.now())
	if err != nil {
		_ = s.client.Del(ctx, sessionKey(sid)).Err()
		return "", err
	}
	return token, nil
}

// Resolve 校验令牌并返回会话绑定的用户 ID
func (s *RedisStore) Resolve(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, ErrNoSession
	}

	claims, err := utils.ParseSessionToken(s.opts.Secret, token, s.now())
	if err != nil {
		return 0, ErrNoSession
	}

	val, err := s.client.Get(ctx, sessionKey(claims.SessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrNoSession
		}
		return 0, fmt.Errorf("failed to load session: %w", err)
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil || userID != claims.UserID {
		return 0, ErrNoSession
	}
	return userID, nil
}

// Destroy 销毁会话，令牌无效或会话不存在时什么也不做
func (s *RedisStore) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	claims, err := utils.ParseSessionToken(s.opts.Secret, token, s.now())
	if err != nil {
		return nil
	}

	if err := s.client.Del(ctx, sessionKey(claims.SessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
