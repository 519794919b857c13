package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pocket-ledger/internal/cache"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisPrefix = "pocket-ledger:session"

// RedisStore 以兩個 Redis key 保存 token 與 user
type RedisStore struct {
	cache  cache.Cache
	prefix string
	ttl    time.Duration
}

// NewRedisStore prefix 為空時使用 DefaultRedisPrefix；ttl <= 0 表示不過期
func NewRedisStore(c cache.Cache, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{cache: c, prefix: prefix, ttl: ttl}
}

func (r *RedisStore) key(name string) string {
	return r.prefix + ":" + name
}

func (r *RedisStore) Get(ctx context.Context) (*Session, error) {
	token, err := r.cache.Get(ctx, r.key(TokenKey)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("get session token: %w", err)
	}

	s := &Session{Token: token}
	user, err := r.cache.Get(ctx, r.key(UserKey)).Result()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return nil, fmt.Errorf("get session user: %w", err)
	default:
		s.User = json.RawMessage(user)
	}
	return s, nil
}

func (r *RedisStore) Set(ctx context.Context, s *Session) error {
	if err := validate(s); err != nil {
		return err
	}
	if err := r.cache.Set(ctx, r.key(TokenKey), s.Token, r.ttl).Err(); err != nil {
		return fmt.Errorf("set session token: %w", err)
	}
	if len(s.User) == 0 {
		if err := r.cache.Del(ctx, r.key(UserKey)).Err(); err != nil {
			return fmt.Errorf("clear session user: %w", err)
		}
		return nil
	}
	if err := r.cache.Set(ctx, r.key(UserKey), string(s.User), r.ttl).Err(); err != nil {
		return fmt.Errorf("set session user: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.cache.Del(ctx, r.key(TokenKey), r.key(UserKey)).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
