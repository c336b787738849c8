package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/YelzhanWeb/comandas/internal/domain"
)

// kv is the part of *redis.Client the store needs.
type kv interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// SessionStore keeps one terminal's session under session:<id> so it
// survives restarts of the sync client.
type SessionStore struct {
	rdb kv
	id  string
	ttl time.Duration
}

func Initialize(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

func NewSessionStore(rdb *redis.Client, terminalID string, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, id: terminalID, ttl: ttl}
}

func (s *SessionStore) key() string {
	return "session:" + s.id
}

func (s *SessionStore) Save(ctx context.Context, sess domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Load(ctx context.Context) (*domain.Session, error) {
	val, err := s.rdb.Get(ctx, s.key()).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	return s.rdb.Del(ctx, s.key()).Err()
}
