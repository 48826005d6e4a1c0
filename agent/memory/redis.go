package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/egware/erpagent/agent"
)

const defaultKeyPrefix = "erpagent:thread:"

// RedisConfig holds connection settings for the Redis-backed store.
type RedisConfig struct {
	Addr     string        `envconfig:"ADDR" split_words:"true" default:"localhost:6379"`
	Password string        `envconfig:"PASSWORD" split_words:"true"`
	DB       int           `envconfig:"DB" split_words:"true" default:"0"`
	TTL      time.Duration `envconfig:"TTL" split_words:"true" default:"24h"`
}

// RedisStore persists thread history as a Redis list, trimmed to
// MaxEntries. Threads expire after the configured TTL of inactivity.
type RedisStore struct {
	client    redis.Cmdable
	keyPrefix string
	ttl       time.Duration
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(cfg RedisConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisStore{client: client, keyPrefix: defaultKeyPrefix, ttl: cfg.TTL}
}

// NewRedisStoreWithClient wires an existing client, mainly for tests.
func NewRedisStoreWithClient(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, keyPrefix: defaultKeyPrefix, ttl: ttl}
}

func (s *RedisStore) key(threadID string) string {
	return s.keyPrefix + strings.TrimSpace(threadID)
}

func (s *RedisStore) Append(ctx context.Context, threadID string, msgs ...agent.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	values := make([]any, 0, len(msgs))
	for _, msg := range msgs {
		raw, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("memory: marshal message: %w", err)
		}
		values = append(values, raw)
	}

	key := s.key(threadID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, -int64(MaxEntries), -1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("memory: append thread=%s: %w", threadID, err)
	}
	return nil
}

func (s *RedisStore) History(ctx context.Context, threadID string) ([]agent.Message, error) {
	raw, err := s.client.LRange(ctx, s.key(threadID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("memory: load thread=%s: %w", threadID, err)
	}

	history := make([]agent.Message, 0, len(raw))
	for _, item := range raw {
		var msg agent.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("memory: decode message: %w", err)
		}
		history = append(history, msg)
	}
	return history, nil
}

func (s *RedisStore) Clear(ctx context.Context, threadID string) error {
	if err := s.client.Del(ctx, s.key(threadID)).Err(); err != nil {
		return fmt.Errorf("memory: clear thread=%s: %w", threadID, err)
	}
	return nil
}
