package counters

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"counterbot/pkg/logger"
)

// RedisStore reads counter values from Redis.
//
// Layout, relative to Prefix:
//
//	counter_ids          hash  key -> id
//	value:<scope key>    string integer value
type RedisStore struct {
	log    *logger.Logger
	client *redis.Client
	prefix string
}

// RedisStoreConfig configures the Redis store.
type RedisStoreConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(log *logger.Logger, cfg *RedisStoreConfig) (*RedisStore, error) {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "counterbot:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	log.Info("Connected to Redis",
		zap.String("addr", cfg.Addr),
		zap.Int("db", cfg.DB),
		zap.String("prefix", prefix))

	return &RedisStore{log: log, client: client, prefix: prefix}, nil
}

func (s *RedisStore) valueKey(key ScopeKey) string {
	return s.prefix + "value:" + key.String()
}

func (s *RedisStore) idsKey() string {
	return s.prefix + "counter_ids"
}

// GetCurrentValue implements Store.
func (s *RedisStore) GetCurrentValue(ctx context.Context, key ScopeKey) (int64, bool, error) {
	raw, err := s.client.Get(ctx, s.valueKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, unavailable("redis get", err)
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, unavailable("redis get", fmt.Errorf("malformed value %q for %s", raw, key))
	}
	return v, true, nil
}

// CounterIDs implements Store.
func (s *RedisStore) CounterIDs(ctx context.Context) (map[string]CounterID, error) {
	raw, err := s.client.HGetAll(ctx, s.idsKey()).Result()
	if err != nil {
		return nil, unavailable("redis hgetall", err)
	}

	ids := make(map[string]CounterID, len(raw))
	for key, idStr := range raw {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			s.log.Warn("Skipping malformed counter id",
				zap.String("counter", key),
				zap.String("id", idStr))
			continue
		}
		ids[key] = CounterID(id)
	}
	return ids, nil
}

// Client exposes the underlying client for fixtures.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
