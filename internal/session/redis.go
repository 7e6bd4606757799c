package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bmex-dev/leveldensity/internal/export"
	"github.com/bmex-dev/leveldensity/pkg/logger"
	"github.com/bmex-dev/leveldensity/pkg/retry"
)

const redisKeyPrefix = "ld:session:"

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(ctx context.Context, host string, port int, password string, db int, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	err := retry.Do(ctx, "redis ping", retry.DefaultBackoff(), func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis session store initialized", zap.String("addr", client.Options().Addr))

	return NewRedisStoreFromClient(client, ttl), nil
}

func NewRedisStoreFromClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Load(ctx context.Context, id string) (*export.Table, bool, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get session: %w", err)
	}

	var table export.Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal session table: %w", err)
	}
	return &table, true, nil
}

func (r *RedisStore) Save(ctx context.Context, id string, table *export.Table) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to marshal session table: %w", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+id, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}
	logger.Debug("Session cached", zap.String("session_id", id), zap.Int("rows", len(table.Rows)))
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
