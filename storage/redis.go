package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eddielth/fire-alarm/alert"
	"github.com/eddielth/fire-alarm/config"
	"github.com/eddielth/fire-alarm/logger"
)

const redisTimeout = 3 * time.Second

// RedisStorage keeps the newest alerts in a capped Redis list
type RedisStorage struct {
	client *redis.Client
	key    string
	maxLen int64
}

// NewRedisStorage connects and pings the server
func NewRedisStorage(cfg config.RedisStorageConfig) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s failed: %w", cfg.Addr, err)
	}

	logger.Info("Redis alert history ready: %s key=%s", cfg.Addr, cfg.Key)
	return newRedisStorage(client, cfg.Key, cfg.MaxLen), nil
}

func newRedisStorage(client *redis.Client, key string, maxLen int64) *RedisStorage {
	if maxLen <= 0 {
		maxLen = 100
	}
	return &RedisStorage{client: client, key: key, maxLen: maxLen}
}

// Store pushes n to the head of the list and trims the tail
func (rs *RedisStorage) Store(channel string, n alert.Notification) error {
	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("serialize alert failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	pipe := rs.client.TxPipeline()
	pipe.LPush(ctx, rs.key, b)
	pipe.LTrim(ctx, rs.key, 0, rs.maxLen-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis push to %s failed: %w", rs.key, err)
	}

	logger.Debug("stored %s alert from %s to Redis", n.Level, channel)
	return nil
}

// Recent returns up to limit alerts, newest first
func (rs *RedisStorage) Recent(limit int) ([]alert.Notification, error) {
	if limit <= 0 {
		limit = int(rs.maxLen)
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	items, err := rs.client.LRange(ctx, rs.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis read of %s failed: %w", rs.key, err)
	}

	out := make([]alert.Notification, 0, len(items))
	for _, item := range items {
		var n alert.Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			logger.Warn("skipping unreadable alert in %s: %v", rs.key, err)
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// Close closes the client
func (rs *RedisStorage) Close() error {
	return rs.client.Close()
}
