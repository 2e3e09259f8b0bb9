package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/port"
)

// Config параметры подключения к Redis
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// KeyPrefix is prepended to every snapshot key.
	KeyPrefix string
}

// RedisSnapshotStore implements port.SnapshotStore on a Redis string key.
// Keys never expire.
type RedisSnapshotStore struct {
	client *redis.Client
	prefix string
}

// NewRedisSnapshotStore connects and pings Redis
func NewRedisSnapshotStore(ctx context.Context, cfg Config) (*RedisSnapshotStore, error) {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 10
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		MaxRetries:   3,
	})

	// Test connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewFromClient(client, cfg.KeyPrefix), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *redis.Client, prefix string) *RedisSnapshotStore {
	return &RedisSnapshotStore{client: client, prefix: prefix}
}

// Load retrieves the snapshot
func (s *RedisSnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, port.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return val, nil
}

// Save stores the snapshot without TTL
func (s *RedisSnapshotStore) Save(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, s.key(key), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set snapshot: %w", err)
	}
	return nil
}

func (s *RedisSnapshotStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisSnapshotStore) Close() error {
	return s.client.Close()
}

func (s *RedisSnapshotStore) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}
