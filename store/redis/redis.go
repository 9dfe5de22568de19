// Package redis stores conversation snapshots in Redis, for deployments
// where conversations should survive process restarts across instances.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kalchan12/echomind/store"
)

const keyPrefix = "echomind:conversation:"

// Config holds configuration for the Redis snapshot store.
type Config struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	// TTLSeconds expires snapshots after this many seconds; zero keeps them
	// forever.
	TTLSeconds int `json:"ttl_seconds"`
}

func DefaultConfig() Config {
	return Config{Addr: "localhost:6379"}
}

// RedisStore implements store.Store on a Redis server.
type RedisStore struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, config Config) (*RedisStore, error) {
	if config.Addr == "" {
		config.Addr = DefaultConfig().Addr
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisStore{
		client: client,
		ttl:    time.Duration(config.TTLSeconds) * time.Second,
	}, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, data []byte) error {
	return s.client.Set(ctx, keyPrefix+key, data, s.ttl).Err()
}

func (s *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
