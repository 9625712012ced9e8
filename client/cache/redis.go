package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists the cache in Redis so it survives restarts.
type RedisStore struct {
	client *redis.Client
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func NewRedisStore(config *RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return &RedisStore{
		client: client,
	}, nil
}

func (r *RedisStore) Get(ctx context.Context, owner string, kind Kind) ([]byte, bool, error) {
	raw, err := r.client.Get(ctx, storageKey(owner, kind)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (r *RedisStore) Put(ctx context.Context, owner string, kind Kind, value []byte) error {
	return r.client.Set(ctx, storageKey(owner, kind), value, 0).Err()
}

func (r *RedisStore) Delete(ctx context.Context, owner string, kind Kind) error {
	return r.client.Del(ctx, storageKey(owner, kind)).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
