package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Get returns "" with a nil error on a miss.
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, keys ...string) error
	GenerateKey(operation, key string) string
}

type redisCache struct {
	client      *redis.Client
	serviceName string
}

func NewRedisCache(addr, serviceName string) (Cache, func() error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	return &redisCache{client: client, serviceName: serviceName}, client.Close
}

func (r *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *redisCache) GenerateKey(operation, key string) string {
	return generateKey(r.serviceName, operation, key)
}

func generateKey(service, operation, key string) string {
	return fmt.Sprintf("%s:%s:%s", service, operation, key)
}

// Nop never stores anything. Used when Redis is not configured.
type Nop struct {
	ServiceName string
}

func (Nop) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (Nop) Get(context.Context, string) (string, error)                   { return "", nil }
func (Nop) Delete(context.Context, ...string) error                       { return nil }
func (n Nop) GenerateKey(operation, key string) string {
	return generateKey(n.ServiceName, operation, key)
}
