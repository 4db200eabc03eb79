package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"delivery-system/pkg/constants"
)

// ErrCacheMiss - промах кеша для реализаций без redis (моки, память).
var ErrCacheMiss = errors.New("cache miss")

func isRedisNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

// RedisCacheRepository - реализация кеша на Redis.
type RedisCacheRepository struct {
	client *redis.Client
}

func NewRedisCacheRepository(client *redis.Client) CacheRepositoryInterface {
	return &RedisCacheRepository{client: client}
}

func (r *RedisCacheRepository) Get(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

func (r *RedisCacheRepository) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

func (r *RedisCacheRepository) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, value, expiration).Result()
}

func (r *RedisCacheRepository) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

// Incr атомарно увеличивает значение ключа на 1.
func (r *RedisCacheRepository) Incr(ctx context.Context, key string) (int64, error) {
	return r.client.Incr(ctx, key).Result()
}

func (r *RedisCacheRepository) Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	return r.client.Expire(ctx, key, expiration).Result()
}

// TokenBlacklistInterface - отозванные access-токены (по jti) до момента их истечения.
type TokenBlacklistInterface interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
	// ConsumeToken отзывает токен и возвращает true только первому вызвавшему.
	ConsumeToken(ctx context.Context, jti string, ttl time.Duration) (bool, error)
}

type tokenBlacklist struct {
	cache CacheRepositoryInterface
}

func NewTokenBlacklist(cache CacheRepositoryInterface) TokenBlacklistInterface {
	return &tokenBlacklist{cache: cache}
}

func (b *tokenBlacklist) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return b.cache.Set(ctx, fmt.Sprintf(constants.CacheKeyRevokedToken, jti), "1", ttl)
}

func (b *tokenBlacklist) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	_, err := b.cache.Get(ctx, fmt.Sprintf(constants.CacheKeyRevokedToken, jti))
	if err != nil {
		if IsCacheMiss(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (b *tokenBlacklist) ConsumeToken(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, nil
	}
	return b.cache.SetNX(ctx, fmt.Sprintf(constants.CacheKeyRevokedToken, jti), "1", ttl)
}
