package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const keyPrefix = "glowdesk"

type CacheService interface {
	// JSON values, used for insight summaries
	GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Cache invalidation
	InvalidateTenantInsights(ctx context.Context, tenantID uuid.UUID) error
	InvalidatePattern(ctx context.Context, pattern string) (int, error)

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// Generic string operations for token management
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	// TakeString reads and deletes a key atomically. A missing key yields "".
	TakeString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
	log    *logrus.Logger
}

// NewRedisClient builds a client from a host:port or redis:// address.
func NewRedisClient(addr, password string, db int) *redis.Client {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsedAddr = strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")
	}

	return redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})
}

func NewRedisCacheService(client *redis.Client, log *logrus.Logger) CacheService {
	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.WithError(pingErr).WithField("addr", client.Options().Addr).Warn("Redis ping failed on initialization")
	} else {
		log.Debug("Redis connection established successfully")
	}

	return &redisCacheService{client: client, log: log}
}

// InsightsKey namespaces an insight result by tenant, kind and range.
func InsightsKey(tenantID uuid.UUID, kind string, parts ...string) string {
	return fmt.Sprintf("%s:insights:%s:%s:%s", keyPrefix, tenantID, kind, strings.Join(parts, ":"))
}

// InsightsPattern matches every cached insight result for all tenants.
func InsightsPattern() string {
	return keyPrefix + ":insights:*"
}

// RefreshTokenKey stores the owner of a hashed refresh token.
func RefreshTokenKey(tokenHash string) string {
	return fmt.Sprintf("%s:refresh_token:%s", keyPrefix, tokenHash)
}

// OAuthStateKey stores a pending social OAuth flow.
func OAuthStateKey(state string) string {
	return fmt.Sprintf("%s:oauth_state:%s", keyPrefix, state)
}

// LanguageKey caches a user's preferred language.
func LanguageKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s:lang:%s", keyPrefix, userID)
}

func (r *redisCacheService) GetJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // cache miss
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (r *redisCacheService) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) InvalidateTenantInsights(ctx context.Context, tenantID uuid.UUID) error {
	_, err := r.InvalidatePattern(ctx, fmt.Sprintf("%s:insights:%s:*", keyPrefix, tenantID))
	return err
}

// InvalidatePattern deletes keys matching pattern using SCAN so large keyspaces do not block Redis.
func (r *redisCacheService) InvalidatePattern(ctx context.Context, pattern string) (int, error) {
	var cursor uint64
	deleted := 0
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			n, err := r.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += int(n)
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := fmt.Sprintf("%s:ratelimit:%s", keyPrefix, key)
	count, err := r.client.Incr(ctx, cacheKey).Result()
	if err != nil {
		return true, err
	}

	// Set expiry on first request
	if count == 1 {
		r.client.Expire(ctx, cacheKey, window)
	}

	return count > int64(limit), nil
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil // cache miss
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) TakeString(ctx context.Context, key string) (string, error) {
	val, err := r.client.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
