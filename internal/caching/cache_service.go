package caching

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type CacheService interface {
	// Questionnaire ownership cache. The import pipeline probes the same
	// questionnaire id thousands of times per file; a positive entry saves
	// a round trip per row.
	GetQuestionnaireOwned(ctx context.Context, tenantID, questionnaireID uuid.UUID) (bool, bool, error)
	SetQuestionnaireOwned(ctx context.Context, tenantID, questionnaireID uuid.UUID, owned bool, ttl time.Duration) error
	InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error

	// Rate limiting (login attempts)
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// Generic string operations
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis://host:port as well as bare host:port
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func questionnaireOwnedKey(tenantID, questionnaireID uuid.UUID) string {
	return fmt.Sprintf("ddqhub:qn_owned:%s:%s", tenantID.String(), questionnaireID.String())
}

// GetQuestionnaireOwned returns (owned, found, err); found is false on a miss.
func (r *redisCacheService) GetQuestionnaireOwned(ctx context.Context, tenantID, questionnaireID uuid.UUID) (bool, bool, error) {
	val, err := r.client.Get(ctx, questionnaireOwnedKey(tenantID, questionnaireID)).Result()
	if err != nil {
		if err == redis.Nil {
			return false, false, nil // cache miss
		}
		return false, false, err
	}
	return val == "1", true, nil
}

func (r *redisCacheService) SetQuestionnaireOwned(ctx context.Context, tenantID, questionnaireID uuid.UUID, owned bool, ttl time.Duration) error {
	val := "0"
	if owned {
		val = "1"
	}
	return r.client.Set(ctx, questionnaireOwnedKey(tenantID, questionnaireID), val, ttl).Err()
}

func (r *redisCacheService) InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error {
	pattern := fmt.Sprintf("ddqhub:*:%s:*", tenantID.String())
	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		return err
	}

	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := fmt.Sprintf("ddqhub:ratelimit:%s", key)
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
		if err == redis.Nil {
			return "", nil // cache miss
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
