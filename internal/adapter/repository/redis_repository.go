package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	domainRepo "github.com/wekeepgrowing/wallet-ledger/internal/domain/repository"
	"go.uber.org/zap"
)

const (
	lockKeyPrefix        = "ledger:lock:"
	idempotencyKeyPrefix = "ledger:idem:"
	idempotencyInFlight  = "in-flight"
)

// releaseScript deletes the lock only if this holder still owns it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisRepository implements Locker and IdempotencyStore on a single client
type RedisRepository struct {
	client *redis.Client
	logger *zap.Logger
}

var (
	_ domainRepo.Locker           = (*RedisRepository)(nil)
	_ domainRepo.IdempotencyStore = (*RedisRepository)(nil)
)

// NewRedisRepository creates a Redis-backed lock and idempotency store
func NewRedisRepository(client *redis.Client, logger *zap.Logger) *RedisRepository {
	return &RedisRepository{
		client: client,
		logger: logger,
	}
}

// Acquire takes a lease with SET NX. The token makes release safe after expiry.
func (r *RedisRepository) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	token := uuid.NewString()
	fullKey := lockKeyPrefix + key

	ok, err := r.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		r.logger.Error("Redis lock acquire failed", zap.String("key", fullKey), zap.Error(err))
		return nil, false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, r.client, []string{fullKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			r.logger.Warn("Redis lock release failed", zap.String("key", fullKey), zap.Error(err))
			return err
		}
		return nil
	}
	return release, true, nil
}

func (r *RedisRepository) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, idempotencyKeyPrefix+key, idempotencyInFlight, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	return ok, nil
}

func (r *RedisRepository) Get(ctx context.Context, key string) (*domainRepo.StoredResponse, error) {
	value, err := r.client.Get(ctx, idempotencyKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		r.logger.Error("Redis Get failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	if string(value) == idempotencyInFlight {
		return nil, nil
	}

	var resp domainRepo.StoredResponse
	if err := json.Unmarshal(value, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode stored response: %w", err)
	}
	return &resp, nil
}

func (r *RedisRepository) Save(ctx context.Context, key string, resp *domainRepo.StoredResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, idempotencyKeyPrefix+key, data, ttl).Err(); err != nil {
		r.logger.Error("Redis Set failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (r *RedisRepository) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, idempotencyKeyPrefix+key).Err()
}
