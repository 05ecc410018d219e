package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/business-trip/internal/application/port"
	"github.com/garyjia/business-trip/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisConfig tunes the lease
type RedisConfig struct {
	Prefix   string
	TTL      time.Duration
	Wait     time.Duration
	RetryGap time.Duration
}

// RedisLocker holds a per-trip lease in Redis so several instances can share one database
type RedisLocker struct {
	client *redis.Client
	cfg    RedisConfig
	logger *zap.Logger
}

// NewRedisLocker creates a Redis-backed locker
func NewRedisLocker(client *redis.Client, cfg RedisConfig, logger *zap.Logger) *RedisLocker {
	if cfg.Prefix == "" {
		cfg.Prefix = "lock:trip:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.Wait <= 0 {
		cfg.Wait = DefaultWait
	}
	if cfg.RetryGap <= 0 {
		cfg.RetryGap = 50 * time.Millisecond
	}
	return &RedisLocker{client: client, cfg: cfg, logger: logger}
}

// Lock polls SETNX until the lease is taken or the wait limit passes
func (l *RedisLocker) Lock(ctx context.Context, tripID string) (func(), error) {
	key := l.cfg.Prefix + tripID
	token := uuid.NewString()
	deadline := time.Now().Add(l.cfg.Wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.cfg.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire trip lock: %w", err)
		}
		if ok {
			break
		}

		if time.Now().Add(l.cfg.RetryGap).After(deadline) {
			return nil, fmt.Errorf("%w: trip %s is locked by another writer", entity.ErrConcurrentModification, tripID)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.cfg.RetryGap):
		}
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()

		err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			l.logger.Warn("Failed to release trip lock",
				zap.String("trip_id", tripID),
				zap.Error(err))
		}
	}, nil
}

// Verify interface compliance
var _ port.TripLocker = (*RedisLocker)(nil)
