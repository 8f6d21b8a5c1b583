package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrLockHeld is returned when another holder owns the lock.
var ErrLockHeld = errors.New("lock already held")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type localLock struct {
	token     string
	expiresAt time.Time
}

// LockRepository hands out expiring exclusive locks. It uses Redis when a
// client is configured and an in-process table otherwise.
type LockRepository struct {
	client *redis.Client
	logger *zap.Logger

	mu    sync.Mutex
	local map[string]localLock
	now   func() time.Time
}

// NewLockRepository constructs a lock repository. client may be nil.
func NewLockRepository(client *redis.Client, logger *zap.Logger) *LockRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LockRepository{
		client: client,
		logger: logger,
		local:  make(map[string]localLock),
		now:    time.Now,
	}
}

// Acquire takes the lock for ttl and returns the token needed to release it.
func (r *LockRepository) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	if r.client == nil {
		return token, r.acquireLocal(key, token, ttl)
	}

	ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if !ok {
		return "", ErrLockHeld
	}
	return token, nil
}

// Release frees the lock if token still owns it.
func (r *LockRepository) Release(ctx context.Context, key, token string) error {
	if r.client == nil {
		r.releaseLocal(key, token)
		return nil
	}

	deleted, err := releaseScript.Run(ctx, r.client, []string{key}, token).Int()
	if err != nil {
		return fmt.Errorf("redis release %s: %w", key, err)
	}
	if deleted == 0 {
		r.logger.Warn("lock expired before release", zap.String("key", key))
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *LockRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

func (r *LockRepository) acquireLocal(key, token string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if held, ok := r.local[key]; ok && now.Before(held.expiresAt) {
		return ErrLockHeld
	}
	r.local[key] = localLock{token: token, expiresAt: now.Add(ttl)}
	return nil
}

func (r *LockRepository) releaseLocal(key, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if held, ok := r.local[key]; ok && held.token == token {
		delete(r.local, key)
	}
}
