package locker

import (
	"context"
	"medilab-service/internal/app/contracts"
	"medilab-service/internal/pkg/exceptions"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only when the caller still owns it, so a
// slow handler cannot release a lock that already expired and was re-acquired
// by a concurrent delivery.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

type redisLocker struct {
	Client *redis.Client
	TTL    time.Duration
}

var (
	redisLockerInstance contracts.LockerService
	onceRedisLocker     sync.Once
)

func NewRedisLocker(client *redis.Client, ttlSeconds int) contracts.LockerService {
	onceRedisLocker.Do(func() {
		ttl := time.Duration(ttlSeconds) * time.Second
		if ttl <= 0 {
			ttl = 30 * time.Second
		}
		redisLockerInstance = &redisLocker{
			Client: client,
			TTL:    ttl,
		}
	})
	return redisLockerInstance
}

func (l *redisLocker) TryLock(ctx context.Context, key string) (bool, string, error) {
	token := uuid.New().String()
	acquired, err := l.Client.SetNX(ctx, key, token, l.TTL).Result()
	if err != nil {
		return false, "", exceptions.ErrRedisAcquireLock(err)
	}
	if !acquired {
		return false, "", nil
	}
	return true, token, nil
}

func (l *redisLocker) Unlock(ctx context.Context, key, token string) error {
	if err := l.Client.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil {
		return exceptions.ErrRedisReleaseLock(err)
	}
	return nil
}
