package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hustler/service"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseLockScript deletes the lock only while it still holds our token
var releaseLockScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

func sessionLockKey(discordID int64) string {
	return fmt.Sprintf("%sblackjack:session:%d", redisKeyPrefix, discordID)
}

// RedisSessionLock enforces one blackjack session per user across workers
type RedisSessionLock struct {
	client *redis.Client
}

// NewRedisSessionLock creates a session lock backed by Redis
func NewRedisSessionLock(client *redis.Client) *RedisSessionLock {
	return &RedisSessionLock{client: client}
}

// Acquire takes the user's lock with SET NX. The lock expires after ttl even
// if the holder never releases it.
func (l *RedisSessionLock) Acquire(ctx context.Context, discordID int64, ttl time.Duration) (service.ReleaseFunc, error) {
	token := uuid.NewString()
	key := sessionLockKey(discordID)

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, unavailable(fmt.Sprintf("acquire session lock for user %d", discordID), err)
	}
	if !ok {
		return nil, service.ErrSessionAlreadyActive
	}

	var once sync.Once
	var releaseErr error
	return func(ctx context.Context) error {
		once.Do(func() {
			if err := releaseLockScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
				releaseErr = unavailable(fmt.Sprintf("release session lock for user %d", discordID), err)
			}
		})
		return releaseErr
	}, nil
}
