package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/ports"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker hands out SET NX locks that expire on their own if the holder dies.
type RedisLocker struct {
	client redis.UniversalClient
}

func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrLockNotAcquired
	}
	return func(releaseCtx context.Context) error {
		return releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}, nil
}

var _ ports.Locker = (*RedisLocker)(nil)
