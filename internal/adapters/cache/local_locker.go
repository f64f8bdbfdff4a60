package cache

import (
	"context"
	"sync"
	"time"

	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/ports"
)

// LocalLocker serializes work inside one process when Redis is not configured.
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]time.Time
	nowFn func() time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]time.Time), nowFn: time.Now}
}

func (l *LocalLocker) Acquire(_ context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.nowFn()
	if until, ok := l.held[key]; ok && until.After(now) {
		return nil, domain.ErrLockNotAcquired
	}
	until := now.Add(ttl)
	l.held[key] = until
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.held[key].Equal(until) {
			delete(l.held, key)
		}
		return nil
	}, nil
}

var _ ports.Locker = (*LocalLocker)(nil)
