package service

import (
	"context"
	"sync"
	"time"
)

// memorySessionLock holds session locks in process memory. It is enough for a
// single dispatcher; deployments with several workers use the Redis lock.
type memorySessionLock struct {
	mu     sync.Mutex
	active map[int64]struct{}
}

// NewMemorySessionLock creates an in-process session lock
func NewMemorySessionLock() SessionLock {
	return &memorySessionLock{active: make(map[int64]struct{})}
}

func (l *memorySessionLock) Acquire(ctx context.Context, discordID int64, ttl time.Duration) (ReleaseFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.active[discordID]; ok {
		return nil, ErrSessionAlreadyActive
	}
	l.active[discordID] = struct{}{}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.active, discordID)
			l.mu.Unlock()
		})
		return nil
	}, nil
}
