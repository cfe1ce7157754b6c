package store

import (
	"context"
	"sync"
	"time"
)

// KeyLock serializes writers per string key with a bounded wait. A
// contended key rejects late arrivals with ErrBusy instead of queuing
// them indefinitely, so same-day resubmission storms fail fast and
// retryable.
type KeyLock struct {
	mu   sync.Mutex
	held map[string]chan struct{}
	wait time.Duration
}

func NewKeyLock(wait time.Duration) *KeyLock {
	return &KeyLock{
		held: make(map[string]chan struct{}),
		wait: wait,
	}
}

// Acquire takes the lock for key, waiting up to the configured bound.
// The returned release function must be called exactly once.
func (l *KeyLock) Acquire(ctx context.Context, key string) (release func(), err error) {
	deadline := time.Now().Add(l.wait)

	for {
		l.mu.Lock()
		ch, taken := l.held[key]
		if !taken {
			done := make(chan struct{})
			l.held[key] = done
			l.mu.Unlock()
			var once sync.Once
			return func() {
				once.Do(func() {
					l.mu.Lock()
					delete(l.held, key)
					l.mu.Unlock()
					close(done)
				})
			}, nil
		}
		l.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ErrBusy
		}

		timer := time.NewTimer(remaining)
		select {
		case <-ch:
			timer.Stop()
			// Holder released; loop and race for the lock again
		case <-timer.C:
			return nil, ErrBusy
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
}
