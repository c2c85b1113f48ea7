package jobstore

import (
	"context"
	"sync"
)

// Process-wide writer locks keyed by repository key. Each lock is a one-slot
// channel so acquisition can be abandoned when the context ends.
var (
	locksMu sync.Mutex
	locks   = make(map[string]chan struct{})
)

func lockFor(key string) chan struct{} {
	locksMu.Lock()
	defer locksMu.Unlock()

	l, ok := locks[key]
	if !ok {
		l = make(chan struct{}, 1)
		locks[key] = l
	}
	return l
}

// acquire blocks until the writer lock for key is held or ctx is done.
func acquire(ctx context.Context, key string) (release func(), err error) {
	l := lockFor(key)
	select {
	case l <- struct{}{}:
		return func() { <-l }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
