package chat

import (
	"context"
	"sync"
)

// locks hands out one single-slot semaphore per session so waiting for a
// busy session can be abandoned when the request context ends.
type locks struct {
	slots map[string]chan struct{}
	mtx   sync.Mutex
}

func (l *locks) Lock(ctx context.Context, key string) (func(), error) {
	l.mtx.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[key] = slot
	}
	l.mtx.Unlock()

	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func newLocks() *locks {
	return &locks{
		slots: map[string]chan struct{}{},
		mtx:   sync.Mutex{},
	}
}
