package chat

import (
	"sync"
	"time"
)

// limiter admits at most limit calls per key within any trailing window.
// Expired timestamps are dropped on each call; rejected calls are not
// recorded.
type limiter struct {
	limit  int
	window time.Duration
	now    func() time.Time
	hits   map[string][]time.Time
	mtx    sync.Mutex
}

func (l *limiter) Allow(key string) bool {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	recent := l.hits[key][:0]
	for _, t := range l.hits[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= l.limit {
		l.hits[key] = recent
		return false
	}

	l.hits[key] = append(recent, now)

	return true
}

func newLimiter(limit int, window time.Duration, now func() time.Time) *limiter {
	return &limiter{
		limit:  limit,
		window: window,
		now:    now,
		hits:   map[string][]time.Time{},
		mtx:    sync.Mutex{},
	}
}
