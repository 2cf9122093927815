// Package rate counts attempts per key in fixed windows.
package rate

import (
	"sync"
	"time"
)

type Limiter interface {
	Allow(key string) (bool, time.Duration)
	Reset(key string)
}

// sweepAt is the bucket count above which expired buckets are dropped.
const sweepAt = 1024

type Window struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]bucket
}

type bucket struct {
	count   int
	resetAt time.Time
}

// NewWindow allows limit attempts per key within each window.
func NewWindow(limit int, window time.Duration) *Window {
	return &Window{
		limit:   limit,
		window:  window,
		now:     time.Now,
		buckets: make(map[string]bucket),
	}
}

// Allow records an attempt for key. When the key is over its limit it
// returns false and how long until the window resets.
func (w *Window) Allow(key string) (bool, time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	b, ok := w.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		if len(w.buckets) >= sweepAt {
			w.sweep(now)
		}
		b = bucket{resetAt: now.Add(w.window)}
	}
	if b.count >= w.limit {
		return false, b.resetAt.Sub(now)
	}
	b.count++
	w.buckets[key] = b
	return true, b.resetAt.Sub(now)
}

// Reset forgets key, e.g. after a successful sign-in.
func (w *Window) Reset(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.buckets, key)
}

func (w *Window) sweep(now time.Time) {
	for k, b := range w.buckets {
		if !now.Before(b.resetAt) {
			delete(w.buckets, k)
		}
	}
}
