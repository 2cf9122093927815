// Package inflight tracks which controls have a request outstanding so a
// control can refuse a duplicate submission until the first one settles.
package inflight

import (
	"errors"
	"sync"
	"time"
)

var ErrBusy = errors.New("request already in progress")

type Tracker struct {
	mu      sync.Mutex
	pending map[string]time.Time
}

func New() *Tracker {
	return &Tracker{pending: make(map[string]time.Time)}
}

// Begin marks key busy. It returns a release func and true, or nil and
// false when key already has a request outstanding.
func (t *Tracker) Begin(key string) (func(), bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, busy := t.pending[key]; busy {
		return nil, false
	}
	t.pending[key] = time.Now()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.pending, key)
			t.mu.Unlock()
		})
	}, true
}

// Do runs fn while key is marked busy, or returns ErrBusy.
func (t *Tracker) Do(key string, fn func() error) error {
	release, ok := t.Begin(key)
	if !ok {
		return ErrBusy
	}
	defer release()
	return fn()
}

func (t *Tracker) Busy(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, busy := t.pending[key]
	return busy
}

// Since returns how long key has been busy, or zero when it is idle.
func (t *Tracker) Since(key string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	started, busy := t.pending[key]
	if !busy {
		return 0
	}
	return time.Since(started)
}
