// Package globaltime is the process-wide clock. Report windows are computed
// from it, so tests can pin the current time instead of guessing day
// boundaries.
package globaltime

import (
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	nowFunc = time.Now
)

// UTC returns the current time in UTC.
func UTC() time.Time {
	mu.RLock()
	defer mu.RUnlock()
	return nowFunc().UTC()
}

// SetMockTime freezes the clock at t until ResetTime is called.
func SetMockTime(t time.Time) {
	mu.Lock()
	defer mu.Unlock()
	nowFunc = func() time.Time { return t }
}

// ResetTime restores the wall clock.
func ResetTime() {
	mu.Lock()
	defer mu.Unlock()
	nowFunc = time.Now
}
