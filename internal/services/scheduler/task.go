// Package scheduler provides the repeating-task primitive and the quota
// auto-refresh scheduler built on it.
package scheduler

import (
	"sync"
	"time"
)

// Task is a cancellable repeating task. Start replaces any previous run;
// Stop is idempotent. The callback runs on its own goroutine, never
// concurrently with itself for the same Task.
type Task struct {
	mu       sync.Mutex
	stopChan chan struct{}
}

// Start arms the task with the given period. A zero or negative period is
// ignored. Any previously running task is stopped first.
func (t *Task) Start(period time.Duration, fn func()) {
	if period <= 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()

	stop := make(chan struct{})
	t.stopChan = stop

	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-stop:
				return
			}
		}
	}()
}

// Stop cancels the task if running.
func (t *Task) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Task) stopLocked() {
	if t.stopChan != nil {
		close(t.stopChan)
		t.stopChan = nil
	}
}

// Running reports whether the task is currently armed.
func (t *Task) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopChan != nil
}
