package scheduler

import (
	"sync"
	"time"

	"github.com/j-veylop/proxydeck-tui/internal/logger"
)

// DefaultInterval is used when the backend settings cannot be read or
// report a non-positive interval.
const DefaultInterval = 5 * time.Minute

// AutoRefresh drives periodic quota refresh for all known accounts.
//
// The timer is only (re)armed on the empty-to-nonempty account transition;
// an interval changed mid-session takes effect on the next such restart.
type AutoRefresh struct {
	mu           sync.Mutex
	task         Task
	readInterval func() time.Duration
	refresh      func()
	lastCount    int
}

// NewAutoRefresh creates a scheduler. readInterval is consulted once per
// (re)arm; refresh fans out the actual quota work.
func NewAutoRefresh(readInterval func() time.Duration, refresh func()) *AutoRefresh {
	return &AutoRefresh{
		readInterval: readInterval,
		refresh:      refresh,
	}
}

// Observe reacts to the current account count. Arms the timer when accounts
// first appear, tears it down when the set empties, and does nothing on
// other transitions. Callers race in from tea.Cmd goroutines and from event
// routing, so the transition check is serialized.
func (a *AutoRefresh) Observe(accountCount int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	prev := a.lastCount
	a.lastCount = accountCount

	switch {
	case prev == 0 && accountCount > 0:
		interval := a.readInterval()
		if interval <= 0 {
			interval = DefaultInterval
		}
		logger.Debug("arming quota auto-refresh", "interval", interval)
		a.task.Start(interval, a.refresh)

	case prev > 0 && accountCount == 0:
		logger.Debug("account set empty, stopping quota auto-refresh")
		a.task.Stop()
	}
}

// Running reports whether the refresh timer is armed.
func (a *AutoRefresh) Running() bool {
	return a.task.Running()
}

// Stop tears the timer down unconditionally.
func (a *AutoRefresh) Stop() {
	a.mu.Lock()
	a.lastCount = 0
	a.mu.Unlock()
	a.task.Stop()
}
