// Package quotacache ingests per-provider quota payloads, merges them with
// persisted snapshots and serves them to the UI with in-flight de-duplication.
package quotacache

import (
	"context"
	"sync"
	"time"

	"github.com/j-veylop/proxydeck-tui/internal/db"
	"github.com/j-veylop/proxydeck-tui/internal/logger"
	"github.com/j-veylop/proxydeck-tui/internal/models"
	"github.com/j-veylop/proxydeck-tui/internal/rpc"
)

// Event is emitted whenever an account's cache entry is replaced.
type Event struct {
	AccountID string
	Snapshot  *models.QuotaSnapshot
}

// Cache holds per-account quota state. Entries are replaced wholesale and
// never proactively evicted; a deleted account's stale entry simply stops
// being rendered.
type Cache struct {
	mu       sync.RWMutex
	entries  map[string]*models.QuotaSnapshot
	inflight map[string]bool

	remote rpc.RemoteService
	mirror *db.DB // optional local snapshot mirror

	eventChan chan Event

	historyMu sync.Mutex
	history   []float64
}

// New creates a cache. mirror may be nil to disable local persistence.
func New(remote rpc.RemoteService, mirror *db.DB) *Cache {
	return &Cache{
		entries:   make(map[string]*models.QuotaSnapshot),
		inflight:  make(map[string]bool),
		remote:    remote,
		mirror:    mirror,
		eventChan: make(chan Event, 100),
	}
}

// Events returns the update event channel.
func (c *Cache) Events() <-chan Event {
	return c.eventChan
}

// Get returns the cached snapshot for an account, or nil.
func (c *Cache) Get(accountID string) *models.QuotaSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[accountID]
}

// IsLoading reports whether a fetch for the account is in flight.
func (c *Cache) IsLoading(accountID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inflight[accountID]
}

// Refresh fetches a fresh snapshot for the account. A call for an id that is
// already loading is a no-op: not queued, not an error, zero backend calls.
// Providers without a known quota family are skipped entirely.
func (c *Cache) Refresh(ctx context.Context, account models.Account) {
	family := models.FamilyFor(account.Provider)
	if family == models.FamilyNone {
		return
	}

	c.mu.Lock()
	if c.inflight[account.ID] {
		c.mu.Unlock()
		return
	}
	c.inflight[account.ID] = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.inflight, account.ID)
		c.mu.Unlock()
	}()

	snapshot := c.fetch(ctx, account, family)
	c.put(account, snapshot)
}

// fetch dispatches to the family-specific backend operation. Errors become
// data: the returned snapshot always matches the account's family.
func (c *Cache) fetch(ctx context.Context, account models.Account, family models.QuotaFamily) *models.QuotaSnapshot {
	now := time.Now().Unix()
	snap := &models.QuotaSnapshot{Family: family}

	switch family {
	case models.FamilyPercentageModel:
		payload, err := c.remote.FetchAntigravityQuota(ctx, account.ID)
		if err != nil {
			payload = &models.PercentageModelQuota{LastUpdated: now, IsError: true, ErrorMessage: err.Error()}
		}
		snap.Percentage = payload

	case models.FamilyUsageWindow:
		payload, err := c.remote.FetchCodexQuota(ctx, account.ID)
		if err != nil {
			payload = &models.UsageWindowQuota{LastUpdated: now, IsError: true, ErrorMessage: err.Error()}
		}
		snap.Window = payload

	case models.FamilyFractionModel:
		payload, err := c.remote.FetchGeminiQuota(ctx, account.ID)
		if err != nil {
			payload = &models.FractionModelQuota{LastUpdated: now, IsError: true, ErrorMessage: err.Error()}
		}
		snap.Fraction = payload

	case models.FamilyCumulativeUsage:
		payload, err := c.remote.FetchKiroQuota(ctx, account.ID)
		if err != nil {
			payload = &models.CumulativeUsageQuota{LastUpdated: now, IsError: true, ErrorMessage: err.Error()}
		}
		snap.Cumulative = payload
	}

	return snap
}

// put replaces the entry wholesale, persists to the local mirror and emits
// an update event.
func (c *Cache) put(account models.Account, snapshot *models.QuotaSnapshot) {
	c.mu.Lock()
	c.entries[account.ID] = snapshot
	c.mu.Unlock()

	if c.mirror != nil && !snapshot.IsError() {
		record, err := snapshot.EncodeRecord(account.ID, account.Provider)
		if err != nil {
			logger.Warn("failed to encode quota snapshot", "account", account.ID, "error", err)
		} else if err := c.mirror.SaveQuotaRecord(context.Background(), record); err != nil {
			logger.Warn("failed to mirror quota snapshot", "account", account.ID, "error", err)
		}
	}

	c.sendEvent(Event{AccountID: account.ID, Snapshot: snapshot})
}

// RefreshAll fans out a refresh for every account. Accounts already loading
// are skipped by the per-id guard inside Refresh.
func (c *Cache) RefreshAll(ctx context.Context, accounts []models.Account) {
	var wg sync.WaitGroup
	for _, account := range accounts {
		if models.FamilyFor(account.Provider) == models.FamilyNone {
			continue
		}
		wg.Add(1)
		go func(acc models.Account) {
			defer wg.Done()
			c.Refresh(ctx, acc)
		}(account)
	}
	wg.Wait()

	c.sample(accounts)
}

// Seed merges persisted records into the cache: first the backend's cached
// set, then the local mirror for anything the backend did not report.
// Malformed records are logged and skipped, never fatal.
func (c *Cache) Seed(ctx context.Context) {
	if records, err := c.remote.GetCachedQuotas(ctx); err != nil {
		logger.Warn("failed to load cached quotas from backend", "error", err)
	} else {
		c.merge(records)
	}

	if c.mirror == nil {
		return
	}
	if records, err := c.mirror.GetAllQuotaRecords(ctx); err != nil {
		logger.Warn("failed to load local quota mirror", "error", err)
	} else {
		c.merge(records)
	}
}

// merge applies persisted records without clobbering fresher in-memory data.
func (c *Cache) merge(records map[string]models.CachedQuotaRecord) {
	for accountID, record := range records {
		snapshot, err := record.DecodeSnapshot()
		if err != nil {
			logger.Warn("skipping malformed cached quota", "account", accountID, "error", err)
			continue
		}

		c.mu.Lock()
		existing := c.entries[accountID]
		if existing == nil || snapshot.LastUpdated().After(existing.LastUpdated()) {
			c.entries[accountID] = snapshot
			c.mu.Unlock()
			c.sendEvent(Event{AccountID: accountID, Snapshot: snapshot})
			continue
		}
		c.mu.Unlock()
	}
}

// sample appends the mean remaining percentage across accounts with data to
// the session history series.
func (c *Cache) sample(accounts []models.Account) {
	c.mu.RLock()
	var total float64
	var n int
	for _, account := range accounts {
		snap := c.entries[account.ID]
		if snap == nil || snap.IsError() {
			continue
		}
		total += snap.RemainingPercent()
		n++
	}
	c.mu.RUnlock()

	if n == 0 {
		return
	}

	c.historyMu.Lock()
	c.history = append(c.history, total/float64(n))
	// Bound the session series; one value per refresh tick.
	if len(c.history) > 288 {
		c.history = c.history[len(c.history)-288:]
	}
	c.historyMu.Unlock()
}

// History returns a copy of the session remaining-percentage series.
func (c *Cache) History() []float64 {
	c.historyMu.Lock()
	defer c.historyMu.Unlock()

	out := make([]float64, len(c.history))
	copy(out, c.history)
	return out
}

// sendEvent sends an event to the event channel non-blocking.
func (c *Cache) sendEvent(event Event) {
	select {
	case c.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-c.eventChan:
		default:
		}
		select {
		case c.eventChan <- event:
		default:
		}
	}
}
