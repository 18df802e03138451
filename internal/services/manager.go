// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/proxydeck-tui/internal/config"
	"github.com/j-veylop/proxydeck-tui/internal/db"
	"github.com/j-veylop/proxydeck-tui/internal/logger"
	"github.com/j-veylop/proxydeck-tui/internal/models"
	"github.com/j-veylop/proxydeck-tui/internal/rpc"
	"github.com/j-veylop/proxydeck-tui/internal/services/batch"
	"github.com/j-veylop/proxydeck-tui/internal/services/login"
	"github.com/j-veylop/proxydeck-tui/internal/services/quotacache"
	"github.com/j-veylop/proxydeck-tui/internal/services/registry"
	"github.com/j-veylop/proxydeck-tui/internal/services/scheduler"
)

type (
	// AccountsChangedEvent is emitted when the account list changes.
	AccountsChangedEvent struct {
		Accounts []models.Account
	}

	// QuotaUpdatedEvent is emitted when an account's quota entry is replaced.
	QuotaUpdatedEvent struct {
		AccountID string
		Snapshot  *models.QuotaSnapshot
	}

	// LoginEvent wraps an orchestrator event.
	LoginEvent struct {
		Event login.Event
	}

	// SettingsFileChangedEvent is emitted when the local settings file is
	// edited externally. Values apply on the next natural restart.
	SettingsFileChangedEvent struct{}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (AccountsChangedEvent) isServiceEvent()     {}
func (QuotaUpdatedEvent) isServiceEvent()        {}
func (LoginEvent) isServiceEvent()               {}
func (SettingsFileChangedEvent) isServiceEvent() {}
func (ErrorEvent) isServiceEvent()               {}

// Manager orchestrates services and event routing.
type Manager struct {
	mu          sync.RWMutex
	remote      rpc.RemoteService
	registry    *registry.Registry
	quota       *quotacache.Cache
	login       *login.Orchestrator
	batch       *batch.Executor
	autoRefresh *scheduler.AutoRefresh
	mirror      *db.DB
	watcher     *config.Watcher

	cfg         *config.Config
	stopChan    chan struct{}
	subscribers []chan<- ServiceEvent

	notifiedLow map[string]bool
}

// NewManager creates a new service manager around a backend client.
func NewManager(cfg *config.Config) (*Manager, error) {
	remote := rpc.NewClient(cfg.BackendURL, cfg.RequestTimeout,
		rpc.WithManagementKey(cfg.ManagementKey))
	return newManager(cfg, remote)
}

// newManager wires services around any RemoteService (tests pass fakes).
func newManager(cfg *config.Config, remote rpc.RemoteService) (*Manager, error) {
	m := &Manager{
		remote:      remote,
		cfg:         cfg,
		stopChan:    make(chan struct{}),
		notifiedLow: make(map[string]bool),
	}

	var err error
	m.mirror, err = db.New(cfg.CachePath)
	if err != nil {
		// The mirror is a convenience; run without it rather than failing.
		logger.Warn("quota mirror unavailable", "error", err)
		m.mirror = nil
	}

	m.registry = registry.New(remote)
	m.quota = quotacache.New(remote, m.mirror)
	m.login = login.New(remote, m.registry)
	m.batch = batch.New(remote)
	m.autoRefresh = scheduler.NewAutoRefresh(m.readRefreshInterval, m.refreshAllKnown)

	m.watcher, err = config.NewWatcher(cfg.SettingsPath)
	if err != nil {
		logger.Warn("settings watcher unavailable", "error", err)
	}

	go m.routeEvents()

	return m, nil
}

// readRefreshInterval converts the backend's interval setting (minutes) to a
// duration, falling back to the configured default.
func (m *Manager) readRefreshInterval() time.Duration {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.RequestTimeout)
	defer cancel()

	settings, err := m.remote.GetSettings(ctx)
	if err != nil || settings.QuotaRefreshInterval <= 0 {
		if err != nil {
			logger.Warn("failed to read settings, using fallback interval", "error", err)
		}
		return m.cfg.RefreshInterval
	}
	return time.Duration(settings.QuotaRefreshInterval) * time.Minute
}

// refreshAllKnown fans a quota refresh out over the current account set.
func (m *Manager) refreshAllKnown() {
	m.quota.RefreshAll(context.Background(), m.registry.List())
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	var settingsChanges <-chan struct{}
	if m.watcher != nil {
		settingsChanges = m.watcher.Events()
	}

	for {
		select {
		case event := <-m.quota.Events():
			m.handleQuotaEvent(event)

		case event := <-m.login.Events():
			m.handleLoginEvent(event)

		case <-settingsChanges:
			m.broadcast(SettingsFileChangedEvent{})

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleQuotaEvent(event quotacache.Event) {
	m.broadcast(QuotaUpdatedEvent{AccountID: event.AccountID, Snapshot: event.Snapshot})
	if event.Snapshot != nil {
		m.checkLowQuota(event.AccountID, event.Snapshot)
	}
}

func (m *Manager) handleLoginEvent(event login.Event) {
	m.broadcast(LoginEvent{Event: event})

	switch event.Type {
	case login.EventCompleted:
		_ = beeep.Notify("Login complete",
			fmt.Sprintf("%s account added", event.Provider), "")
		// A new account may arm the auto-refresh timer.
		m.autoRefresh.Observe(m.registry.Count())
		m.quota.Seed(context.Background())
		m.broadcast(AccountsChangedEvent{Accounts: m.registry.List()})

	case login.EventFailed:
		if event.Err != nil {
			m.broadcast(ErrorEvent{Service: "login", Error: event.Err})
		}
	}
}

// checkLowQuota raises one desktop notification per account when its
// remaining quota crosses below the threshold.
func (m *Manager) checkLowQuota(accountID string, snap *models.QuotaSnapshot) {
	const threshold = 5.0

	if snap.IsError() {
		return
	}
	remaining := snap.RemainingPercent()

	m.mu.Lock()
	already := m.notifiedLow[accountID]
	if remaining < threshold && !already {
		m.notifiedLow[accountID] = true
		m.mu.Unlock()
		_ = beeep.Notify("Quota low",
			fmt.Sprintf("Account %s has %.1f%% remaining", accountID, remaining), "")
		return
	}
	if remaining >= threshold && already {
		delete(m.notifiedLow, accountID)
	}
	m.mu.Unlock()
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return event
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Bootstrap loads the initial state: accounts, cached quota seed, and the
// auto-refresh timer. Called once from the TUI's Init.
func (m *Manager) Bootstrap(ctx context.Context) ([]models.Account, error) {
	accounts, err := m.registry.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	m.quota.Seed(ctx)
	m.autoRefresh.Observe(len(accounts))
	return accounts, nil
}

// RefreshAccounts re-fetches the account list and keeps the scheduler and
// subscribers in sync.
func (m *Manager) RefreshAccounts(ctx context.Context) ([]models.Account, error) {
	accounts, err := m.registry.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	m.autoRefresh.Observe(len(accounts))
	m.broadcast(AccountsChangedEvent{Accounts: accounts})
	return accounts, nil
}

// HandleRefresh performs a manual refresh: immediate account re-fetch, then
// an unconditional quota fan-out (accounts already loading are skipped by
// the per-id in-flight guard).
func (m *Manager) HandleRefresh(ctx context.Context) error {
	accounts, err := m.RefreshAccounts(ctx)
	if err != nil {
		return err
	}
	m.quota.RefreshAll(ctx, accounts)
	return nil
}

// DeleteAccount removes an account on the backend, prunes its persisted
// quota snapshot from the local mirror, and re-fetches the account list.
func (m *Manager) DeleteAccount(ctx context.Context, id string) error {
	if err := m.remote.DeleteAccount(ctx, id); err != nil {
		return err
	}
	if m.mirror != nil {
		if err := m.mirror.DeleteQuotaRecord(ctx, id); err != nil {
			logger.Warn("failed to prune quota mirror", "account", id, "error", err)
		}
	}
	_, err := m.RefreshAccounts(ctx)
	return err
}

// ImportAccounts loads accounts from an export file, then re-fetches the
// account list and seeds cached quota so the new rows render with data.
func (m *Manager) ImportAccounts(ctx context.Context, path string) (int, error) {
	count, err := m.remote.ImportAccountsFromFile(ctx, path)
	if err != nil {
		return 0, err
	}
	if _, err := m.RefreshAccounts(ctx); err != nil {
		return count, err
	}
	m.quota.Seed(ctx)
	return count, nil
}

// AccountsWithQuota joins the current account list with cached quota state.
func (m *Manager) AccountsWithQuota() []models.AccountWithQuota {
	accounts := m.registry.List()
	result := make([]models.AccountWithQuota, len(accounts))
	for i, acc := range accounts {
		result[i] = models.AccountWithQuota{
			Account: acc,
			Quota:   m.quota.Get(acc.ID),
			Loading: m.quota.IsLoading(acc.ID),
		}
	}
	return result
}

// BatchSetEnabled runs the batch mutation; on full success the registry is
// re-fetched so the UI can reconcile and clear its selection.
func (m *Manager) BatchSetEnabled(ctx context.Context, ids []string, enabled bool) batch.Result {
	result := m.batch.SetEnabled(ctx, ids, enabled)
	if result.Succeeded() {
		if _, err := m.RefreshAccounts(ctx); err != nil {
			logger.Warn("failed to reconcile after batch", "error", err)
		}
	}
	return result
}

// Registry returns the account registry.
func (m *Manager) Registry() *registry.Registry {
	return m.registry
}

// Quota returns the quota cache.
func (m *Manager) Quota() *quotacache.Cache {
	return m.quota
}

// Login returns the login orchestrator.
func (m *Manager) Login() *login.Orchestrator {
	return m.login
}

// Remote returns the backend client.
func (m *Manager) Remote() rpc.RemoteService {
	return m.remote
}

// Close shuts down background services.
func (m *Manager) Close() error {
	close(m.stopChan)
	m.autoRefresh.Stop()

	m.mu.Lock()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	m.mu.Unlock()

	var errs []error
	if err := m.watcher.Close(); err != nil {
		errs = append(errs, err)
	}
	if m.mirror != nil {
		if err := m.mirror.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
