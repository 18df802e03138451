// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	"github.com/j-veylop/proxydeck-tui/internal/models"
	"github.com/j-veylop/proxydeck-tui/internal/services/login"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// LoadingState tracks loading states for different resources.
type LoadingState struct {
	Initial  bool
	Accounts bool
	Quota    bool
	Batch    bool
	Login    bool
}

// State is the shared application state read by every tab.
type State struct {
	mu sync.RWMutex

	Accounts             []models.AccountWithQuota
	Summary              *models.AuthSummary
	ServerStatus         *models.ServerStatus
	Settings             *models.Settings
	SelectedAccountIndex int

	// Multi-select set for batch enable/disable, keyed by account id.
	selection map[string]bool

	PendingLogin  *login.PendingLogin
	ProjectPrompt *login.ProjectPrompt

	Loading LoadingState

	LastUpdated time.Time

	// Session series of mean remaining percentage, one point per refresh.
	History []float64

	notifications   []Notification
	notificationSeq int
}

// NewState creates an empty application state.
func NewState() *State {
	return &State{
		Accounts:  make([]models.AccountWithQuota, 0),
		selection: make(map[string]bool),
		Loading: LoadingState{
			Initial: true,
		},
	}
}

// SetLoading sets the loading state for a specific resource.
func (s *State) SetLoading(resource string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch resource {
	case "initial":
		s.Loading.Initial = loading
	case "accounts":
		s.Loading.Accounts = loading
	case "quota":
		s.Loading.Quota = loading
	case "batch":
		s.Loading.Batch = loading
	case "login":
		s.Loading.Login = loading
	}
}

// AnyLoading returns true if any resource is currently loading.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.Loading.Initial ||
		s.Loading.Accounts ||
		s.Loading.Quota ||
		s.Loading.Batch ||
		s.Loading.Login
}

// IsInitialLoading returns true if initial data is still loading.
func (s *State) IsInitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Initial
}

// SetAccounts updates the accounts list, dropping selection entries for
// accounts that no longer exist.
func (s *State) SetAccounts(accounts []models.AccountWithQuota) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Accounts = accounts
	s.LastUpdated = time.Now()

	known := make(map[string]bool, len(accounts))
	for _, acc := range accounts {
		known[acc.ID] = true
	}
	for id := range s.selection {
		if !known[id] {
			delete(s.selection, id)
		}
	}

	if s.SelectedAccountIndex >= len(accounts) {
		s.SelectedAccountIndex = max(0, len(accounts)-1)
	}
}

// GetAccounts returns a copy of the accounts list.
func (s *State) GetAccounts() []models.AccountWithQuota {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]models.AccountWithQuota, len(s.Accounts))
	copy(accounts, s.Accounts)
	return accounts
}

// GetAccountCount returns the number of accounts.
func (s *State) GetAccountCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.Accounts)
}

// ToggleSelection flips the selection mark for an account id.
func (s *State) ToggleSelection(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selection[id] {
		delete(s.selection, id)
	} else {
		s.selection[id] = true
	}
}

// IsSelected reports whether an account id is in the selection set.
func (s *State) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection[id]
}

// SelectedIDs returns the selection set in current list order.
func (s *State) SelectedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.selection))
	for _, acc := range s.Accounts {
		if s.selection[acc.ID] {
			ids = append(ids, acc.ID)
		}
	}
	return ids
}

// SelectionCount returns the number of selected accounts.
func (s *State) SelectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.selection)
}

// ClearSelection empties the selection set.
func (s *State) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = make(map[string]bool)
}

// SetHistory replaces the session remaining-percentage series.
func (s *State) SetHistory(history []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.History = history
}

// GetHistory returns the session remaining-percentage series.
func (s *State) GetHistory() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]float64, len(s.History))
	copy(out, s.History)
	return out
}

// SetSummary updates the auth summary.
func (s *State) SetSummary(summary *models.AuthSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Summary = summary
}

// GetSummary returns the current auth summary.
func (s *State) GetSummary() *models.AuthSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Summary
}

// SetServerStatus updates the proxy server status.
func (s *State) SetServerStatus(status *models.ServerStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ServerStatus = status
}

// GetServerStatus returns the proxy server status.
func (s *State) GetServerStatus() *models.ServerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ServerStatus
}

// SetSettings updates the backend settings snapshot.
func (s *State) SetSettings(settings *models.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Settings = settings
}

// GetSettings returns the backend settings snapshot.
func (s *State) GetSettings() *models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Settings
}

// SetPendingLogin records the in-flight login for display.
func (s *State) SetPendingLogin(p *login.PendingLogin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PendingLogin = p
}

// GetPendingLogin returns the in-flight login marker, or nil.
func (s *State) GetPendingLogin() *login.PendingLogin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.PendingLogin
}

// SetProjectPrompt records the open project-id prompt for display.
func (s *State) SetProjectPrompt(p *login.ProjectPrompt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ProjectPrompt = p
}

// GetProjectPrompt returns the open project-id prompt, or nil.
func (s *State) GetProjectPrompt() *login.ProjectPrompt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ProjectPrompt
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := time.Now().Format("20060102150405") + "-" + string(rune('A'+s.notificationSeq%26))

	notification := Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	}

	s.notifications = append(s.notifications, notification)

	// Keep only the last 10 notifications
	if len(s.notifications) > 10 {
		s.notifications = s.notifications[len(s.notifications)-10:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Clear expired inline when reading
	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}

	return active
}

// ClearAllNotifications removes all notifications.
func (s *State) ClearAllNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = make([]Notification, 0)
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  0,
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// GetLastUpdated returns the last time the state was updated.
func (s *State) GetLastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastUpdated
}

// TimeSinceUpdate returns the duration since the last update.
func (s *State) TimeSinceUpdate() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.LastUpdated.IsZero() {
		return 0
	}
	return time.Since(s.LastUpdated)
}

// GetSelectedAccountIndex returns the currently highlighted account index.
func (s *State) GetSelectedAccountIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.SelectedAccountIndex
}

// SetSelectedAccountIndex updates the highlighted account index.
func (s *State) SetSelectedAccountIndex(idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SelectedAccountIndex = idx
}
