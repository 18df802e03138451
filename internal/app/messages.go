package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/proxydeck-tui/internal/models"
	"github.com/j-veylop/proxydeck-tui/internal/services"
	"github.com/j-veylop/proxydeck-tui/internal/services/batch"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// StartLoadingMsg signals that a resource is starting to load.
type StartLoadingMsg struct {
	Resource string
}

// StopLoadingMsg signals that a resource has finished loading.
type StopLoadingMsg struct {
	Resource string
}

// AccountsLoadedMsg contains the joined account/quota snapshot plus the
// backend auth summary.
type AccountsLoadedMsg struct {
	Accounts []models.AccountWithQuota
	Summary  *models.AuthSummary
	History  []float64
}

// ServerStatusLoadedMsg contains the current proxy server status.
type ServerStatusLoadedMsg struct {
	Status *models.ServerStatus
	Error  error
}

// SettingsLoadedMsg contains the backend settings snapshot.
type SettingsLoadedMsg struct {
	Settings *models.Settings
	Error    error
}

// RefreshDoneMsg reports completion of a manual full refresh.
type RefreshDoneMsg struct {
	Error error
}

// RefreshMsg requests a refresh of data.
type RefreshMsg struct {
	Resource string // "all", "accounts", "quota"
}

// LoginRequestMsg asks for a login flow to begin for a provider.
type LoginRequestMsg struct {
	Provider string
}

// ProjectIDSubmitMsg submits the project-id prompt input.
type ProjectIDSubmitMsg struct {
	AccountID string
	Input     string
}

// ProjectPromptCancelMsg dismisses the project-id prompt.
type ProjectPromptCancelMsg struct{}

// BatchRequestMsg asks for an enable/disable run over a selection.
type BatchRequestMsg struct {
	IDs     []string
	Enabled bool
}

// DeleteRequestMsg asks for an account to be deleted.
type DeleteRequestMsg struct {
	ID    string
	Label string
}

// APIKeyRequestMsg asks for an API-key account to be stored.
type APIKeyRequestMsg struct {
	Provider string
	APIKey   string
	Label    string
}

// ServerToggleRequestMsg asks for the proxy server to be started or stopped.
type ServerToggleRequestMsg struct {
	Start bool
}

// ExportRequestMsg asks for the account set to be exported to a file.
type ExportRequestMsg struct {
	Path string
}

// ImportRequestMsg asks for an export file to be imported.
type ImportRequestMsg struct {
	Path string
}

// LoginStartedMsg reports the outcome of kicking off a login flow.
type LoginStartedMsg struct {
	Provider string
	Error    error
}

// ProjectIDResultMsg reports the outcome of a project-id submission. When
// Empty is set the prompt stayed open and no backend call was made.
type ProjectIDResultMsg struct {
	AccountID string
	Empty     bool
	Error     error
}

// BatchResultMsg reports the outcome of a batch enable/disable run.
type BatchResultMsg struct {
	Enabled bool
	Result  batch.Result
}

// DeleteAccountResultMsg contains the result of an account deletion.
type DeleteAccountResultMsg struct {
	ID    string
	Label string
	Error error
}

// APIKeySavedMsg reports the outcome of saving an API-key account.
type APIKeySavedMsg struct {
	Provider string
	Error    error
}

// ServerToggleResultMsg reports the outcome of a server start/stop.
type ServerToggleResultMsg struct {
	Started bool
	Error   error
}

// ExportResultMsg contains the result of an account export.
type ExportResultMsg struct {
	Path  string
	Error error
}

// ImportResultMsg contains the result of an account import.
type ImportResultMsg struct {
	Path  string
	Count int
	Error error
}

// CopyToClipboardMsg requests copying text to the system clipboard.
type CopyToClipboardMsg struct {
	Text string
}

// ClipboardResultMsg contains the result of a clipboard operation.
type ClipboardResultMsg struct {
	Error error
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}

// DelayedMsg wraps a message to be sent after a delay.
type DelayedMsg struct {
	Delay time.Duration
	Msg   tea.Msg
}
