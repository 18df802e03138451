package app

import (
	"context"
	"errors"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/proxydeck-tui/internal/services"
	"github.com/j-veylop/proxydeck-tui/internal/services/login"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second
)

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// defaultTickCmd returns a command that sends a TickMsg after the default interval.
func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// loadInitialData returns a command that loads all initial data.
func loadInitialData(mgr *services.Manager) tea.Cmd {
	return tea.Batch(
		bootstrapCmd(mgr),
		loadServerStatusCmd(mgr),
		loadSettingsCmd(mgr),
	)
}

// bootstrapCmd performs the first account fetch plus cached-quota seed.
func bootstrapCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		if _, err := mgr.Bootstrap(context.Background()); err != nil {
			return ErrorMsg{Error: err, Context: "initial load"}
		}
		return loadAccountsCmd(mgr)()
	}
}

// loadAccountsCmd joins the registry with cached quota state and fetches the
// auth summary.
func loadAccountsCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		accounts := mgr.AccountsWithQuota()

		msg := AccountsLoadedMsg{Accounts: accounts, History: mgr.Quota().History()}
		if summary, err := mgr.Remote().GetAuthSummary(context.Background()); err == nil {
			msg.Summary = &summary
		}
		return msg
	}
}

// loadServerStatusCmd fetches the proxy server status.
func loadServerStatusCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		status, err := mgr.Remote().GetServerStatus(context.Background())
		if err != nil {
			return ServerStatusLoadedMsg{Error: err}
		}
		return ServerStatusLoadedMsg{Status: &status}
	}
}

// loadSettingsCmd fetches the backend settings snapshot.
func loadSettingsCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		settings, err := mgr.Remote().GetSettings(context.Background())
		if err != nil {
			return SettingsLoadedMsg{Error: err}
		}
		return SettingsLoadedMsg{Settings: &settings}
	}
}

// refreshAllCmd re-fetches accounts and fans out quota refreshes.
func refreshAllCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		err := mgr.HandleRefresh(context.Background())
		return RefreshDoneMsg{Error: err}
	}
}

// startLoginCmd kicks off the login flow for a provider.
func startLoginCmd(mgr *services.Manager, provider string) tea.Cmd {
	return func() tea.Msg {
		err := mgr.Login().StartLogin(context.Background(), provider)
		return LoginStartedMsg{Provider: provider, Error: err}
	}
}

// confirmProjectIDCmd submits the project-id prompt input.
func confirmProjectIDCmd(mgr *services.Manager, accountID, input string) tea.Cmd {
	return func() tea.Msg {
		err := mgr.Login().ConfirmProjectID(context.Background(), input)
		if errors.Is(err, login.ErrEmptyProjectID) {
			return ProjectIDResultMsg{AccountID: accountID, Empty: true}
		}
		return ProjectIDResultMsg{AccountID: accountID, Error: err}
	}
}

// batchSetEnabledCmd applies enable/disable across the selection.
func batchSetEnabledCmd(mgr *services.Manager, ids []string, enabled bool) tea.Cmd {
	return func() tea.Msg {
		result := mgr.BatchSetEnabled(context.Background(), ids, enabled)
		return BatchResultMsg{Enabled: enabled, Result: result}
	}
}

// deleteAccountCmd deletes an account and reconciles the registry.
func deleteAccountCmd(mgr *services.Manager, id, label string) tea.Cmd {
	return func() tea.Msg {
		err := mgr.DeleteAccount(context.Background(), id)
		return DeleteAccountResultMsg{ID: id, Label: label, Error: err}
	}
}

// saveAPIKeyCmd stores an API-key account and reconciles the registry.
func saveAPIKeyCmd(mgr *services.Manager, provider, apiKey, label string) tea.Cmd {
	return func() tea.Msg {
		err := mgr.Remote().SaveAPIKeyAccount(context.Background(), provider, apiKey, label)
		if err == nil {
			_, err = mgr.RefreshAccounts(context.Background())
		}
		return APIKeySavedMsg{Provider: provider, Error: err}
	}
}

// toggleServerCmd starts or stops the proxy server.
func toggleServerCmd(mgr *services.Manager, start bool) tea.Cmd {
	return func() tea.Msg {
		var err error
		if start {
			err = mgr.Remote().StartServer(context.Background())
		} else {
			err = mgr.Remote().StopServer(context.Background())
		}
		return ServerToggleResultMsg{Started: start, Error: err}
	}
}

// exportAccountsCmd writes the account export file.
func exportAccountsCmd(mgr *services.Manager, path string) tea.Cmd {
	return func() tea.Msg {
		err := mgr.Remote().ExportAccountsToFile(context.Background(), path)
		return ExportResultMsg{Path: path, Error: err}
	}
}

// importAccountsCmd reads an export file back in and reconciles the registry.
func importAccountsCmd(mgr *services.Manager, path string) tea.Cmd {
	return func() tea.Msg {
		count, err := mgr.ImportAccounts(context.Background(), path)
		return ImportResultMsg{Path: path, Count: count, Error: err}
	}
}

// copyToClipboardCmd writes text to the system clipboard.
func copyToClipboardCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return ClipboardResultMsg{Error: clipboard.WriteAll(text)}
	}
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	ch, _ := mgr.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

// notifySuccessCmd returns a command that adds a success notification.
func notifySuccessCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationSuccess,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// notifyErrorCmd returns a command that adds an error notification.
func notifyErrorCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationError,
			Message:  message,
			Duration: LongNotificationDuration,
		}
	}
}

// notifyWarningCmd returns a command that adds a warning notification.
func notifyWarningCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationWarning,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// notifyInfoCmd returns a command that adds an info notification.
func notifyInfoCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationInfo,
			Message:  message,
			Duration: QuickNotificationDuration,
		}
	}
}

// delayedCmd returns a command that sends a message after a delay.
func delayedCmd(delay time.Duration, msg tea.Msg) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return msg
	})
}

// Commands provides a public interface to the command functions.
type Commands struct {
	manager *services.Manager
}

// NewCommands creates a new Commands instance.
func NewCommands(mgr *services.Manager) *Commands {
	return &Commands{manager: mgr}
}

// Tick returns a tick command with the specified interval.
func (c *Commands) Tick(interval time.Duration) tea.Cmd {
	return tickCmd(interval)
}

// LoadAccounts returns a command that loads accounts with quota.
func (c *Commands) LoadAccounts() tea.Cmd {
	return loadAccountsCmd(c.manager)
}

// LoadServerStatus returns a command that loads the proxy server status.
func (c *Commands) LoadServerStatus() tea.Cmd {
	return loadServerStatusCmd(c.manager)
}

// LoadSettings returns a command that loads the backend settings.
func (c *Commands) LoadSettings() tea.Cmd {
	return loadSettingsCmd(c.manager)
}

// RefreshAll returns a command that runs a full manual refresh.
func (c *Commands) RefreshAll() tea.Cmd {
	return refreshAllCmd(c.manager)
}

// StartLogin returns a command that begins a login flow.
func (c *Commands) StartLogin(provider string) tea.Cmd {
	return startLoginCmd(c.manager, provider)
}

// ConfirmProjectID returns a command that submits the project-id prompt.
func (c *Commands) ConfirmProjectID(accountID, input string) tea.Cmd {
	return confirmProjectIDCmd(c.manager, accountID, input)
}

// CancelProjectPrompt dismisses the project-id prompt without a backend call.
func (c *Commands) CancelProjectPrompt() {
	c.manager.Login().CancelProjectPrompt()
}

// BatchSetEnabled returns a command that applies the target state to a selection.
func (c *Commands) BatchSetEnabled(ids []string, enabled bool) tea.Cmd {
	return batchSetEnabledCmd(c.manager, ids, enabled)
}

// DeleteAccount returns a command that deletes an account.
func (c *Commands) DeleteAccount(id, label string) tea.Cmd {
	return deleteAccountCmd(c.manager, id, label)
}

// SaveAPIKey returns a command that stores an API-key account.
func (c *Commands) SaveAPIKey(provider, apiKey, label string) tea.Cmd {
	return saveAPIKeyCmd(c.manager, provider, apiKey, label)
}

// ToggleServer returns a command that starts or stops the proxy server.
func (c *Commands) ToggleServer(start bool) tea.Cmd {
	return toggleServerCmd(c.manager, start)
}

// ExportAccounts returns a command that writes the account export file.
func (c *Commands) ExportAccounts(path string) tea.Cmd {
	return exportAccountsCmd(c.manager, path)
}

// ImportAccounts returns a command that imports an account export file.
func (c *Commands) ImportAccounts(path string) tea.Cmd {
	return importAccountsCmd(c.manager, path)
}

// NotifySuccess returns a command that adds a success notification.
func (c *Commands) NotifySuccess(message string) tea.Cmd {
	return notifySuccessCmd(message)
}

// NotifyError returns a command that adds an error notification.
func (c *Commands) NotifyError(message string) tea.Cmd {
	return notifyErrorCmd(message)
}

// NotifyWarning returns a command that adds a warning notification.
func (c *Commands) NotifyWarning(message string) tea.Cmd {
	return notifyWarningCmd(message)
}

// NotifyInfo returns a command that adds an info notification.
func (c *Commands) NotifyInfo(message string) tea.Cmd {
	return notifyInfoCmd(message)
}

// Delayed returns a command that sends a message after a delay.
func (c *Commands) Delayed(delay time.Duration, msg tea.Msg) tea.Cmd {
	return delayedCmd(delay, msg)
}
