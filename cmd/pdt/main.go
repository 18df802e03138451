// Package main is the entry point for the ProxyDeck TUI application.
// It initializes configuration, services, and runs the Bubble Tea program.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/j-veylop/proxydeck-tui/internal/app"
	"github.com/j-veylop/proxydeck-tui/internal/config"
	"github.com/j-veylop/proxydeck-tui/internal/models"
	"github.com/j-veylop/proxydeck-tui/internal/rpc"
	"github.com/j-veylop/proxydeck-tui/internal/services"
	"github.com/j-veylop/proxydeck-tui/internal/ui/tabs/accounts"
	"github.com/j-veylop/proxydeck-tui/internal/ui/tabs/info"
	"github.com/j-veylop/proxydeck-tui/internal/ui/tabs/server"
	"github.com/j-veylop/proxydeck-tui/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pdt",
		Short: "Terminal dashboard for a local multi-provider AI proxy",
		Long: `ProxyDeck TUI manages the accounts behind a local AI proxy backend:
OAuth logins, API keys, per-account quota, and the proxy process itself.

Keyboard Shortcuts:
  1-3             Switch between tabs (Accounts, Server, Info)
  Tab/Shift+Tab   Navigate between tabs
  Space           Toggle account selection
  a               Add account (login or API key)
  e / x           Enable / disable selected accounts
  r               Refresh accounts and quotas
  ?               Toggle help
  q, Ctrl+C       Quit`,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runTUI()
		},
	}

	root.AddCommand(newVersionCmd(), newExportCmd(), newImportCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(version.Info())
		},
	}
}

// newExportCmd writes the backend's account set to a file without starting
// the TUI. Useful for cron-driven backups.
func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Export all accounts to a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, err := newRemote()
			if err != nil {
				return err
			}
			if err := remote.ExportAccountsToFile(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			cmd.Printf("Exported accounts to %s\n", args[0])
			return nil
		},
	}
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <path>",
		Short: "Import accounts from a JSON export file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Parse the file locally first so a malformed export fails with
			// a readable error instead of a backend round trip.
			records, err := models.ReadExportFile(args[0])
			if err != nil {
				return err
			}
			remote, err := newRemote()
			if err != nil {
				return err
			}
			count, err := remote.ImportAccountsFromFile(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			cmd.Printf("Imported %d of %d account(s)\n", count, len(records))
			return nil
		},
	}
}

// newRemote builds a backend client for the headless subcommands.
func newRemote() (rpc.RemoteService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return rpc.NewClient(cfg.BackendURL, cfg.RequestTimeout,
		rpc.WithManagementKey(cfg.ManagementKey)), nil
}

// runTUI contains the main application logic, separated for cleaner error handling.
func runTUI() error {
	// 1. Load configuration from .env files and environment variables
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Initialize the service manager
	// This starts the login, quota and refresh machinery
	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	// Ensure cleanup on exit
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	// 3. Create the root Bubble Tea model
	model := app.NewModel(svcManager)

	// 4. Initialize tabs with shared state and services
	// Each tab receives the shared application state for consistent data access
	state := model.GetState()
	tabs := []app.Tab{
		accounts.New(state),  // Tab 0: Accounts - login, selection, quota
		server.New(state),    // Tab 1: Server - proxy process and summary
		info.New(state, cfg), // Tab 2: Info - configuration and app info
	}
	model.SetTabs(tabs)

	// 5. Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// 6. Create and configure the Bubble Tea program
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),       // Use alternate screen buffer (full terminal)
		tea.WithMouseCellMotion(), // Enable mouse support for selection
	)

	// 7. Handle signals in a separate goroutine
	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	// 8. Run the TUI program
	// This blocks until the user quits or an error occurs
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
