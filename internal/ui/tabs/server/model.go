// Package server provides the proxy server tab: process status, account
// summary, backend settings and the session quota chart.
package server

import (
	"sort"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/proxydeck-tui/internal/app"
	"github.com/j-veylop/proxydeck-tui/internal/ui/components"
)

// confirmAction tracks a pending start/stop confirmation.
type confirmAction int

const (
	confirmNone confirmAction = iota
	confirmStop
)

// keyMap defines the key bindings specific to the server tab.
type keyMap struct {
	Toggle key.Binding
	Export key.Binding
	Import key.Binding
	Escape key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Toggle: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "start/stop server"),
		),
		Export: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "export accounts"),
		),
		Import: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "import accounts"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

const defaultExchangePath = "proxydeck-accounts.json"

// Model represents the server tab state.
type Model struct {
	state  *app.State
	keys   keyMap
	width  int
	height int

	confirm confirmAction

	spinner components.LoadingSpinner
}

// New creates a new server model.
func New(state *app.State) *Model {
	return &Model{
		state:   state,
		keys:    defaultKeyMap(),
		spinner: components.NewSpinner("Loading server state..."),
	}
}

// Init initializes the server tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the server tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.confirm != confirmNone {
			return m.updateConfirm(msg)
		}

		switch {
		case key.Matches(msg, m.keys.Toggle):
			status := m.state.GetServerStatus()
			if status != nil && status.Running {
				// Stopping drops live traffic; ask first.
				m.confirm = confirmStop
				return m, nil
			}
			return m, func() tea.Msg {
				return app.ServerToggleRequestMsg{Start: true}
			}

		case key.Matches(msg, m.keys.Export):
			return m, func() tea.Msg {
				return app.ExportRequestMsg{Path: defaultExchangePath}
			}

		case key.Matches(msg, m.keys.Import):
			return m, func() tea.Msg {
				return app.ImportRequestMsg{Path: defaultExchangePath}
			}
		}
	}

	return m, nil
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (app.Tab, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.confirm = confirmNone
		return m, func() tea.Msg {
			return app.ServerToggleRequestMsg{Start: false}
		}
	case "n", "N", "esc":
		m.confirm = confirmNone
	}
	return m, nil
}

// providerBreakdown returns summary counts per provider in stable order.
func (m *Model) providerBreakdown() ([]string, []float64) {
	summary := m.state.GetSummary()
	if summary == nil || len(summary.ByProvider) == 0 {
		return nil, nil
	}

	providers := make([]string, 0, len(summary.ByProvider))
	for p := range summary.ByProvider {
		providers = append(providers, p)
	}
	sort.Strings(providers)

	counts := make([]float64, len(providers))
	for i, p := range providers {
		counts[i] = float64(summary.ByProvider[p])
	}
	return providers, counts
}

// SetSize sets the available size for the server tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Toggle,
		m.keys.Export,
		m.keys.Import,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Toggle},
		{m.keys.Export, m.keys.Import},
	}
}
