// Package accounts provides the account management tab: the account table
// with multi-select, login flows, and the Google project-id prompt.
package accounts

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/proxydeck-tui/internal/app"
	"github.com/j-veylop/proxydeck-tui/internal/models"
	"github.com/j-veylop/proxydeck-tui/internal/ui/components"
	"github.com/j-veylop/proxydeck-tui/internal/ui/styles"
)

// mode identifies which input surface owns the keyboard.
type mode int

const (
	modeList mode = iota
	modeLoginMenu
	modeAPIKeyForm
	modeConfirmDelete
)

// formField represents which field is currently focused in the API-key form.
type formField int

const (
	fieldAPIKey formField = iota
	fieldLabel
	fieldSubmit
	fieldCancel
)

// keyMap defines the key bindings specific to the accounts tab.
type keyMap struct {
	Select  key.Binding
	Enable  key.Binding
	Disable key.Binding
	Delete  key.Binding
	Add     key.Binding
	Escape  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Select: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle select"),
		),
		Enable: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "enable"),
		),
		Disable: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "disable"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		Add: key.NewBinding(
			key.WithKeys("a", "n"),
			key.WithHelp("a", "add account"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// Model represents the accounts tab state.
type Model struct {
	state  *app.State
	table  table.Model
	width  int
	height int

	mode mode
	keys keyMap

	// Row index -> account id, rebuilt with the table rows.
	rowIDs []string

	// Login provider menu.
	providers []string
	menuIndex int

	// API-key form.
	formProvider string
	focusedField formField
	keyInput     textinput.Model
	labelInput   textinput.Model

	// Google project-id prompt.
	projectInput textinput.Model

	// Delete confirmation.
	deleteID    string
	deleteLabel string

	// Animated remaining-quota bar for the highlighted account.
	quotaBar components.QuotaBar

	spinner components.LoadingSpinner
	frame   int
}

// New creates a new accounts model.
func New(state *app.State) *Model {
	keyInput := textinput.New()
	keyInput.Placeholder = "Paste API key..."
	keyInput.CharLimit = 500
	keyInput.Width = 40
	keyInput.EchoMode = textinput.EchoPassword

	labelInput := textinput.New()
	labelInput.Placeholder = "Label (optional)"
	labelInput.CharLimit = 100
	labelInput.Width = 40

	projectInput := textinput.New()
	projectInput.Placeholder = "my-gcp-project"
	projectInput.CharLimit = 100
	projectInput.Width = 40

	t := table.New(
		table.WithColumns(tableColumns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Subtle).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Primary)
	s.Selected = s.Selected.
		Foreground(styles.TextPrimary).
		Background(styles.BgAccent).
		Bold(true)
	t.SetStyles(s)

	return &Model{
		state:        state,
		table:        t,
		keys:         defaultKeyMap(),
		providers:    models.KnownProviders(),
		keyInput:     keyInput,
		labelInput:   labelInput,
		projectInput: projectInput,
		quotaBar:     components.NewQuotaBar(),
		spinner:      components.NewSpinner("Loading accounts..."),
	}
}

func tableColumns(width int) []table.Column {
	labelWidth := width - 58
	if labelWidth < 20 {
		labelWidth = 20
	}
	if labelWidth > 40 {
		labelWidth = 40
	}

	return []table.Column{
		{Title: " ", Width: 3},
		{Title: "Provider", Width: 12},
		{Title: "Account", Width: labelWidth},
		{Title: "On", Width: 3},
		{Title: "Quota", Width: 9},
		{Title: "Reset", Width: 8},
		{Title: "Status", Width: 12},
	}
}

// Init initializes the accounts tab.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the accounts tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	// The project-id prompt preempts every other mode: it arrives from the
	// login flow, not from a local key press.
	if prompt := m.state.GetProjectPrompt(); prompt != nil {
		return m.updateProjectPrompt(msg, prompt.AccountID)
	}

	switch m.mode {
	case modeLoginMenu:
		return m.updateLoginMenu(msg)
	case modeAPIKeyForm:
		return m.updateAPIKeyForm(msg)
	case modeConfirmDelete:
		return m.updateDeleteConfirm(msg)
	}

	return m.updateList(msg)
}

func (m *Model) updateList(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Select):
			if id := m.selectedID(); id != "" {
				m.state.ToggleSelection(id)
				m.updateTableData()
			}

		case key.Matches(msg, m.keys.Enable):
			if ids := m.targetIDs(); len(ids) > 0 {
				return m, func() tea.Msg {
					return app.BatchRequestMsg{IDs: ids, Enabled: true}
				}
			}

		case key.Matches(msg, m.keys.Disable):
			if ids := m.targetIDs(); len(ids) > 0 {
				return m, func() tea.Msg {
					return app.BatchRequestMsg{IDs: ids, Enabled: false}
				}
			}

		case key.Matches(msg, m.keys.Delete):
			if id := m.selectedID(); id != "" {
				m.mode = modeConfirmDelete
				m.deleteID = id
				m.deleteLabel = m.selectedLabel()
			}

		case key.Matches(msg, m.keys.Add):
			m.mode = modeLoginMenu
			m.menuIndex = 0

		default:
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			cmds = append(cmds, cmd, m.retargetQuotaBar())
		}

	case app.AccountsLoadedMsg:
		m.updateTableData()
		cmds = append(cmds, m.retargetQuotaBar())

	case components.AnimationTickMsg, progress.FrameMsg:
		var cmd tea.Cmd
		m.quotaBar, cmd = m.quotaBar.Update(msg)
		cmds = append(cmds, cmd)

	case app.TickMsg:
		m.frame++
	}

	return m, tea.Batch(cmds...)
}

// retargetQuotaBar animates the detail bar toward the highlighted account's
// remaining percentage.
func (m *Model) retargetQuotaBar() tea.Cmd {
	accounts := m.state.GetAccounts()
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(accounts) {
		return nil
	}
	acc := accounts[idx]
	if acc.Loading || acc.Quota == nil || acc.Quota.IsError() {
		return nil
	}
	return m.quotaBar.SetPercent(acc.Quota.RemainingPercent())
}

// updateProjectPrompt handles the modal Google project-id prompt.
func (m *Model) updateProjectPrompt(msg tea.Msg, accountID string) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			input := m.projectInput.Value()
			return m, func() tea.Msg {
				return app.ProjectIDSubmitMsg{AccountID: accountID, Input: input}
			}
		case "esc":
			m.projectInput.SetValue("")
			m.projectInput.Blur()
			return m, func() tea.Msg {
				return app.ProjectPromptCancelMsg{}
			}
		}
	}

	if !m.projectInput.Focused() {
		m.projectInput.Focus()
	}
	var cmd tea.Cmd
	m.projectInput, cmd = m.projectInput.Update(msg)
	return m, cmd
}

// updateLoginMenu handles the provider picker.
func (m *Model) updateLoginMenu(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			m.mode = modeList
			return m, nil

		case "up", "k":
			m.menuIndex = (m.menuIndex - 1 + len(m.providers)) % len(m.providers)

		case "down", "j":
			m.menuIndex = (m.menuIndex + 1) % len(m.providers)

		case "enter":
			provider := m.providers[m.menuIndex]
			m.mode = modeList
			return m, func() tea.Msg {
				return app.LoginRequestMsg{Provider: provider}
			}

		case "i":
			// API-key entry instead of OAuth for the highlighted provider.
			m.formProvider = m.providers[m.menuIndex]
			m.mode = modeAPIKeyForm
			m.focusedField = fieldAPIKey
			m.keyInput.SetValue("")
			m.labelInput.SetValue("")
			m.keyInput.Focus()
			return m, textinput.Blink
		}
	}
	return m, nil
}

// updateAPIKeyForm handles the API-key account form.
func (m *Model) updateAPIKeyForm(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			m.mode = modeList
			m.keyInput.Blur()
			m.labelInput.Blur()
			return m, nil

		case "tab", "down":
			m.focusedField = (m.focusedField + 1) % 4
			m.updateFormFocus()
			return m, textinput.Blink

		case "shift+tab", "up":
			m.focusedField = (m.focusedField - 1 + 4) % 4
			m.updateFormFocus()
			return m, textinput.Blink

		case "enter":
			switch m.focusedField {
			case fieldSubmit:
				apiKey := m.keyInput.Value()
				if apiKey != "" {
					provider := m.formProvider
					label := m.labelInput.Value()
					m.mode = modeList
					m.keyInput.Blur()
					m.labelInput.Blur()
					return m, func() tea.Msg {
						return app.APIKeyRequestMsg{Provider: provider, APIKey: apiKey, Label: label}
					}
				}
			case fieldCancel:
				m.mode = modeList
				m.keyInput.Blur()
				m.labelInput.Blur()
				return m, nil
			default:
				m.focusedField = (m.focusedField + 1) % 4
				m.updateFormFocus()
				return m, textinput.Blink
			}
		}
	}

	// Update the focused input
	var cmd tea.Cmd
	switch m.focusedField {
	case fieldAPIKey:
		m.keyInput, cmd = m.keyInput.Update(msg)
		cmds = append(cmds, cmd)
	case fieldLabel:
		m.labelInput, cmd = m.labelInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// updateDeleteConfirm handles the delete confirmation.
func (m *Model) updateDeleteConfirm(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "y", "Y":
			m.mode = modeList
			id, label := m.deleteID, m.deleteLabel
			m.deleteID, m.deleteLabel = "", ""
			return m, func() tea.Msg {
				return app.DeleteRequestMsg{ID: id, Label: label}
			}
		case "n", "N", "esc":
			m.mode = modeList
			m.deleteID, m.deleteLabel = "", ""
			return m, nil
		}
	}
	return m, nil
}

// updateFormFocus updates which form field is focused.
func (m *Model) updateFormFocus() {
	m.keyInput.Blur()
	m.labelInput.Blur()

	switch m.focusedField {
	case fieldAPIKey:
		m.keyInput.Focus()
	case fieldLabel:
		m.labelInput.Focus()
	}
}

// selectedID returns the account id of the highlighted table row.
func (m *Model) selectedID() string {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.rowIDs) {
		return ""
	}
	return m.rowIDs[idx]
}

func (m *Model) selectedLabel() string {
	accounts := m.state.GetAccounts()
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(accounts) {
		return ""
	}
	return accounts[idx].DisplayName()
}

// targetIDs resolves a batch target: the selection set, or the highlighted
// row when nothing is selected.
func (m *Model) targetIDs() []string {
	if ids := m.state.SelectedIDs(); len(ids) > 0 {
		return ids
	}
	if id := m.selectedID(); id != "" {
		return []string{id}
	}
	return nil
}

// updateTableData updates the table with current account data.
func (m *Model) updateTableData() {
	accounts := m.state.GetAccounts()
	rows := make([]table.Row, 0, len(accounts))
	m.rowIDs = make([]string, 0, len(accounts))

	for _, acc := range accounts {
		mark := " "
		if m.state.IsSelected(acc.ID) {
			mark = "*"
		}

		enabled := "✓"
		if !acc.Enabled {
			enabled = "✗"
		}

		quota := components.SnapshotSummary(acc.Quota)
		reset := components.FormatReset(components.SnapshotReset(acc.Quota))
		status := accountStatus(acc)

		rows = append(rows, table.Row{
			mark,
			models.CanonicalProvider(acc.Provider),
			acc.DisplayName(),
			enabled,
			quota,
			reset,
			status,
		})
		m.rowIDs = append(m.rowIDs, acc.ID)
	}

	m.table.SetRows(rows)
}

func accountStatus(acc models.AccountWithQuota) string {
	switch {
	case acc.Loading:
		return "fetching..."
	case acc.Quota == nil:
		if models.FamilyFor(acc.Provider) == models.FamilyNone {
			return "unavailable"
		}
		return "-"
	case acc.Quota.IsError():
		return "ERROR"
	case acc.Quota.Family == models.FamilyPercentageModel &&
		acc.Quota.Percentage != nil && acc.Quota.Percentage.IsForbidden:
		return "FORBIDDEN"
	case acc.Quota.Family == models.FamilyPercentageModel &&
		acc.Quota.Percentage != nil && acc.Quota.Percentage.SubscriptionTier != "":
		return acc.Quota.Percentage.SubscriptionTier
	case acc.Quota.Family == models.FamilyUsageWindow &&
		acc.Quota.Window != nil && acc.Quota.Window.PlanType != "":
		return acc.Quota.Window.PlanType
	default:
		return "OK"
	}
}

// SetSize sets the available size for the accounts tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetHeight(max(height-18, 3))
	m.table.SetColumns(tableColumns(width))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	switch m.mode {
	case modeLoginMenu:
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "oauth login")),
			key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "api key")),
			m.keys.Escape,
		}
	case modeAPIKeyForm:
		return []key.Binding{
			key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
			m.keys.Escape,
		}
	}
	return []key.Binding{
		m.keys.Select,
		m.keys.Enable,
		m.keys.Disable,
		m.keys.Delete,
		m.keys.Add,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Select, m.keys.Enable, m.keys.Disable},
		{m.keys.Add, m.keys.Delete},
	}
}
