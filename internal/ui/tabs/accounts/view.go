package accounts

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/proxydeck-tui/internal/models"
	"github.com/j-veylop/proxydeck-tui/internal/ui/components"
	"github.com/j-veylop/proxydeck-tui/internal/ui/styles"
)

// View renders the accounts tab.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return m.renderLoading()
	}

	var sections []string

	sections = append(sections, m.renderTitle())

	if prompt := m.state.GetProjectPrompt(); prompt != nil {
		sections = append(sections, m.renderProjectPrompt())
		sections = append(sections, m.renderTable())
	} else {
		switch m.mode {
		case modeLoginMenu:
			sections = append(sections, m.renderLoginMenu())
		case modeAPIKeyForm:
			sections = append(sections, m.renderAPIKeyForm())
		case modeConfirmDelete:
			sections = append(sections, m.renderDeleteConfirm())
			sections = append(sections, m.renderTable())
		default:
			sections = append(sections, m.renderTable())
			if detail := m.renderQuotaDetail(); detail != "" {
				sections = append(sections, detail)
			}
		}
	}

	sections = append(sections, m.renderFooter())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderLoading() string {
	return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
}

// renderTitle renders the accounts tab title with a login-in-progress hint.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Accounts")

	count := m.state.GetAccountCount()
	selected := m.state.SelectionCount()

	sub := fmt.Sprintf("%d accounts", count)
	if selected > 0 {
		sub += fmt.Sprintf(", %d selected", selected)
	}
	if pending := m.state.GetPendingLogin(); pending != nil {
		sub += styles.InfoTextStyle.Render(
			fmt.Sprintf("  •  %s login in progress, finish in your browser", pending.Provider))
	}
	subtitle := styles.HelpStyle.Render(sub)

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

// renderTable renders the accounts table.
func (m *Model) renderTable() string {
	if m.state.GetAccountCount() == 0 {
		return m.renderEmptyState()
	}

	m.updateTableData()

	cardWidth := max(m.width-6, 60)
	return styles.CardStyle.Width(cardWidth).Render(m.table.View())
}

func (m *Model) renderEmptyState() string {
	cardWidth := max(m.width-6, 40)

	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		styles.SubTitleStyle.Render("No Accounts"),
		"",
		styles.HelpStyle.Render("Add provider accounts to route requests through them."),
		"",
		styles.InfoTextStyle.Render("Press 'a' to add an account"),
		"",
	)

	return styles.CardStyle.Width(cardWidth).Render(content)
}

// renderQuotaDetail renders the highlighted account's quota as bars: the
// animated headline bar plus one static bar per payload row, and the session
// remaining-percentage sparkline.
func (m *Model) renderQuotaDetail() string {
	accounts := m.state.GetAccounts()
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(accounts) {
		return ""
	}
	acc := accounts[idx]

	cardWidth := max(m.width-6, 60)
	innerWidth := cardWidth - 4

	var rows []string
	switch {
	case acc.Loading:
		rows = append(rows, components.SimpleQuotaBarLoading(acc.Provider, innerWidth, m.frame))

	case acc.Quota == nil:
		// Nothing to show; families without a quota shape stay table-only.

	case acc.Quota.IsError():
		rows = append(rows, styles.ErrorTextStyle.Render("quota: "+acc.Quota.ErrorMessage()))

	case acc.Quota.Family == models.FamilyPercentageModel &&
		acc.Quota.Percentage != nil && acc.Quota.Percentage.IsForbidden:
		rows = append(rows, m.quotaBar.ViewForbidden(acc.DisplayName(), innerWidth))

	default:
		rows = append(rows, m.quotaBar.View(acc.Quota.RemainingPercent(), acc.DisplayName(), innerWidth))
		rows = append(rows, m.renderFamilyBars(acc, innerWidth)...)
	}

	if history := m.state.GetHistory(); len(history) > 1 {
		spark := components.RenderSparkline(history, min(innerWidth-10, 40))
		rows = append(rows, styles.HelpStyle.Render("session ")+spark)
	}

	if len(rows) == 0 {
		return ""
	}

	content := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return styles.CardStyle.Width(cardWidth).Render(content)
}

// renderFamilyBars renders one remaining-percentage bar per payload row.
func (m *Model) renderFamilyBars(acc models.AccountWithQuota, width int) []string {
	var rows []string

	switch acc.Quota.Family {
	case models.FamilyPercentageModel:
		if acc.Quota.Percentage == nil {
			return nil
		}
		for _, entry := range acc.Quota.Percentage.Models {
			rows = append(rows, components.SimpleQuotaBar(100-entry.Percentage, entry.Name, width))
		}

	case models.FamilyFractionModel:
		if acc.Quota.Fraction == nil {
			return nil
		}
		for _, entry := range acc.Quota.Fraction.Models {
			rows = append(rows, components.SimpleQuotaBar(entry.RemainingFraction*100, entry.ModelID, width))
		}

	case models.FamilyUsageWindow:
		if acc.Quota.Window == nil {
			return nil
		}
		rows = append(rows, components.SimpleQuotaBar(100-acc.Quota.Window.PrimaryUsed, "primary", width))
		rows = append(rows, components.SimpleQuotaBar(100-acc.Quota.Window.SecondaryUsed, "secondary", width))

	case models.FamilyCumulativeUsage:
		rows = append(rows, components.SimpleQuotaBar(acc.Quota.RemainingPercent(), "usage", width))
	}

	return rows
}

// renderLoginMenu renders the provider picker for a new login.
func (m *Model) renderLoginMenu() string {
	cardWidth := 44

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Add Account"))
	rows = append(rows, "")

	for i, provider := range m.providers {
		line := styles.GetProviderStyle(provider).Render(provider)
		if i == m.menuIndex {
			line = styles.SelectedListItemStyle.String() + line
		} else {
			line = styles.ListItemStyle.Render(line)
		}
		rows = append(rows, line)
	}

	rows = append(rows, "")
	rows = append(rows, styles.HelpStyle.Render("Enter: OAuth login | i: API key | Esc: cancel"))

	content := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return styles.CenterHorizontal(
		styles.ModalContentStyle.Width(cardWidth).Render(content),
		m.width,
	)
}

// renderAPIKeyForm renders the API-key account form.
func (m *Model) renderAPIKeyForm() string {
	cardWidth := m.width - 10
	if cardWidth < 50 {
		cardWidth = 50
	}
	if cardWidth > 80 {
		cardWidth = 80
	}

	var rows []string

	rows = append(rows, styles.CardTitleStyle.Render(
		fmt.Sprintf("Add %s API Key", m.formProvider)))
	rows = append(rows, "")

	keyLabel := styles.BlurredStyle.Render("  API Key:")
	if m.focusedField == fieldAPIKey {
		keyLabel = styles.FocusedStyle.Render("> API Key:")
	}
	rows = append(rows, keyLabel)

	keyInputStyle := styles.BlurredBorderStyle
	if m.focusedField == fieldAPIKey {
		keyInputStyle = styles.FocusedBorderStyle
	}
	rows = append(rows, keyInputStyle.Width(cardWidth-10).Render(m.keyInput.View()))
	rows = append(rows, "")

	labelLabel := styles.BlurredStyle.Render("  Label:")
	if m.focusedField == fieldLabel {
		labelLabel = styles.FocusedStyle.Render("> Label:")
	}
	rows = append(rows, labelLabel)

	labelInputStyle := styles.BlurredBorderStyle
	if m.focusedField == fieldLabel {
		labelInputStyle = styles.FocusedBorderStyle
	}
	rows = append(rows, labelInputStyle.Width(cardWidth-10).Render(m.labelInput.View()))
	rows = append(rows, "")

	submitStyle := styles.ButtonInactiveStyle
	cancelStyle := styles.ButtonInactiveStyle

	if m.focusedField == fieldSubmit {
		submitStyle = styles.ButtonActiveStyle
	}
	if m.focusedField == fieldCancel {
		cancelStyle = styles.ButtonActiveStyle
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Center,
		submitStyle.Render(" Save "),
		"  ",
		cancelStyle.Render(" Cancel "),
	)
	rows = append(rows, buttons)
	rows = append(rows, "")

	rows = append(rows, styles.HelpStyle.Render("Tab: next field | Enter: submit | Esc: cancel"))

	content := lipgloss.JoinVertical(lipgloss.Left, rows...)

	return styles.ModalContentStyle.Width(cardWidth).Render(content)
}

// renderProjectPrompt renders the Google project-id prompt.
func (m *Model) renderProjectPrompt() string {
	cardWidth := 56

	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.CardTitleStyle.Render("Google Cloud Project"),
		"",
		styles.HelpStyle.Render("The new account needs a project id before it can"),
		styles.HelpStyle.Render("serve requests."),
		"",
		styles.FocusedBorderStyle.Width(cardWidth-8).Render(m.projectInput.View()),
		"",
		styles.HelpStyle.Render("Enter: save | Esc: skip for now"),
	)

	return styles.CenterHorizontal(
		styles.ModalContentStyle.Width(cardWidth).Render(content),
		m.width,
	)
}

// renderDeleteConfirm renders the delete confirmation dialog.
func (m *Model) renderDeleteConfirm() string {
	cardWidth := 50

	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		styles.WarningTextStyle.Bold(true).Render("Delete Account?"),
		"",
		"Are you sure you want to delete:",
		styles.ErrorTextStyle.Render(m.deleteLabel),
		"",
		"This action cannot be undone.",
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			styles.ButtonActiveStyle.Render(" (Y)es "),
			"  ",
			styles.ButtonInactiveStyle.Render(" (N)o "),
		),
		"",
	)

	return styles.CenterHorizontal(
		styles.ModalContentStyle.Width(cardWidth).Render(content),
		m.width,
	)
}

// renderFooter renders the footer with keyboard shortcuts.
func (m *Model) renderFooter() string {
	var shortcuts []string

	switch {
	case m.state.GetProjectPrompt() != nil:
		shortcuts = []string{
			styles.HelpKeyStyle.Render("Enter") + " save",
			styles.HelpKeyStyle.Render("Esc") + " skip",
		}
	case m.mode == modeLoginMenu:
		shortcuts = []string{
			styles.HelpKeyStyle.Render("Enter") + " oauth",
			styles.HelpKeyStyle.Render("i") + " api key",
			styles.HelpKeyStyle.Render("Esc") + " cancel",
		}
	case m.mode == modeAPIKeyForm:
		shortcuts = []string{
			styles.HelpKeyStyle.Render("Tab") + " next",
			styles.HelpKeyStyle.Render("Enter") + " submit",
			styles.HelpKeyStyle.Render("Esc") + " cancel",
		}
	case m.mode == modeConfirmDelete:
		shortcuts = []string{
			styles.HelpKeyStyle.Render("Y") + " confirm",
			styles.HelpKeyStyle.Render("N") + " cancel",
		}
	default:
		shortcuts = []string{
			styles.HelpKeyStyle.Render("Space") + " select",
			styles.HelpKeyStyle.Render("e") + " enable",
			styles.HelpKeyStyle.Render("x") + " disable",
			styles.HelpKeyStyle.Render("a") + " add",
			styles.HelpKeyStyle.Render("d") + " delete",
			styles.HelpKeyStyle.Render("r") + " refresh",
		}
	}

	footer := ""
	for i, s := range shortcuts {
		if i > 0 {
			footer += styles.HelpSeparatorStyle.Render(" | ")
		}
		footer += s
	}

	return lipgloss.NewStyle().
		MarginTop(1).
		Foreground(styles.TextMuted).
		Render(footer)
}
