package info

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/proxydeck-tui/internal/ui/styles"
	"github.com/j-veylop/proxydeck-tui/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	var sections []string

	sections = append(sections, m.renderTitle())
	sections = append(sections, m.renderConnectionCard())
	sections = append(sections, m.renderAboutCard())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Connection and application information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	w := m.width - 6
	if w < 50 {
		w = 50
	}
	if w > 80 {
		w = 80
	}
	return w
}

// renderConnectionCard renders the backend connection and local paths.
func (m *Model) renderConnectionCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Connection"))
	rows = append(rows, "")

	if m.config != nil {
		rows = append(rows, m.renderRow("Backend", m.config.BackendURL))
		keyState := "not set"
		if m.config.ManagementKey != "" {
			keyState = "set"
		}
		rows = append(rows, m.renderRow("Management Key", keyState))
		rows = append(rows, m.renderRow("Quota Cache", m.config.CachePath))
		if m.config.SettingsPath != "" {
			rows = append(rows, m.renderRow("Settings File", m.config.SettingsPath))
		}
		rows = append(rows, m.renderRow("Refresh Fallback", m.config.RefreshInterval.String()))
		rows = append(rows, m.renderRow("Request Timeout", m.config.RequestTimeout.String()))
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	if settings := m.state.GetSettings(); settings != nil {
		rows = append(rows, "")
		rows = append(rows, m.renderRow("Proxy Listen", fmt.Sprintf("%s:%d", settings.Host, settings.Port)))
		rows = append(rows, m.renderRow("Auth Dir", settings.AuthDir))
		rows = append(rows, m.renderRow("Quota Refresh", fmt.Sprintf("%dm", settings.QuotaRefreshInterval)))
	}

	rows = append(rows, "")
	rows = append(rows, styles.HelpStyle.Render("Press 'c' to copy the backend URL"))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderRow renders a key-value row.
func (m *Model) renderRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

// renderAboutCard renders the about/version information card.
func (m *Model) renderAboutCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("About ProxyDeck TUI"))
	rows = append(rows, "")

	ver, commit, date := version.Get()
	rows = append(rows, m.renderRow("Version", ver))
	rows = append(rows, m.renderRow("Commit", commit))
	rows = append(rows, m.renderRow("Build Date", date))
	rows = append(rows, m.renderRow("Go Version", runtime.Version()))
	rows = append(rows, m.renderRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)))
	rows = append(rows, "")

	accountCount := m.state.GetAccountCount()
	rows = append(rows, fmt.Sprintf("Accounts: %s", styles.InfoTextStyle.Render(fmt.Sprintf("%d", accountCount))))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}
