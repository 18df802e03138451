package server

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/proxydeck-tui/internal/ui/components"
	"github.com/j-veylop/proxydeck-tui/internal/ui/styles"
)

// View renders the server tab.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
	}

	var sections []string

	sections = append(sections, styles.TitleStyle.Render("Proxy Server"))

	if m.confirm == confirmStop {
		sections = append(sections, m.renderStopConfirm())
	}

	sections = append(sections, m.renderStatusCard())
	sections = append(sections, m.renderSummaryCard())
	sections = append(sections, m.renderChartCard())
	sections = append(sections, m.renderFooter())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

// renderStatusCard renders the process status and backend settings.
func (m *Model) renderStatusCard() string {
	cardWidth := max(m.width-6, 50)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Status"))

	status := m.state.GetServerStatus()
	switch {
	case status == nil:
		rows = append(rows, styles.HelpStyle.Render("unknown"))
	case status.Running:
		rows = append(rows, styles.SuccessTextStyle.Render("● running")+
			styles.HelpStyle.Render(fmt.Sprintf("  %s:%d", status.Host, status.Port)))
	default:
		rows = append(rows, styles.ErrorTextStyle.Render("○ stopped"))
	}

	if settings := m.state.GetSettings(); settings != nil {
		rows = append(rows, "")
		rows = append(rows, styles.HelpStyle.Render(
			fmt.Sprintf("listen %s:%d  |  auth dir %s  |  refresh every %dm",
				settings.Host, settings.Port, settings.AuthDir, settings.QuotaRefreshInterval)))
	}

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderSummaryCard renders account counts per provider.
func (m *Model) renderSummaryCard() string {
	cardWidth := max(m.width-6, 50)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Accounts"))

	summary := m.state.GetSummary()
	if summary == nil {
		rows = append(rows, styles.HelpStyle.Render("No summary available"))
	} else {
		rows = append(rows, fmt.Sprintf("%d total, %s enabled",
			summary.Total,
			styles.SuccessTextStyle.Render(fmt.Sprintf("%d", summary.Enabled))))

		if providers, counts := m.providerBreakdown(); len(providers) > 0 {
			rows = append(rows, "")
			rows = append(rows, components.RenderBarChart(counts, providers, cardWidth-8))
		}
	}

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderChartCard renders the session remaining-quota chart.
func (m *Model) renderChartCard() string {
	cardWidth := max(m.width-6, 50)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Remaining Quota (session)"))

	history := m.state.GetHistory()
	if len(history) < 2 {
		rows = append(rows, styles.HelpStyle.Render("Collecting data, refresh a few times..."))
	} else {
		rows = append(rows, components.RenderLineChart(history, cardWidth-12, 6, "mean remaining %"))
	}

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderStopConfirm() string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		styles.WarningTextStyle.Bold(true).Render("Stop Server?"),
		"",
		"In-flight requests will be dropped.",
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			styles.ButtonActiveStyle.Render(" (Y)es "),
			"  ",
			styles.ButtonInactiveStyle.Render(" (N)o "),
		),
		"",
	)

	return styles.CenterHorizontal(
		styles.ModalContentStyle.Width(44).Render(content),
		m.width,
	)
}

func (m *Model) renderFooter() string {
	shortcuts := []string{
		styles.HelpKeyStyle.Render("s") + " start/stop",
		styles.HelpKeyStyle.Render("o") + " export",
		styles.HelpKeyStyle.Render("i") + " import",
		styles.HelpKeyStyle.Render("r") + " refresh",
	}
	if m.confirm != confirmNone {
		shortcuts = []string{
			styles.HelpKeyStyle.Render("Y") + " confirm",
			styles.HelpKeyStyle.Render("N") + " cancel",
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
