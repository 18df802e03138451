// Package components provides reusable UI components.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/proxydeck-tui/internal/logger"
	"github.com/j-veylop/proxydeck-tui/internal/models"
	"github.com/j-veylop/proxydeck-tui/internal/ui/styles"
)

type AnimationTickMsg time.Time

func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*50, func(t time.Time) tea.Msg {
		return AnimationTickMsg(t)
	})
}

// QuotaBar renders a remaining-quota progress bar with label and percentage.
type QuotaBar struct {
	progress       progress.Model
	isAnimating    bool
	targetPercent  float64
	currentPercent float64
}

// NewQuotaBar creates a new quota bar with gradient colors.
func NewQuotaBar() QuotaBar {
	p := progress.New(
		progress.WithScaledGradient("#ff6b6b", "#51cf66"),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)

	return QuotaBar{progress: p}
}

// Init initializes the progress bar model.
func (q QuotaBar) Init() tea.Cmd {
	return nil
}

// Update handles progress bar animation messages.
func (q QuotaBar) Update(msg tea.Msg) (QuotaBar, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg.(type) {
	case AnimationTickMsg:
		if q.isAnimating {
			if q.currentPercent < q.targetPercent {
				step := max((q.targetPercent-q.currentPercent)/10, 0.5)
				q.currentPercent = min(q.currentPercent+step, q.targetPercent)
				cmds = append(cmds, animationTick())
			} else if q.currentPercent > q.targetPercent {
				step := max((q.currentPercent-q.targetPercent)/10, 0.5)
				q.currentPercent = max(q.currentPercent-step, q.targetPercent)
				cmds = append(cmds, animationTick())
			} else {
				q.isAnimating = false
			}
		}
	}

	var cmd tea.Cmd
	model, cmd := q.progress.Update(msg)
	q.progress = model.(progress.Model)
	cmds = append(cmds, cmd)

	return q, tea.Batch(cmds...)
}

// SetPercent sets the current percentage.
func (q *QuotaBar) SetPercent(percent float64) tea.Cmd {
	q.targetPercent = percent

	if !q.isAnimating {
		q.isAnimating = true
		return tea.Batch(
			q.progress.SetPercent(percent/100),
			animationTick(),
		)
	}

	return q.progress.SetPercent(percent / 100)
}

// View renders the quota bar with percentage and label.
func (q QuotaBar) View(percent float64, label string, width int) string {
	barWidth := max(width-30, 10)
	q.progress.Width = barWidth

	bar := q.progress.ViewAs(percent / 100)

	percentStyle := styles.GetQuotaStyle(percent, false)
	percentStr := percentStyle.Width(6).Align(lipgloss.Right).Render(fmt.Sprintf("%.0f%%", percent))

	labelStr := styles.ProgressLabelStyle.Width(15).Render(label)

	return lipgloss.JoinHorizontal(
		lipgloss.Center,
		labelStr,
		bar,
		" ",
		percentStr,
	)
}

// ViewForbidden renders the locked-out state for an account.
func (q QuotaBar) ViewForbidden(label string, width int) string {
	labelStr := styles.ProgressLabelStyle.Width(15).Render(label)

	barWidth := max(width-30, 10)
	emptyBar := lipgloss.NewStyle().
		Foreground(styles.Error).
		Render(strings.Repeat("░", barWidth))

	statusStr := styles.QuotaForbiddenStyle.
		Width(12).
		Align(lipgloss.Right).
		Render("FORBIDDEN")

	return lipgloss.JoinHorizontal(
		lipgloss.Center,
		labelStr,
		emptyBar,
		" ",
		statusStr,
	)
}

// RenderGradientBar renders just the bar part with gradient colors.
func RenderGradientBar(percent float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := int(float64(width) * percent / 100)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	var barChars []string
	for i := 0; i < width; i++ {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor("#ff6b6b", "#51cf66", t)
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
			barChars = append(barChars, style.Render("█"))
		} else {
			style := lipgloss.NewStyle().Foreground(styles.Subtle)
			barChars = append(barChars, style.Render("░"))
		}
	}

	return strings.Join(barChars, "")
}

// SimpleQuotaBar renders a simple ASCII progress bar with gradient colors.
func SimpleQuotaBar(percent float64, label string, width int) string {
	labelWidth := len(label) + 1
	percentWidth := 6
	barWidth := max(width-labelWidth-percentWidth-4, 5)

	bar := RenderGradientBar(percent, barWidth)

	labelStr := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Render(label)

	percentStr := styles.GetQuotaStyle(percent, false).
		Width(percentWidth).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.0f%%", percent))

	return fmt.Sprintf("%s [%s] %s", labelStr, bar, percentStr)
}

// SimpleQuotaBarLoading renders a shimmering placeholder bar while a quota
// fetch is in flight.
func SimpleQuotaBarLoading(provider string, width int, frame int) string {
	const (
		indentWidth  = 4
		percentWidth = 6
	)

	barWidth := max(width-indentWidth-percentWidth-4, 10)

	accentColor := providerAccent(provider)

	cycle := 120
	t := float64(frame%cycle) / float64(cycle)
	var p float64
	if t < 0.5 {
		p = t * 2
	} else {
		p = (1 - t) * 2
	}
	eased := p * p * (3 - 2*p)
	shimmerPos := int(eased * float64(barWidth))
	var barChars []string

	for i := 0; i < barWidth; i++ {
		dist := shimmerPos - i
		if dist < 0 {
			dist = -dist
		}

		var char string
		var style lipgloss.Style

		if dist < 3 {
			char = "▓"
			style = lipgloss.NewStyle().Foreground(accentColor)
		} else if dist < 5 {
			char = "▒"
			style = lipgloss.NewStyle().Foreground(styles.TextSecondary)
		} else {
			char = "░"
			style = lipgloss.NewStyle().Foreground(styles.BgLight)
		}

		barChars = append(barChars, style.Render(char))
	}

	bar := strings.Join(barChars, "")

	dots := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	dot := dots[(frame/2)%len(dots)]

	loadingStr := lipgloss.NewStyle().
		Width(percentWidth).
		Align(lipgloss.Right).
		Foreground(accentColor).
		Render(dot)

	return lipgloss.JoinHorizontal(lipgloss.Left,
		"    ",
		bar,
		" ",
		loadingStr,
	)
}

func providerAccent(provider string) lipgloss.Color {
	switch models.CanonicalProvider(provider) {
	case "google":
		return styles.Google
	case "anthropic":
		return styles.Anthropic
	case "openai":
		return styles.OpenAI
	case "kiro":
		return styles.Kiro
	default:
		return styles.Primary
	}
}

// SnapshotSummary condenses a quota snapshot into a single display string for
// table cells: the worst remaining percentage for model-based families, the
// used fraction for usage-based ones.
func SnapshotSummary(snap *models.QuotaSnapshot) string {
	if snap == nil {
		return "-"
	}
	if snap.IsError() {
		return "ERR"
	}

	switch snap.Family {
	case models.FamilyCumulativeUsage:
		if snap.Cumulative != nil && snap.Cumulative.UsageLimit > 0 {
			return fmt.Sprintf("%.0f/%.0f", snap.Cumulative.CurrentUsage, snap.Cumulative.UsageLimit)
		}
		return "-"
	default:
		return formatPercent(snap.RemainingPercent())
	}
}

// SnapshotReset returns the soonest reset timestamp carried by a snapshot,
// empty when the family has none.
func SnapshotReset(snap *models.QuotaSnapshot) string {
	if snap == nil || snap.IsError() {
		return ""
	}

	earliest := func(times []string) string {
		var bestRaw string
		var best time.Time
		for _, raw := range times {
			if raw == "" {
				continue
			}
			at, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				continue
			}
			if bestRaw == "" || at.Before(best) {
				bestRaw, best = raw, at
			}
		}
		return bestRaw
	}

	switch snap.Family {
	case models.FamilyPercentageModel:
		if snap.Percentage == nil {
			return ""
		}
		times := make([]string, 0, len(snap.Percentage.Models))
		for _, m := range snap.Percentage.Models {
			times = append(times, m.ResetTime)
		}
		return earliest(times)
	case models.FamilyUsageWindow:
		if snap.Window == nil {
			return ""
		}
		return earliest([]string{snap.Window.PrimaryResetsAt, snap.Window.SecondaryResetAt})
	case models.FamilyFractionModel:
		if snap.Fraction == nil {
			return ""
		}
		times := make([]string, 0, len(snap.Fraction.Models))
		for _, m := range snap.Fraction.Models {
			times = append(times, m.ResetTime)
		}
		return earliest(times)
	}
	return ""
}

// FormatReset renders an RFC 3339 reset timestamp as a short countdown.
func FormatReset(resetTime string) string {
	if resetTime == "" {
		return "-"
	}
	at, err := time.Parse(time.RFC3339, resetTime)
	if err != nil {
		return "-"
	}
	remaining := time.Until(at)
	if remaining <= 0 {
		return "now"
	}
	hours := int(remaining.Hours())
	minutes := int(remaining.Minutes()) % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %02dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

func formatPercent(p float64) string {
	if p >= 100 {
		return "100%"
	}
	if p > 0 && p < 1 {
		return "<1%"
	}
	return fmt.Sprintf("%.0f%%", p)
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}
