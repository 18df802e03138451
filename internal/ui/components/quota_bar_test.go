package components

import (
	"strings"
	"testing"
	"time"

	"github.com/j-veylop/proxydeck-tui/internal/models"
)

func TestNewQuotaBar(t *testing.T) {
	bar := NewQuotaBar()
	if bar.currentPercent != 0 {
		t.Errorf("currentPercent = %f, want 0.0", bar.currentPercent)
	}
}

func TestQuotaBar_SetPercent(t *testing.T) {
	bar := NewQuotaBar()
	cmd := bar.SetPercent(75.5)
	if cmd == nil {
		t.Error("SetPercent should return an animation command")
	}
	if bar.targetPercent != 75.5 {
		t.Errorf("targetPercent = %f, want 75.5", bar.targetPercent)
	}
}

func TestQuotaBar_View(t *testing.T) {
	bar := NewQuotaBar()
	view := bar.View(50.0, "Test", 60)
	if view == "" {
		t.Error("View() returned empty string")
	}
	if !strings.Contains(view, "50%") {
		t.Error("View() should contain percentage")
	}
}

func TestQuotaBar_ViewForbidden(t *testing.T) {
	bar := NewQuotaBar()
	view := bar.ViewForbidden("Test", 60)
	if !strings.Contains(view, "FORBIDDEN") {
		t.Error("ViewForbidden() should contain warning")
	}
}

func TestRenderGradientBar(t *testing.T) {
	s := RenderGradientBar(50.0, 10)
	if len(s) == 0 {
		t.Error("RenderGradientBar returned empty")
	}
	if RenderGradientBar(50.0, 0) != "" {
		t.Error("zero width should render nothing")
	}
}

func TestSimpleQuotaBar(t *testing.T) {
	s := SimpleQuotaBar(50.0, "Test", 40)
	if len(s) == 0 {
		t.Error("SimpleQuotaBar returned empty")
	}
}

func TestSimpleQuotaBarLoading(t *testing.T) {
	for _, provider := range []string{"google", "anthropic", "openai", "kiro", "unknown"} {
		s := SimpleQuotaBarLoading(provider, 40, 0)
		if len(s) == 0 {
			t.Errorf("SimpleQuotaBarLoading(%s) returned empty", provider)
		}
	}
}

func TestSnapshotSummary(t *testing.T) {
	tests := []struct {
		name string
		snap *models.QuotaSnapshot
		want string
	}{
		{"nil", nil, "-"},
		{
			"error payload",
			&models.QuotaSnapshot{
				Family:   models.FamilyFractionModel,
				Fraction: &models.FractionModelQuota{IsError: true, ErrorMessage: "boom"},
			},
			"ERR",
		},
		{
			"percentage worst model wins",
			&models.QuotaSnapshot{
				Family: models.FamilyPercentageModel,
				Percentage: &models.PercentageModelQuota{Models: []models.PercentageModelEntry{
					{Name: "fast", Percentage: 20},
					{Name: "slow", Percentage: 70},
				}},
			},
			"30%",
		},
		{
			"window",
			&models.QuotaSnapshot{
				Family: models.FamilyUsageWindow,
				Window: &models.UsageWindowQuota{PlanType: "plus", PrimaryUsed: 40},
			},
			"60%",
		},
		{
			"cumulative shows used over limit",
			&models.QuotaSnapshot{
				Family:     models.FamilyCumulativeUsage,
				Cumulative: &models.CumulativeUsageQuota{UsageLimit: 500, CurrentUsage: 120},
			},
			"120/500",
		},
		{
			"fraction below one percent",
			&models.QuotaSnapshot{
				Family: models.FamilyFractionModel,
				Fraction: &models.FractionModelQuota{Models: []models.FractionModelEntry{
					{ModelID: "m", RemainingFraction: 0.005},
				}},
			},
			"<1%",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SnapshotSummary(tt.snap); got != tt.want {
				t.Errorf("SnapshotSummary = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSnapshotReset(t *testing.T) {
	early := time.Now().Add(time.Hour).Format(time.RFC3339)
	late := time.Now().Add(3 * time.Hour).Format(time.RFC3339)

	snap := &models.QuotaSnapshot{
		Family: models.FamilyPercentageModel,
		Percentage: &models.PercentageModelQuota{Models: []models.PercentageModelEntry{
			{Name: "a", Percentage: 10, ResetTime: late},
			{Name: "b", Percentage: 20, ResetTime: early},
		}},
	}
	if got := SnapshotReset(snap); got != early {
		t.Errorf("SnapshotReset = %q, want earliest %q", got, early)
	}

	window := &models.QuotaSnapshot{
		Family: models.FamilyUsageWindow,
		Window: &models.UsageWindowQuota{PrimaryResetsAt: late, SecondaryResetAt: early},
	}
	if got := SnapshotReset(window); got != early {
		t.Errorf("window SnapshotReset = %q, want %q", got, early)
	}

	// Cumulative payloads carry days, not timestamps.
	cumulative := &models.QuotaSnapshot{
		Family:     models.FamilyCumulativeUsage,
		Cumulative: &models.CumulativeUsageQuota{DaysUntilReset: 12},
	}
	if got := SnapshotReset(cumulative); got != "" {
		t.Errorf("cumulative SnapshotReset = %q, want empty", got)
	}

	if got := SnapshotReset(nil); got != "" {
		t.Errorf("nil SnapshotReset = %q, want empty", got)
	}
}

func TestFormatReset(t *testing.T) {
	if got := FormatReset(""); got != "-" {
		t.Errorf("empty FormatReset = %q, want -", got)
	}
	if got := FormatReset("garbage"); got != "-" {
		t.Errorf("unparseable FormatReset = %q, want -", got)
	}

	past := time.Now().Add(-time.Minute).Format(time.RFC3339)
	if got := FormatReset(past); got != "now" {
		t.Errorf("past FormatReset = %q, want now", got)
	}

	soon := time.Now().Add(90 * time.Minute).Format(time.RFC3339)
	got := FormatReset(soon)
	if !strings.HasPrefix(got, "1h") {
		t.Errorf("FormatReset(90m) = %q, want 1h prefix", got)
	}

	minutes := time.Now().Add(10 * time.Minute).Format(time.RFC3339)
	got = FormatReset(minutes)
	if !strings.HasSuffix(got, "m") || strings.Contains(got, "h") {
		t.Errorf("FormatReset(10m) = %q, want minutes only", got)
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{100, "100%"},
		{150, "100%"},
		{0.5, "<1%"},
		{0, "0%"},
		{42, "42%"},
	}
	for _, tt := range tests {
		if got := formatPercent(tt.in); got != tt.want {
			t.Errorf("formatPercent(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInterpolateColor(t *testing.T) {
	if got := interpolateColor("#000000", "#ffffff", 0); got != "#000000" {
		t.Errorf("t=0 should return the start color, got %s", got)
	}
	if got := interpolateColor("#000000", "#ffffff", 1); got != "#ffffff" {
		t.Errorf("t=1 should return the end color, got %s", got)
	}
}

func TestHexToRGB_Invalid(t *testing.T) {
	if got := hexToRGB("nope"); got != [3]int{0, 0, 0} {
		t.Errorf("invalid hex should fall back to black, got %v", got)
	}
}
