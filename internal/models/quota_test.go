package models

import (
	"math"
	"strings"
	"testing"
	"time"
)

func TestQuotaSnapshot_RemainingPercent(t *testing.T) {
	tests := []struct {
		name string
		snap QuotaSnapshot
		want float64
	}{
		{
			name: "percentage worst model bounds the account",
			snap: QuotaSnapshot{
				Family: FamilyPercentageModel,
				Percentage: &PercentageModelQuota{Models: []PercentageModelEntry{
					{Name: "fast", Percentage: 20},
					{Name: "slow", Percentage: 65},
				}},
			},
			want: 35,
		},
		{
			name: "percentage with no models",
			snap: QuotaSnapshot{Family: FamilyPercentageModel, Percentage: &PercentageModelQuota{}},
			want: 0,
		},
		{
			name: "window uses primary usage",
			snap: QuotaSnapshot{Family: FamilyUsageWindow, Window: &UsageWindowQuota{PrimaryUsed: 40, SecondaryUsed: 90}},
			want: 60,
		},
		{
			name: "fraction worst model wins",
			snap: QuotaSnapshot{
				Family: FamilyFractionModel,
				Fraction: &FractionModelQuota{Models: []FractionModelEntry{
					{ModelID: "a", RemainingFraction: 0.8},
					{ModelID: "b", RemainingFraction: 0.25},
				}},
			},
			want: 25,
		},
		{
			name: "cumulative remaining over limit",
			snap: QuotaSnapshot{Family: FamilyCumulativeUsage, Cumulative: &CumulativeUsageQuota{UsageLimit: 500, CurrentUsage: 125}},
			want: 75,
		},
		{
			name: "cumulative with zero limit",
			snap: QuotaSnapshot{Family: FamilyCumulativeUsage, Cumulative: &CumulativeUsageQuota{CurrentUsage: 10}},
			want: 0,
		},
		{
			name: "error payload reports zero",
			snap: QuotaSnapshot{
				Family:     FamilyPercentageModel,
				Percentage: &PercentageModelQuota{Models: []PercentageModelEntry{{Percentage: 5}}, IsError: true},
			},
			want: 0,
		},
		{
			name: "no family",
			snap: QuotaSnapshot{},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.snap.RemainingPercent(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("RemainingPercent() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestQuotaSnapshot_ErrorAccessors(t *testing.T) {
	snap := &QuotaSnapshot{
		Family: FamilyUsageWindow,
		Window: &UsageWindowQuota{IsError: true, ErrorMessage: "rate limited"},
	}
	if !snap.IsError() {
		t.Error("IsError() = false")
	}
	if snap.ErrorMessage() != "rate limited" {
		t.Errorf("ErrorMessage() = %q", snap.ErrorMessage())
	}

	ok := &QuotaSnapshot{Family: FamilyUsageWindow, Window: &UsageWindowQuota{PlanType: "plus"}}
	if ok.IsError() || ok.ErrorMessage() != "" {
		t.Error("data payload reported as error")
	}

	// A mismatched union (family set, payload nil) is not an error payload.
	empty := &QuotaSnapshot{Family: FamilyFractionModel}
	if empty.IsError() {
		t.Error("nil payload reported as error")
	}
}

func TestQuotaSnapshot_LastUpdated(t *testing.T) {
	now := time.Now().Unix()
	snap := &QuotaSnapshot{Family: FamilyCumulativeUsage, Cumulative: &CumulativeUsageQuota{LastUpdated: now}}
	if got := snap.LastUpdated().Unix(); got != now {
		t.Errorf("LastUpdated() = %d, want %d", got, now)
	}

	zero := &QuotaSnapshot{Family: FamilyCumulativeUsage, Cumulative: &CumulativeUsageQuota{}}
	if !zero.LastUpdated().IsZero() {
		t.Error("missing timestamp should yield the zero time")
	}
}

func TestCachedQuotaRecord_DecodeSnapshot(t *testing.T) {
	record := CachedQuotaRecord{
		AccountID: "a",
		Provider:  "gemini",
		QuotaData: `{"models":[{"model_id":"m","remaining_fraction":0.5}],"last_updated":42}`,
	}
	snap, err := record.DecodeSnapshot()
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	if snap.Family != FamilyFractionModel {
		t.Errorf("Family = %s, want fraction-model for the gemini alias", snap.Family)
	}
	if snap.Fraction == nil || snap.Fraction.Models[0].RemainingFraction != 0.5 {
		t.Errorf("Fraction = %+v", snap.Fraction)
	}
}

func TestCachedQuotaRecord_DecodeSnapshotErrors(t *testing.T) {
	if _, err := (CachedQuotaRecord{Provider: "qwen", QuotaData: "{}"}).DecodeSnapshot(); err == nil {
		t.Error("family-less provider should not decode")
	}
	_, err := (CachedQuotaRecord{AccountID: "a", Provider: "kiro", QuotaData: "{broken"}).DecodeSnapshot()
	if err == nil {
		t.Fatal("malformed payload should not decode")
	}
	if !strings.Contains(err.Error(), "a") {
		t.Errorf("decode error should name the account, got %v", err)
	}
}

func TestQuotaSnapshot_EncodeRecord(t *testing.T) {
	snap := &QuotaSnapshot{
		Family: FamilyPercentageModel,
		Percentage: &PercentageModelQuota{
			Models:      []PercentageModelEntry{{Name: "m", Percentage: 12}},
			LastUpdated: 42,
		},
	}

	record, err := snap.EncodeRecord("a", "antigravity")
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}
	if record.AccountID != "a" || record.Provider != "antigravity" || record.LastUpdated != 42 {
		t.Errorf("record = %+v", record)
	}
	if !strings.Contains(record.QuotaData, `"percentage":12`) {
		t.Errorf("QuotaData = %s", record.QuotaData)
	}

	if _, err := (&QuotaSnapshot{}).EncodeRecord("a", "qwen"); err == nil {
		t.Error("family-less snapshot should not encode")
	}
}
