package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// PercentageModelEntry is one model row in a percentage-model quota payload.
type PercentageModelEntry struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
	ResetTime  string  `json:"reset_time,omitempty"`
}

// PercentageModelQuota is the model-list quota shape (used percentage per model).
type PercentageModelQuota struct {
	Models           []PercentageModelEntry `json:"models"`
	IsForbidden      bool                   `json:"is_forbidden"`
	SubscriptionTier string                 `json:"subscription_tier,omitempty"`
	LastUpdated      int64                  `json:"last_updated"`
	IsError          bool                   `json:"is_error,omitempty"`
	ErrorMessage     string                 `json:"error_message,omitempty"`
}

// UsageWindowQuota is the rolling-window quota shape.
type UsageWindowQuota struct {
	PlanType         string  `json:"plan_type"`
	PrimaryUsed      float64 `json:"primary_used"`
	PrimaryResetsAt  string  `json:"primary_resets_at,omitempty"`
	SecondaryUsed    float64 `json:"secondary_used"`
	SecondaryResetAt string  `json:"secondary_resets_at,omitempty"`
	CreditsGranted   float64 `json:"credits_granted,omitempty"`
	CreditsUsed      float64 `json:"credits_used,omitempty"`
	LastUpdated      int64   `json:"last_updated"`
	IsError          bool    `json:"is_error,omitempty"`
	ErrorMessage     string  `json:"error_message,omitempty"`
}

// FractionModelEntry is one model row in a fraction-model quota payload.
type FractionModelEntry struct {
	ModelID           string  `json:"model_id"`
	RemainingFraction float64 `json:"remaining_fraction"`
	ResetTime         string  `json:"reset_time,omitempty"`
}

// FractionModelQuota is the model-list quota shape with remaining fractions.
type FractionModelQuota struct {
	Models       []FractionModelEntry `json:"models"`
	LastUpdated  int64                `json:"last_updated"`
	IsError      bool                 `json:"is_error,omitempty"`
	ErrorMessage string               `json:"error_message,omitempty"`
}

// CumulativeUsageQuota is the running-total quota shape.
type CumulativeUsageQuota struct {
	UsageLimit     float64 `json:"usage_limit"`
	CurrentUsage   float64 `json:"current_usage"`
	TrialLimit     float64 `json:"trial_limit,omitempty"`
	TrialUsage     float64 `json:"trial_usage,omitempty"`
	DaysUntilReset int     `json:"days_until_reset,omitempty"`
	LastUpdated    int64   `json:"last_updated"`
	IsError        bool    `json:"is_error,omitempty"`
	ErrorMessage   string  `json:"error_message,omitempty"`
}

// QuotaSnapshot is a tagged union over the per-family quota shapes.
// Exactly one payload pointer matching Family is non-nil.
type QuotaSnapshot struct {
	Family     QuotaFamily
	Percentage *PercentageModelQuota
	Window     *UsageWindowQuota
	Fraction   *FractionModelQuota
	Cumulative *CumulativeUsageQuota
}

// IsError reports whether the snapshot carries an error payload.
func (s *QuotaSnapshot) IsError() bool {
	switch s.Family {
	case FamilyPercentageModel:
		return s.Percentage != nil && s.Percentage.IsError
	case FamilyUsageWindow:
		return s.Window != nil && s.Window.IsError
	case FamilyFractionModel:
		return s.Fraction != nil && s.Fraction.IsError
	case FamilyCumulativeUsage:
		return s.Cumulative != nil && s.Cumulative.IsError
	}
	return false
}

// ErrorMessage returns the error text, empty for data payloads.
func (s *QuotaSnapshot) ErrorMessage() string {
	switch s.Family {
	case FamilyPercentageModel:
		if s.Percentage != nil {
			return s.Percentage.ErrorMessage
		}
	case FamilyUsageWindow:
		if s.Window != nil {
			return s.Window.ErrorMessage
		}
	case FamilyFractionModel:
		if s.Fraction != nil {
			return s.Fraction.ErrorMessage
		}
	case FamilyCumulativeUsage:
		if s.Cumulative != nil {
			return s.Cumulative.ErrorMessage
		}
	}
	return ""
}

// LastUpdated returns the snapshot timestamp.
func (s *QuotaSnapshot) LastUpdated() time.Time {
	var unix int64
	switch s.Family {
	case FamilyPercentageModel:
		if s.Percentage != nil {
			unix = s.Percentage.LastUpdated
		}
	case FamilyUsageWindow:
		if s.Window != nil {
			unix = s.Window.LastUpdated
		}
	case FamilyFractionModel:
		if s.Fraction != nil {
			unix = s.Fraction.LastUpdated
		}
	case FamilyCumulativeUsage:
		if s.Cumulative != nil {
			unix = s.Cumulative.LastUpdated
		}
	}
	if unix == 0 {
		return time.Time{}
	}
	return time.Unix(unix, 0)
}

// RemainingPercent reduces any payload shape to a single 0..100 remaining
// figure for aggregate display. Error payloads report zero.
func (s *QuotaSnapshot) RemainingPercent() float64 {
	if s.IsError() {
		return 0
	}
	switch s.Family {
	case FamilyPercentageModel:
		if s.Percentage == nil || len(s.Percentage.Models) == 0 {
			return 0
		}
		// The most consumed model bounds the account.
		worst := 0.0
		for _, m := range s.Percentage.Models {
			if m.Percentage > worst {
				worst = m.Percentage
			}
		}
		return 100 - worst
	case FamilyUsageWindow:
		if s.Window == nil {
			return 0
		}
		return 100 - s.Window.PrimaryUsed
	case FamilyFractionModel:
		if s.Fraction == nil || len(s.Fraction.Models) == 0 {
			return 0
		}
		worst := 1.0
		for _, m := range s.Fraction.Models {
			if m.RemainingFraction < worst {
				worst = m.RemainingFraction
			}
		}
		return worst * 100
	case FamilyCumulativeUsage:
		if s.Cumulative == nil || s.Cumulative.UsageLimit <= 0 {
			return 0
		}
		return (s.Cumulative.UsageLimit - s.Cumulative.CurrentUsage) / s.Cumulative.UsageLimit * 100
	}
	return 0
}

// CachedQuotaRecord is the persisted form of a snapshot: the payload is kept
// opaque until the owning provider's family is known.
type CachedQuotaRecord struct {
	AccountID   string `json:"account_id"`
	Provider    string `json:"provider"`
	QuotaData   string `json:"quota_data"`
	LastUpdated int64  `json:"last_updated"`
}

// DecodeSnapshot deserializes a cached record into the snapshot variant
// matching its provider's family. Providers without a family, and payloads
// that do not parse, yield an error; callers skip such records.
func (r CachedQuotaRecord) DecodeSnapshot() (*QuotaSnapshot, error) {
	family := FamilyFor(r.Provider)
	if family == FamilyNone {
		return nil, fmt.Errorf("no quota shape for provider %q", r.Provider)
	}

	snap := &QuotaSnapshot{Family: family}
	var err error
	switch family {
	case FamilyPercentageModel:
		var payload PercentageModelQuota
		if err = json.Unmarshal([]byte(r.QuotaData), &payload); err == nil {
			snap.Percentage = &payload
		}
	case FamilyUsageWindow:
		var payload UsageWindowQuota
		if err = json.Unmarshal([]byte(r.QuotaData), &payload); err == nil {
			snap.Window = &payload
		}
	case FamilyFractionModel:
		var payload FractionModelQuota
		if err = json.Unmarshal([]byte(r.QuotaData), &payload); err == nil {
			snap.Fraction = &payload
		}
	case FamilyCumulativeUsage:
		var payload CumulativeUsageQuota
		if err = json.Unmarshal([]byte(r.QuotaData), &payload); err == nil {
			snap.Cumulative = &payload
		}
	}
	if err != nil {
		return nil, fmt.Errorf("decode cached quota for %s: %w", r.AccountID, err)
	}
	return snap, nil
}

// EncodeRecord serializes a snapshot back into its persisted form.
func (s *QuotaSnapshot) EncodeRecord(accountID, provider string) (CachedQuotaRecord, error) {
	var payload any
	switch s.Family {
	case FamilyPercentageModel:
		payload = s.Percentage
	case FamilyUsageWindow:
		payload = s.Window
	case FamilyFractionModel:
		payload = s.Fraction
	case FamilyCumulativeUsage:
		payload = s.Cumulative
	default:
		return CachedQuotaRecord{}, fmt.Errorf("snapshot has no family")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return CachedQuotaRecord{}, fmt.Errorf("encode quota for %s: %w", accountID, err)
	}

	return CachedQuotaRecord{
		AccountID:   accountID,
		Provider:    provider,
		QuotaData:   string(data),
		LastUpdated: s.LastUpdated().Unix(),
	}, nil
}
