package models

import "strings"

// QuotaFamily classifies providers whose quota payloads share one structural shape.
type QuotaFamily string

const (
	// FamilyPercentageModel is the model-list shape with 0..100 percentages.
	FamilyPercentageModel QuotaFamily = "percentage-model"
	// FamilyUsageWindow is the rolling-window shape with primary/secondary usage.
	FamilyUsageWindow QuotaFamily = "usage-window"
	// FamilyFractionModel is the model-list shape with 0..1 remaining fractions.
	FamilyFractionModel QuotaFamily = "fraction-model"
	// FamilyCumulativeUsage is the running-total shape with a usage limit.
	FamilyCumulativeUsage QuotaFamily = "cumulative-usage"
	// FamilyNone marks providers without a known quota shape.
	FamilyNone QuotaFamily = ""
)

// providerAliases maps raw provider tags to their canonical identity.
// Used for display and family dispatch only, never for routing.
var providerAliases = map[string]string{
	"gemini": "google",
	"claude": "anthropic",
	"codex":  "openai",
}

// providerFamilies maps canonical providers to their quota family.
var providerFamilies = map[string]QuotaFamily{
	"antigravity": FamilyPercentageModel,
	"openai":      FamilyUsageWindow,
	"google":      FamilyFractionModel,
	"kiro":        FamilyCumulativeUsage,
}

// CanonicalProvider normalizes a raw provider tag.
func CanonicalProvider(raw string) string {
	p := strings.ToLower(strings.TrimSpace(raw))
	if canon, ok := providerAliases[p]; ok {
		return canon
	}
	return p
}

// FamilyFor returns the quota family for a raw provider tag, or FamilyNone
// when the provider has no known quota shape.
func FamilyFor(raw string) QuotaFamily {
	return providerFamilies[CanonicalProvider(raw)]
}

// IsGoogleFamily reports whether the provider belongs to the Google/Gemini
// family, which requires the post-login project-id step.
func IsGoogleFamily(raw string) bool {
	return CanonicalProvider(raw) == "google"
}

// KnownProviders lists the provider tags accepted for OAuth login, in menu order.
func KnownProviders() []string {
	return []string{"google", "anthropic", "openai", "qwen", "iflow", "antigravity", "kiro"}
}
