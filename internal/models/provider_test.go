package models

import "testing"

func TestCanonicalProvider(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"gemini", "google"},
		{"claude", "anthropic"},
		{"codex", "openai"},
		{"google", "google"},
		{"  Gemini ", "google"},
		{"ANTIGRAVITY", "antigravity"},
		{"qwen", "qwen"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CanonicalProvider(tt.raw); got != tt.want {
			t.Errorf("CanonicalProvider(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestFamilyFor(t *testing.T) {
	tests := []struct {
		raw  string
		want QuotaFamily
	}{
		{"antigravity", FamilyPercentageModel},
		{"openai", FamilyUsageWindow},
		{"codex", FamilyUsageWindow},
		{"google", FamilyFractionModel},
		{"gemini", FamilyFractionModel},
		{"kiro", FamilyCumulativeUsage},
		{"qwen", FamilyNone},
		{"iflow", FamilyNone},
		{"anthropic", FamilyNone},
		{"claude", FamilyNone},
		{"unheard-of", FamilyNone},
	}
	for _, tt := range tests {
		if got := FamilyFor(tt.raw); got != tt.want {
			t.Errorf("FamilyFor(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestIsGoogleFamily(t *testing.T) {
	for _, raw := range []string{"google", "gemini", "GEMINI"} {
		if !IsGoogleFamily(raw) {
			t.Errorf("IsGoogleFamily(%q) = false", raw)
		}
	}
	for _, raw := range []string{"antigravity", "openai", "claude", ""} {
		if IsGoogleFamily(raw) {
			t.Errorf("IsGoogleFamily(%q) = true", raw)
		}
	}
}

func TestKnownProviders(t *testing.T) {
	providers := KnownProviders()
	if len(providers) == 0 {
		t.Fatal("no providers")
	}
	if providers[0] != "google" {
		t.Errorf("providers[0] = %s, want google first in menu order", providers[0])
	}
	seen := make(map[string]bool)
	for _, p := range providers {
		if seen[p] {
			t.Errorf("duplicate provider %q", p)
		}
		seen[p] = true
	}
}
