// Package models defines data structures and domain types.
package models

// Account is a credential record managed by the backend. The client never
// mutates one directly; every change goes through the RPC surface and is
// observed by re-fetching the list.
type Account struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	Email    string `json:"email,omitempty"`
	Prefix   string `json:"prefix,omitempty"`
	Enabled  bool   `json:"enabled"`
}

// DisplayName returns the best human-readable label for the account.
func (a Account) DisplayName() string {
	if a.Email != "" {
		return a.Email
	}
	if a.Prefix != "" {
		return a.Prefix
	}
	return a.ID
}

// AccountWithQuota combines an account with its current quota state for rendering.
type AccountWithQuota struct {
	Account
	Quota   *QuotaSnapshot
	Loading bool
}

// AuthSummary aggregates account counts as reported by the backend.
type AuthSummary struct {
	Total      int            `json:"total"`
	Enabled    int            `json:"enabled"`
	ByProvider map[string]int `json:"by_provider"`
}

// ServerStatus describes the proxy server process state.
type ServerStatus struct {
	Running bool   `json:"running"`
	Port    int    `json:"port"`
	Host    string `json:"host"`
}

// Settings is the subset of backend configuration the client reads.
type Settings struct {
	Host                 string `json:"host"`
	Port                 int    `json:"port"`
	AuthDir              string `json:"auth_dir"`
	QuotaRefreshInterval int    `json:"quota_refresh_interval"` // minutes
}
