// Package rpc defines the client boundary to the local proxy backend's
// management API and its HTTP implementation.
package rpc

import (
	"context"

	"github.com/j-veylop/proxydeck-tui/internal/models"
)

// RemoteService is the full set of backend operations the client consumes.
// Every call is a fire-once request/response; none are streaming.
type RemoteService interface {
	// Account CRUD and queries.
	GetAuthAccounts(ctx context.Context) ([]models.Account, error)
	GetAuthSummary(ctx context.Context) (models.AuthSummary, error)
	DeleteAccount(ctx context.Context, accountID string) error
	SetAccountEnabled(ctx context.Context, accountID string, enabled bool) error
	SaveAPIKeyAccount(ctx context.Context, provider, apiKey, label string) error

	// Login. StartOAuthLogin returns an HTTP URL for browser handoff, a
	// non-URL completion token for synchronous flows, or empty on failure.
	StartOAuthLogin(ctx context.Context, provider string) (string, error)
	SetGeminiProjectID(ctx context.Context, accountID, projectID string) error

	// Server lifecycle.
	GetServerStatus(ctx context.Context) (models.ServerStatus, error)
	StartServer(ctx context.Context) error
	StopServer(ctx context.Context) error

	// Quota, one fetch per provider family plus the persisted snapshot set.
	FetchAntigravityQuota(ctx context.Context, accountID string) (*models.PercentageModelQuota, error)
	FetchCodexQuota(ctx context.Context, accountID string) (*models.UsageWindowQuota, error)
	FetchGeminiQuota(ctx context.Context, accountID string) (*models.FractionModelQuota, error)
	FetchKiroQuota(ctx context.Context, accountID string) (*models.CumulativeUsageQuota, error)
	GetCachedQuotas(ctx context.Context) (map[string]models.CachedQuotaRecord, error)

	// Settings and interchange.
	GetSettings(ctx context.Context) (models.Settings, error)
	ExportAccountsToFile(ctx context.Context, path string) error
	ImportAccountsFromFile(ctx context.Context, path string) (int, error)
}
