package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/j-veylop/proxydeck-tui/internal/logger"
	"github.com/j-veylop/proxydeck-tui/internal/models"
)

// Client is the HTTP implementation of RemoteService against the backend's
// management API.
type Client struct {
	baseURL       string
	managementKey string
	httpClient    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (used by tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithManagementKey sets the management API key header on every request.
func WithManagementKey(key string) Option {
	return func(c *Client) { c.managementKey = key }
}

// NewClient creates a management API client for the given base URL.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do performs one request and decodes the JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	if c.managementKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.managementKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed (status %d): %s", method, path, resp.StatusCode, errorText(data))
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("parse response from %s: %w", path, err)
		}
	}
	return nil
}

// errorText extracts a backend error message, falling back to the raw body.
func errorText(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

func (c *Client) GetAuthAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	if err := c.do(ctx, http.MethodGet, "/v0/management/auth-accounts", nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (c *Client) GetAuthSummary(ctx context.Context) (models.AuthSummary, error) {
	var summary models.AuthSummary
	err := c.do(ctx, http.MethodGet, "/v0/management/auth-summary", nil, &summary)
	return summary, err
}

func (c *Client) DeleteAccount(ctx context.Context, accountID string) error {
	return c.do(ctx, http.MethodDelete, "/v0/management/auth-accounts/"+url.PathEscape(accountID), nil, nil)
}

func (c *Client) SetAccountEnabled(ctx context.Context, accountID string, enabled bool) error {
	in := struct {
		Enabled bool `json:"enabled"`
	}{Enabled: enabled}
	return c.do(ctx, http.MethodPatch, "/v0/management/auth-accounts/"+url.PathEscape(accountID), in, nil)
}

func (c *Client) SaveAPIKeyAccount(ctx context.Context, provider, apiKey, label string) error {
	in := struct {
		Provider string `json:"provider"`
		APIKey   string `json:"api_key"`
		Label    string `json:"label,omitempty"`
	}{Provider: provider, APIKey: apiKey, Label: label}
	return c.do(ctx, http.MethodPost, "/v0/management/api-key-accounts", in, nil)
}

func (c *Client) StartOAuthLogin(ctx context.Context, provider string) (string, error) {
	in := struct {
		Provider string `json:"provider"`
	}{Provider: provider}
	var out struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/v0/management/oauth/start", in, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

func (c *Client) SetGeminiProjectID(ctx context.Context, accountID, projectID string) error {
	in := struct {
		ProjectID string `json:"project_id"`
	}{ProjectID: projectID}
	return c.do(ctx, http.MethodPut,
		"/v0/management/auth-accounts/"+url.PathEscape(accountID)+"/project", in, nil)
}

func (c *Client) GetServerStatus(ctx context.Context) (models.ServerStatus, error) {
	var status models.ServerStatus
	err := c.do(ctx, http.MethodGet, "/v0/management/server/status", nil, &status)
	return status, err
}

func (c *Client) StartServer(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/v0/management/server/start", nil, nil)
}

func (c *Client) StopServer(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/v0/management/server/stop", nil, nil)
}

func (c *Client) FetchAntigravityQuota(ctx context.Context, accountID string) (*models.PercentageModelQuota, error) {
	var quota models.PercentageModelQuota
	if err := c.do(ctx, http.MethodGet, quotaPath("antigravity", accountID), nil, &quota); err != nil {
		return nil, err
	}
	return &quota, nil
}

func (c *Client) FetchCodexQuota(ctx context.Context, accountID string) (*models.UsageWindowQuota, error) {
	var quota models.UsageWindowQuota
	if err := c.do(ctx, http.MethodGet, quotaPath("codex", accountID), nil, &quota); err != nil {
		return nil, err
	}
	return &quota, nil
}

func (c *Client) FetchGeminiQuota(ctx context.Context, accountID string) (*models.FractionModelQuota, error) {
	var quota models.FractionModelQuota
	if err := c.do(ctx, http.MethodGet, quotaPath("gemini", accountID), nil, &quota); err != nil {
		return nil, err
	}
	return &quota, nil
}

func (c *Client) FetchKiroQuota(ctx context.Context, accountID string) (*models.CumulativeUsageQuota, error) {
	var quota models.CumulativeUsageQuota
	if err := c.do(ctx, http.MethodGet, quotaPath("kiro", accountID), nil, &quota); err != nil {
		return nil, err
	}
	return &quota, nil
}

func quotaPath(family, accountID string) string {
	return "/v0/management/quota/" + family + "/" + url.PathEscape(accountID)
}

func (c *Client) GetCachedQuotas(ctx context.Context) (map[string]models.CachedQuotaRecord, error) {
	var records map[string]models.CachedQuotaRecord
	if err := c.do(ctx, http.MethodGet, "/v0/management/quota/cached", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) GetSettings(ctx context.Context) (models.Settings, error) {
	var settings models.Settings
	err := c.do(ctx, http.MethodGet, "/v0/management/settings", nil, &settings)
	return settings, err
}

func (c *Client) ExportAccountsToFile(ctx context.Context, path string) error {
	in := struct {
		Path string `json:"path"`
	}{Path: path}
	return c.do(ctx, http.MethodPost, "/v0/management/auth-accounts/export", in, nil)
}

func (c *Client) ImportAccountsFromFile(ctx context.Context, path string) (int, error) {
	in := struct {
		Path string `json:"path"`
	}{Path: path}
	var out struct {
		Imported int `json:"imported"`
	}
	if err := c.do(ctx, http.MethodPost, "/v0/management/auth-accounts/import", in, &out); err != nil {
		return 0, err
	}
	return out.Imported, nil
}
