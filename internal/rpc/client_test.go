package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, opts...)
}

func TestClient_GetAuthAccounts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/v0/management/auth-accounts" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Error("missing X-Request-Id header")
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`[{"id":"a","provider":"google","enabled":true}]`)); err != nil {
			t.Fatal(err)
		}
	})

	accounts, err := client.GetAuthAccounts(context.Background())
	if err != nil {
		t.Fatalf("GetAuthAccounts: %v", err)
	}
	if len(accounts) != 1 || accounts[0].ID != "a" || !accounts[0].Enabled {
		t.Errorf("accounts = %+v", accounts)
	}
}

func TestClient_ManagementKeyHeader(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sekrit" {
			t.Errorf("Authorization = %q", got)
		}
		w.WriteHeader(http.StatusOK)
	}, WithManagementKey("sekrit"))

	if err := client.StartServer(context.Background()); err != nil {
		t.Fatalf("StartServer: %v", err)
	}
}

func TestClient_SetAccountEnabled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s, want PATCH", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/auth-accounts/acc%2F1") && !strings.HasSuffix(r.URL.Path, "/auth-accounts/acc/1") {
			t.Errorf("path = %s, account id not escaped", r.URL.EscapedPath())
		}
		var body struct {
			Enabled bool `json:"enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body.Enabled {
			t.Error("enabled = true, want false")
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := client.SetAccountEnabled(context.Background(), "acc/1", false); err != nil {
		t.Fatalf("SetAccountEnabled: %v", err)
	}
}

func TestClient_StartOAuthLogin(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Provider string `json:"provider"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body.Provider != "google" {
			t.Errorf("provider = %s", body.Provider)
		}
		if _, err := w.Write([]byte(`{"url":"https://accounts.example.com/auth"}`)); err != nil {
			t.Fatal(err)
		}
	})

	url, err := client.StartOAuthLogin(context.Background(), "google")
	if err != nil {
		t.Fatalf("StartOAuthLogin: %v", err)
	}
	if url != "https://accounts.example.com/auth" {
		t.Errorf("url = %s", url)
	}
}

func TestClient_ErrorResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		if _, err := w.Write([]byte(`{"error":"account is busy"}`)); err != nil {
			t.Fatal(err)
		}
	})

	err := client.DeleteAccount(context.Background(), "a")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "account is busy") {
		t.Errorf("error should carry the backend message, got %v", err)
	}
	if !strings.Contains(err.Error(), "409") {
		t.Errorf("error should carry the status code, got %v", err)
	}
}

func TestClient_ErrorResponsePlainBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		if _, err := w.Write([]byte("boom")); err != nil {
			t.Fatal(err)
		}
	})

	err := client.StopServer(context.Background())
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("error should fall back to the raw body, got %v", err)
	}
}

func TestClient_FetchQuotaPaths(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if _, err := w.Write([]byte(`{}`)); err != nil {
			t.Fatal(err)
		}
	})

	ctx := context.Background()
	if _, err := client.FetchAntigravityQuota(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := client.FetchCodexQuota(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := client.FetchGeminiQuota(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := client.FetchKiroQuota(ctx, "a"); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"/v0/management/quota/antigravity/a",
		"/v0/management/quota/codex/a",
		"/v0/management/quota/gemini/a",
		"/v0/management/quota/kiro/a",
	}
	for i, p := range want {
		if paths[i] != p {
			t.Errorf("path[%d] = %s, want %s", i, paths[i], p)
		}
	}
}

func TestClient_GetCachedQuotas(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		payload := `{"a":{"account_id":"a","provider":"antigravity","quota_data":"{}","last_updated":7}}`
		if _, err := w.Write([]byte(payload)); err != nil {
			t.Fatal(err)
		}
	})

	records, err := client.GetCachedQuotas(context.Background())
	if err != nil {
		t.Fatalf("GetCachedQuotas: %v", err)
	}
	if len(records) != 1 || records["a"].Provider != "antigravity" {
		t.Errorf("records = %+v", records)
	}
}

func TestClient_ImportAccountsFromFile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body.Path != "accounts.json" {
			t.Errorf("path = %s", body.Path)
		}
		if _, err := w.Write([]byte(`{"imported":4}`)); err != nil {
			t.Fatal(err)
		}
	})

	count, err := client.ImportAccountsFromFile(context.Background(), "accounts.json")
	if err != nil {
		t.Fatalf("ImportAccountsFromFile: %v", err)
	}
	if count != 4 {
		t.Errorf("count = %d, want 4", count)
	}
}

func TestClient_GetSettings(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		payload := `{"host":"127.0.0.1","port":8417,"auth_dir":"/tmp/auth","quota_refresh_interval":5}`
		if _, err := w.Write([]byte(payload)); err != nil {
			t.Fatal(err)
		}
	})

	settings, err := client.GetSettings(context.Background())
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if settings.Port != 8417 || settings.QuotaRefreshInterval != 5 {
		t.Errorf("settings = %+v", settings)
	}
}
