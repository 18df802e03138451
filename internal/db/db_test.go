package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/j-veylop/proxydeck-tui/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(filepath.Join(t.TempDir(), "quota_cache.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestDB_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "cache.db")
	database, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = database.Close() }()

	if database.Path() != path {
		t.Errorf("Path() = %s, want %s", database.Path(), path)
	}
}

func TestDB_SaveQuotaRecord(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	record := models.CachedQuotaRecord{
		AccountID:   "a",
		Provider:    "antigravity",
		QuotaData:   `{"models":[{"name":"m","percentage":40}]}`,
		LastUpdated: 100,
	}
	if err := database.SaveQuotaRecord(ctx, record); err != nil {
		t.Fatalf("SaveQuotaRecord: %v", err)
	}

	all, err := database.GetAllQuotaRecords(ctx)
	if err != nil {
		t.Fatalf("GetAllQuotaRecords: %v", err)
	}
	if got, ok := all["a"]; !ok || got != record {
		t.Errorf("got %+v, want %+v", got, record)
	}
	if _, ok := all["nope"]; ok {
		t.Error("unexpected record for an account never saved")
	}
}

func TestDB_SaveUpsertsExisting(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	first := models.CachedQuotaRecord{AccountID: "a", Provider: "kiro", QuotaData: "{}", LastUpdated: 1}
	second := models.CachedQuotaRecord{AccountID: "a", Provider: "kiro", QuotaData: `{"usage_limit":500}`, LastUpdated: 2}

	if err := database.SaveQuotaRecord(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := database.SaveQuotaRecord(ctx, second); err != nil {
		t.Fatal(err)
	}

	all, err := database.GetAllQuotaRecords(ctx)
	if err != nil {
		t.Fatalf("GetAllQuotaRecords: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("len = %d, want 1 (upsert, not insert)", len(all))
	}
	if all["a"].LastUpdated != 2 {
		t.Errorf("LastUpdated = %d, want the newer write", all["a"].LastUpdated)
	}
}

func TestDB_GetAllQuotaRecords(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	for _, record := range []models.CachedQuotaRecord{
		{AccountID: "a", Provider: "antigravity", QuotaData: "{}", LastUpdated: 1},
		{AccountID: "b", Provider: "google", QuotaData: "{}", LastUpdated: 2},
	} {
		if err := database.SaveQuotaRecord(ctx, record); err != nil {
			t.Fatal(err)
		}
	}

	all, err := database.GetAllQuotaRecords(ctx)
	if err != nil {
		t.Fatalf("GetAllQuotaRecords: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
	if all["b"].Provider != "google" {
		t.Errorf("record b = %+v", all["b"])
	}
}

func TestDB_DeleteQuotaRecord(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	record := models.CachedQuotaRecord{AccountID: "a", Provider: "openai", QuotaData: "{}"}
	if err := database.SaveQuotaRecord(ctx, record); err != nil {
		t.Fatal(err)
	}
	if err := database.DeleteQuotaRecord(ctx, "a"); err != nil {
		t.Fatalf("DeleteQuotaRecord: %v", err)
	}

	all, err := database.GetAllQuotaRecords(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := all["a"]; ok {
		t.Error("record should be gone after delete")
	}

	// Deleting a missing record is not an error.
	if err := database.DeleteQuotaRecord(ctx, "nope"); err != nil {
		t.Errorf("delete of missing record: %v", err)
	}
}
