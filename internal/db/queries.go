package db

import (
	"context"
	"fmt"

	"github.com/j-veylop/proxydeck-tui/internal/models"
)

// SaveQuotaRecord upserts one cached quota record.
func (db *DB) SaveQuotaRecord(ctx context.Context, record models.CachedQuotaRecord) error {
	const query = `
		INSERT OR REPLACE INTO quota_cache (account_id, provider, quota_data, last_updated)
		VALUES (?, ?, ?, ?)`

	_, err := db.ExecContext(ctx, query,
		record.AccountID, record.Provider, record.QuotaData, record.LastUpdated)
	if err != nil {
		return fmt.Errorf("failed to save quota record for %s: %w", record.AccountID, err)
	}
	return nil
}

// GetAllQuotaRecords returns every cached record keyed by account id.
func (db *DB) GetAllQuotaRecords(ctx context.Context) (map[string]models.CachedQuotaRecord, error) {
	const query = `SELECT account_id, provider, quota_data, last_updated FROM quota_cache`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query quota records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make(map[string]models.CachedQuotaRecord)
	for rows.Next() {
		var record models.CachedQuotaRecord
		if err := rows.Scan(&record.AccountID, &record.Provider,
			&record.QuotaData, &record.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan quota record: %w", err)
		}
		records[record.AccountID] = record
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quota records: %w", err)
	}
	return records, nil
}

// DeleteQuotaRecord removes the cached record for one account.
func (db *DB) DeleteQuotaRecord(ctx context.Context, accountID string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM quota_cache WHERE account_id = ?`, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete quota record for %s: %w", accountID, err)
	}
	return nil
}
