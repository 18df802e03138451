package models

import (
	"encoding/json"
	"fmt"
	"os"
)

// ExportToken is the credential portion of an exported account record.
// Fields beyond these are preserved opaquely by the backend.
type ExportToken struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    string `json:"expires_at,omitempty"`
}

// ExportRecord is one entry in the account interchange file.
type ExportRecord struct {
	Provider string       `json:"provider"`
	Email    string       `json:"email,omitempty"`
	Enabled  bool         `json:"enabled"`
	Token    *ExportToken `json:"token,omitempty"`
}

// ReadExportFile parses an interchange file and returns its records.
func ReadExportFile(path string) ([]ExportRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export file: %w", err)
	}

	var records []ExportRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse export file %s: %w", path, err)
	}
	return records, nil
}
