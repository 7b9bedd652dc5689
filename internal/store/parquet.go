package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"hotdeck/internal/domain"
)

// ParquetArchive exports execution history to Parquet files for offline
// analysis. One file per export, one row per (session, account) result.
type ParquetArchive struct {
	DataDir string
}

// NewParquetArchive creates an archive rooted at the given data directory.
func NewParquetArchive(dataDir string) *ParquetArchive {
	return &ParquetArchive{DataDir: dataDir}
}

// ExecutionRecord is the Parquet schema for one per-account result, with
// its session fields denormalized for flat querying.
type ExecutionRecord struct {
	SessionID     string `parquet:"session_id"`
	PresetID      string `parquet:"preset_id"`
	PresetName    string `parquet:"preset_name"`
	Symbol        string `parquet:"symbol"`
	Side          string `parquet:"side"`
	StartedAt     int64  `parquet:"started_at,timestamp(millisecond)"`
	AccountID     string `parquet:"account_id"`
	AccountName   string `parquet:"account_name"`
	Success       bool   `parquet:"success"`
	BrokerOrderID string `parquet:"broker_order_id"`
	ClientOrderID string `parquet:"client_order_id"`
	Error         string `parquet:"error"`
	CompletedAt   int64  `parquet:"completed_at,timestamp(millisecond)"`
}

// WriteExecutions flattens the given sessions into per-account rows and
// writes them to <DataDir>/executions/<YYYY-MM-DD-HHMMSS>.parquet,
// returning the written path. An empty input writes nothing.
func (a *ParquetArchive) WriteExecutions(results []domain.HotkeyExecutionResult) (string, error) {
	if len(results) == 0 {
		return "", nil
	}

	var records []ExecutionRecord
	for _, r := range results {
		for _, ar := range r.Results {
			records = append(records, ExecutionRecord{
				SessionID:     r.SessionID,
				PresetID:      r.PresetID,
				PresetName:    r.PresetName,
				Symbol:        r.Symbol,
				Side:          string(r.Side),
				StartedAt:     r.StartedAt.UnixMilli(),
				AccountID:     ar.AccountID,
				AccountName:   ar.AccountName,
				Success:       ar.Success,
				BrokerOrderID: ar.BrokerOrderID,
				ClientOrderID: ar.ClientOrderID,
				Error:         ar.Error,
				CompletedAt:   ar.CompletedAt.UnixMilli(),
			})
		}
	}

	dir := filepath.Join(a.DataDir, "executions")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, time.Now().UTC().Format("2006-01-02-150405")+".parquet")

	if err := parquet.WriteFile(path, records); err != nil {
		return "", fmt.Errorf("writing execution archive: %w", err)
	}
	return path, nil
}

// ReadExecutions reads every row of one archive file.
func (a *ParquetArchive) ReadExecutions(path string) ([]ExecutionRecord, error) {
	return parquet.ReadFile[ExecutionRecord](path)
}
