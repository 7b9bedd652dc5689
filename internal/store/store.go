// Package store persists hotkey execution history: a SQLite store for
// queryable recent history and a Parquet exporter for offline archives.
package store

import (
	"context"

	"hotdeck/internal/domain"
)

// ExecutionStore records completed hotkey dispatch sessions and their
// per-account results.
type ExecutionStore interface {
	// SaveExecution persists one completed dispatch session.
	SaveExecution(ctx context.Context, result *domain.HotkeyExecutionResult) error

	// GetExecution retrieves a session by its id, or nil if unknown.
	GetExecution(ctx context.Context, sessionID string) (*domain.HotkeyExecutionResult, error)

	// ListExecutions returns the most recent sessions, newest first.
	ListExecutions(ctx context.Context, limit int) ([]domain.HotkeyExecutionResult, error)
}
