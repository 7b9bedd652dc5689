package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hotdeck/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ ExecutionStore = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id    TEXT PRIMARY KEY,
	preset_id     TEXT NOT NULL,
	preset_name   TEXT NOT NULL,
	symbol        TEXT NOT NULL,
	side          TEXT NOT NULL,
	success_count INTEGER NOT NULL,
	total_count   INTEGER NOT NULL,
	started_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS session_results (
	session_id      TEXT NOT NULL REFERENCES sessions(session_id),
	idx             INTEGER NOT NULL,
	account_id      TEXT NOT NULL,
	account_name    TEXT NOT NULL,
	success         INTEGER NOT NULL,
	broker_order_id TEXT NOT NULL DEFAULT '',
	client_order_id TEXT NOT NULL,
	error           TEXT NOT NULL DEFAULT '',
	completed_at    INTEGER NOT NULL,
	PRIMARY KEY (session_id, idx)
);

CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at DESC);
`

// SQLiteStore implements ExecutionStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies the
// schema, and returns a ready-to-use store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveExecution persists one completed dispatch session and its per-account
// results in a single transaction.
func (s *SQLiteStore) SaveExecution(ctx context.Context, r *domain.HotkeyExecutionResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (session_id, preset_id, preset_name, symbol, side, success_count, total_count, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID, r.PresetID, r.PresetName, r.Symbol, string(r.Side),
		r.SuccessCount, r.TotalCount, r.StartedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("inserting session %s: %w", r.SessionID, err)
	}

	for i, ar := range r.Results {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO session_results (session_id, idx, account_id, account_name, success, broker_order_id, client_order_id, error, completed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.SessionID, i, ar.AccountID, ar.AccountName, boolToInt(ar.Success),
			ar.BrokerOrderID, ar.ClientOrderID, ar.Error, ar.CompletedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("inserting result %s/%s: %w", r.SessionID, ar.AccountID, err)
		}
	}

	return tx.Commit()
}

// GetExecution retrieves a session by id, or nil if unknown.
func (s *SQLiteStore) GetExecution(ctx context.Context, sessionID string) (*domain.HotkeyExecutionResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT session_id, preset_id, preset_name, symbol, side, success_count, total_count, started_at
		 FROM sessions WHERE session_id = ?`, sessionID)

	r, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadResults(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// ListExecutions returns the most recent sessions, newest first.
func (s *SQLiteStore) ListExecutions(ctx context.Context, limit int) ([]domain.HotkeyExecutionResult, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, preset_id, preset_name, symbol, side, success_count, total_count, started_at
		 FROM sessions ORDER BY started_at DESC, session_id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.HotkeyExecutionResult
	for rows.Next() {
		r, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if err := s.loadResults(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLiteStore) loadResults(ctx context.Context, r *domain.HotkeyExecutionResult) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT account_id, account_name, success, broker_order_id, client_order_id, error, completed_at
		 FROM session_results WHERE session_id = ? ORDER BY idx`, r.SessionID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ar domain.AccountOrderResult
		var success int
		var completedMs int64
		if err := rows.Scan(&ar.AccountID, &ar.AccountName, &success,
			&ar.BrokerOrderID, &ar.ClientOrderID, &ar.Error, &completedMs); err != nil {
			return err
		}
		ar.Success = success != 0
		ar.CompletedAt = time.UnixMilli(completedMs).UTC()
		r.Results = append(r.Results, ar)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.HotkeyExecutionResult, error) {
	var r domain.HotkeyExecutionResult
	var side string
	var startedMs int64
	if err := row.Scan(&r.SessionID, &r.PresetID, &r.PresetName, &r.Symbol,
		&side, &r.SuccessCount, &r.TotalCount, &startedMs); err != nil {
		return nil, err
	}
	r.Side = domain.Side(side)
	r.StartedAt = time.UnixMilli(startedMs).UTC()
	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
