// Package sqlite provides a local ledger store for running the gateway
// without Supabase. Records land in the same row shape (tipo,
// referencia, valor, status, dados) as the hosted backend.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"

	"github.com/lotefacil/cnab-gateway/internal/domain"
)

// InitDB opens (or creates) a SQLite database at the given path and
// ensures the reconciliations table exists. Pass ":memory:" for an
// in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS reconciliations (
			id TEXT PRIMARY KEY,
			tipo TEXT NOT NULL,
			referencia TEXT NOT NULL,
			valor TEXT,
			status TEXT NOT NULL,
			dados TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reconciliations_tipo ON reconciliations(tipo)`,
		`CREATE INDEX IF NOT EXISTS idx_reconciliations_referencia ON reconciliations(referencia)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create tables: %w", err)
		}
	}

	return db, nil
}

// LedgerStore persists reconciliation records in SQLite.
type LedgerStore struct {
	db *sql.DB
}

// NewLedgerStore wraps an initialized database.
func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// BulkInsert stores all records in one transaction and returns the
// number of rows inserted.
func (s *LedgerStore) BulkInsert(ctx context.Context, records []domain.ReconciliationRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO reconciliations
		(id, tipo, referencia, valor, status, dados, created_at)
		VALUES (?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	inserted := 0
	for i := range records {
		rec := &records[i]
		var valor any
		if rec.Amount != nil {
			valor = rec.Amount.String()
		}
		res, err := stmt.ExecContext(ctx,
			uuid.New().String(), rec.Type, rec.Reference, valor, rec.Status, rec.RawPayload, now,
		)
		if err != nil {
			return inserted, fmt.Errorf("insert %d: %w", i, err)
		}
		ra, _ := res.RowsAffected()
		inserted += int(ra)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// Ping checks database reachability.
func (s *LedgerStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
