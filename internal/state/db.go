package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// InitDB opens and verifies a PostgreSQL connection pool.
func InitDB(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	journalLogger.Info().Msg("Successfully connected to the PostgreSQL database!")
	return db, nil
}

// CloseDB closes the database connection pool.
func CloseDB(db *sql.DB) {
	if db == nil {
		return
	}
	journalLogger.Info().Msg("Closing database connection...")
	if err := db.Close(); err != nil {
		journalLogger.Error().Err(err).Msg("Error closing database connection")
	}
}

// EnsureSchema applies the journal DDL. It is safe to run multiple times.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return ErrNotInitialized
	}

	schemaSQL := `
		CREATE TABLE IF NOT EXISTS ledger_events (
			event_id SERIAL PRIMARY KEY,
			invocation_id VARCHAR(64) NOT NULL,
			contract VARCHAR(64) NOT NULL,
			topic VARCHAR(64) NOT NULL,
			sequence BIGINT NOT NULL,
			event_index INTEGER NOT NULL,
			data JSONB NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT uq_ledger_events_invocation_index UNIQUE (invocation_id, event_index)
		);
		CREATE INDEX IF NOT EXISTS idx_ledger_events_topic ON ledger_events(topic);
		CREATE INDEX IF NOT EXISTS idx_ledger_events_sequence ON ledger_events(sequence DESC);

		CREATE TABLE IF NOT EXISTS zap_receipts (
			receipt_id SERIAL PRIMARY KEY,
			invocation_id VARCHAR(64) NOT NULL UNIQUE,
			sequence BIGINT NOT NULL,
			caller VARCHAR(64) NOT NULL,
			from_asset VARCHAR(64) NOT NULL,
			amount_in NUMERIC(39, 0) NOT NULL,
			vault VARCHAR(64) NOT NULL,
			amount_swapped NUMERIC(39, 0) NOT NULL,
			vault_shares NUMERIC(39, 0) NOT NULL,
			topics TEXT[] NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_zap_receipts_recorded_at ON zap_receipts(recorded_at DESC);
		CREATE INDEX IF NOT EXISTS idx_zap_receipts_vault ON zap_receipts(vault);
	`
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	journalLogger.Info().Msg("Database schema ensured.")
	return nil
}

// TestDBConnection checks that the pool is reachable.
func TestDBConnection(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return ErrNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
