package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/lib/pq" // PostgreSQL driver for array support

	"github.com/elys-network/yieldzap/internal/ledger"
	"github.com/elys-network/yieldzap/internal/types"
)

// PostgresJournal persists committed notifications and zap receipts.
type PostgresJournal struct {
	db  *sql.DB
	now func() time.Time
}

var _ Journal = (*PostgresJournal)(nil)

func NewPostgresJournal(db *sql.DB) *PostgresJournal {
	return &PostgresJournal{db: db, now: time.Now}
}

// HandleEvents stores one committed unit's events and derived receipts in a
// single transaction.
func (j *PostgresJournal) HandleEvents(ctx context.Context, events []ledger.Event) error {
	if j.db == nil {
		return ErrNotInitialized
	}
	if len(events) == 0 {
		return nil
	}
	recordedAt := j.now().UTC()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin journal transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, e := range events {
		data, err := json.Marshal(e.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal event data: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO ledger_events (invocation_id, contract, topic, sequence, event_index, data, recorded_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (invocation_id, event_index) DO NOTHING;`,
			e.InvocationID, e.Contract.String(), e.Topic, int64(e.Sequence), e.Index, data, recordedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save ledger event: %w", err)
		}
	}

	receipts := receiptsFromEvents(events, recordedAt)
	for _, r := range receipts {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO zap_receipts (
				invocation_id, sequence, caller, from_asset, amount_in,
				vault, amount_swapped, vault_shares, topics, recorded_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (invocation_id) DO NOTHING;`,
			r.InvocationID, int64(r.Sequence), r.Caller.String(), r.FromAsset.String(), r.AmountIn.String(),
			r.Vault.String(), r.AmountSwapped.String(), r.VaultShares.String(), pq.Array(r.Topics), r.RecordedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save zap receipt: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit journal transaction: %w", err)
	}

	journalLogger.Debug().
		Int("events", len(events)).
		Int("receipts", len(receipts)).
		Msg("Journaled committed unit")
	return nil
}

const receiptColumns = `invocation_id, sequence, caller, from_asset, amount_in::TEXT,
	vault, amount_swapped::TEXT, vault_shares::TEXT, topics, recorded_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row rowScanner) (types.ZapReceipt, error) {
	var (
		r                         types.ZapReceipt
		seq                       int64
		caller, fromAsset, vault  string
		amountIn, swapped, shares string
	)
	if err := row.Scan(&r.InvocationID, &seq, &caller, &fromAsset, &amountIn,
		&vault, &swapped, &shares, pq.Array(&r.Topics), &r.RecordedAt); err != nil {
		return types.ZapReceipt{}, err
	}
	r.Sequence = uint32(seq)
	r.Caller = ledger.Address(caller)
	r.FromAsset = ledger.Address(fromAsset)
	r.Vault = ledger.Address(vault)

	var err error
	if r.AmountIn, err = parseAmount(amountIn); err != nil {
		return types.ZapReceipt{}, err
	}
	if r.AmountSwapped, err = parseAmount(swapped); err != nil {
		return types.ZapReceipt{}, err
	}
	if r.VaultShares, err = parseAmount(shares); err != nil {
		return types.ZapReceipt{}, err
	}
	return r, nil
}

func parseAmount(s string) (sdkmath.Int, error) {
	v, ok := sdkmath.NewIntFromString(s)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("invalid stored amount %q", s)
	}
	return v, nil
}

// RecentReceipts returns the newest receipts first.
func (j *PostgresJournal) RecentReceipts(ctx context.Context, limit int) ([]types.ZapReceipt, error) {
	if j.db == nil {
		return nil, ErrNotInitialized
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT `+receiptColumns+` FROM zap_receipts ORDER BY recorded_at DESC, receipt_id DESC LIMIT $1;`,
		clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query zap receipts: %w", err)
	}
	defer rows.Close()

	receipts := make([]types.ZapReceipt, 0)
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan zap receipt: %w", err)
		}
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating zap receipts: %w", err)
	}
	return receipts, nil
}

func (j *PostgresJournal) ReceiptByID(ctx context.Context, invocationID string) (types.ZapReceipt, error) {
	if j.db == nil {
		return types.ZapReceipt{}, ErrNotInitialized
	}
	row := j.db.QueryRowContext(ctx,
		`SELECT `+receiptColumns+` FROM zap_receipts WHERE invocation_id = $1;`, invocationID)
	r, err := scanReceipt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ZapReceipt{}, fmt.Errorf("%w: %s", ErrReceiptNotFound, invocationID)
	}
	if err != nil {
		return types.ZapReceipt{}, fmt.Errorf("failed to load zap receipt: %w", err)
	}
	return r, nil
}

func (j *PostgresJournal) VaultStats(ctx context.Context) ([]types.VaultStats, error) {
	if j.db == nil {
		return nil, ErrNotInitialized
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT vault, COUNT(*), SUM(vault_shares)::TEXT, MAX(recorded_at)
		FROM zap_receipts GROUP BY vault ORDER BY vault;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vault stats: %w", err)
	}
	defer rows.Close()

	stats := make([]types.VaultStats, 0)
	for rows.Next() {
		var (
			s             types.VaultStats
			vault, shares string
		)
		if err := rows.Scan(&vault, &s.Zaps, &shares, &s.LastZapAt); err != nil {
			return nil, fmt.Errorf("failed to scan vault stats: %w", err)
		}
		s.Vault = ledger.Address(vault)
		if s.TotalShares, err = parseAmount(shares); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vault stats: %w", err)
	}
	return stats, nil
}
