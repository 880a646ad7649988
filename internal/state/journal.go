package state

import (
	"context"
	"errors"
	"sort"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/yieldzap/internal/abi"
	"github.com/elys-network/yieldzap/internal/ledger"
	"github.com/elys-network/yieldzap/internal/logger"
	"github.com/elys-network/yieldzap/internal/types"
)

const (
	defaultReceiptLimit = 10
	maxReceiptLimit     = 100
)

var (
	ErrReceiptNotFound = errors.New("receipt not found")
	ErrNotInitialized  = errors.New("database not initialized")
)

var journalLogger = logger.GetForComponent("journal")

// Journal records committed notifications and serves zap receipts.
// Implementations are ledger event sinks.
type Journal interface {
	ledger.EventSink
	RecentReceipts(ctx context.Context, limit int) ([]types.ZapReceipt, error)
	ReceiptByID(ctx context.Context, invocationID string) (types.ZapReceipt, error)
	VaultStats(ctx context.Context) ([]types.VaultStats, error)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxReceiptLimit {
		return defaultReceiptLimit
	}
	return limit
}

// receiptsFromEvents derives one receipt per zap_completed notification.
// Undecodable payloads are logged and skipped.
func receiptsFromEvents(events []ledger.Event, recordedAt time.Time) []types.ZapReceipt {
	topics := make(map[string][]string)
	for _, e := range events {
		topics[e.InvocationID] = append(topics[e.InvocationID], e.Topic)
	}

	var receipts []types.ZapReceipt
	for _, e := range events {
		if e.Topic != abi.TopicZapCompleted {
			continue
		}
		z, err := abi.DecodeZapCompleted(e.Data)
		if err != nil {
			journalLogger.Warn().Err(err).
				Str("invocationID", e.InvocationID).
				Msg("Skipping malformed zap_completed notification")
			continue
		}
		receipts = append(receipts, types.ZapReceipt{
			InvocationID:  e.InvocationID,
			Sequence:      e.Sequence,
			Caller:        z.Caller,
			FromAsset:     z.FromAsset,
			AmountIn:      z.AmountIn,
			Vault:         z.Vault,
			AmountSwapped: z.Result.AmountSwapped,
			VaultShares:   z.Result.VaultShares,
			Topics:        topics[e.InvocationID],
			RecordedAt:    recordedAt,
		})
	}
	return receipts
}

// statsFromReceipts aggregates receipts per vault, ordered by vault address.
func statsFromReceipts(receipts []types.ZapReceipt) []types.VaultStats {
	index := make(map[ledger.Address]int)
	var stats []types.VaultStats
	for _, r := range receipts {
		i, ok := index[r.Vault]
		if !ok {
			i = len(stats)
			index[r.Vault] = i
			stats = append(stats, types.VaultStats{Vault: r.Vault, TotalShares: sdkmath.ZeroInt()})
		}
		stats[i].Zaps++
		stats[i].TotalShares = stats[i].TotalShares.Add(r.VaultShares)
		if r.RecordedAt.After(stats[i].LastZapAt) {
			stats[i].LastZapAt = r.RecordedAt
		}
	}
	sort.Slice(stats, func(a, b int) bool { return stats[a].Vault < stats[b].Vault })
	return stats
}
