/*

This file contains the journaled view of committed zaps: one receipt per
zap_completed notification and per-vault aggregates over them.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/yieldzap/internal/ledger"
)

// ZapReceipt is a committed zap as seen by the journal.
type ZapReceipt struct {
	InvocationID  string         `json:"invocation_id"`
	Sequence      uint32         `json:"sequence"`
	Caller        ledger.Address `json:"caller"`
	FromAsset     ledger.Address `json:"from_asset"`
	AmountIn      sdkmath.Int    `json:"amount_in"`
	Vault         ledger.Address `json:"vault"`
	AmountSwapped sdkmath.Int    `json:"amount_swapped"`
	VaultShares   sdkmath.Int    `json:"vault_shares"`
	Topics        []string       `json:"topics"` // Every notification topic of the unit, in order
	RecordedAt    time.Time      `json:"recorded_at"`
}

// VaultStats aggregates the receipts of one vault.
type VaultStats struct {
	Vault       ledger.Address `json:"vault"`
	Zaps        int            `json:"zaps"`
	TotalShares sdkmath.Int    `json:"total_shares"`
	LastZapAt   time.Time      `json:"last_zap_at"`
}
