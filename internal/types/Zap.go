/*

This file contains the types that flow through a zap: the caller's request, the
route handed to the aggregator and the immutable result credited to the depositor.

*/

package types

import (
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/yieldzap/internal/ledger"
)

// SwapRequest describes one conversion through the swap aggregator.
type SwapRequest struct {
	TokenIn      ledger.Address `json:"token_in"`
	TokenOut     ledger.Address `json:"token_out"`
	AmountIn     sdkmath.Int    `json:"amount_in"`      // Must be > 0
	AmountOutMin sdkmath.Int    `json:"amount_out_min"` // Slippage floor, >= 0
	Route        Route          `json:"route"`          // Empty path means auto-routing
}

// Route is an explicit swap path and the per-route integer weights.
type Route struct {
	Path         []ledger.Address `json:"path"`         // e.g. [USDC, XLM]
	Distribution []uint32         `json:"distribution"` // e.g. [100] for a single route
}

// IsEmpty reports whether no explicit path was supplied.
func (r Route) IsEmpty() bool { return len(r.Path) == 0 }

// ZapParams are the arguments of zap_and_deposit.
type ZapParams struct {
	Caller       ledger.Address `json:"caller"`
	FromAsset    ledger.Address `json:"from_asset"`
	AmountIn     sdkmath.Int    `json:"amount_in"`
	ToAsset      ledger.Address `json:"to_asset"`
	Vault        ledger.Address `json:"vault"`
	MinAmountOut sdkmath.Int    `json:"min_amount_out"`
	Route        Route          `json:"route"`
}

// NeedsSwap reports whether the input asset differs from the deposit asset.
func (p ZapParams) NeedsSwap() bool { return p.FromAsset != p.ToAsset }

// ZapResult is built once, only after the deposit succeeded.
type ZapResult struct {
	AmountSwapped sdkmath.Int    `json:"amount_swapped"` // Swap output, or amount_in when no swap ran
	VaultShares   sdkmath.Int    `json:"vault_shares"`   // Shares credited to the depositor
	VaultAddress  ledger.Address `json:"vault_address"`
}

// AdministratorRecord is the admin identity written once by initialize.
type AdministratorRecord struct {
	Admin         ledger.Address `json:"admin"`
	InitializedAt uint32         `json:"initialized_at"` // Sequence tick of initialization
}
