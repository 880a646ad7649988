package abi

import (
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/yieldzap/internal/ledger"
)

// Vault entry points.
const (
	MethodDeposit        = "deposit"
	MethodPreviewDeposit = "preview_deposit"
	MethodGetInfo        = "get_info"
)

// DepositCall is deposit(asset, amount, receiver) -> i128 shares.
func DepositCall(asset ledger.Address, amount sdkmath.Int, receiver ledger.Address) Call[sdkmath.Int] {
	return Call[sdkmath.Int]{
		Method: MethodDeposit,
		Args: []ledger.Val{
			ledger.AddressVal(asset),
			ledger.I128(amount),
			ledger.AddressVal(receiver),
		},
		Decode: DecodeI128,
	}
}

// PreviewDepositCall is preview_deposit(amount) -> i128 shares.
func PreviewDepositCall(amount sdkmath.Int) Call[sdkmath.Int] {
	return Call[sdkmath.Int]{
		Method: MethodPreviewDeposit,
		Args:   []ledger.Val{ledger.I128(amount)},
		Decode: DecodeI128,
	}
}

// GetInfoCall is get_info() -> vec<val>. The records are passed through as-is.
func GetInfoCall() Call[[]ledger.Val] {
	return Call[[]ledger.Val]{
		Method: MethodGetInfo,
		Args:   []ledger.Val{},
		Decode: DecodeRecords,
	}
}
