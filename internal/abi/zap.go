package abi

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/yieldzap/internal/ledger"
	"github.com/elys-network/yieldzap/internal/types"
)

// Public entry points of the zap contract.
const (
	MethodZapAndDeposit       = "zap_and_deposit"
	MethodGetSwapQuote        = "get_swap_quote"
	MethodGetVaultInfo        = "get_vault_info"
	MethodPreviewVaultDeposit = "preview_vault_deposit"
	MethodGetAvailableVaults  = "get_available_vaults"
	MethodEmergencyWithdraw   = "emergency_withdraw"
	MethodInitialize          = "initialize"
	MethodGetAdmin            = "get_admin"
)

// Notification topics published by the zap contract.
const (
	TopicZapCompleted      = "zap_completed"
	TopicSwapExecuted      = "swap_executed"
	TopicVaultDeposit      = "vault_deposit"
	TopicEmergencyWithdraw = "emergency_withdraw"
	TopicInitialized       = "initialized"
)

// EncodeZapParams lays out zap_and_deposit arguments:
// (caller, from_asset, amount_in, to_asset, vault, min_amount_out, path, distribution).
func EncodeZapParams(p types.ZapParams) []ledger.Val {
	return []ledger.Val{
		ledger.AddressVal(p.Caller),
		ledger.AddressVal(p.FromAsset),
		ledger.I128(p.AmountIn),
		ledger.AddressVal(p.ToAsset),
		ledger.AddressVal(p.Vault),
		ledger.I128(p.MinAmountOut),
		EncodeAddresses(p.Route.Path),
		EncodeU32s(p.Route.Distribution),
	}
}

// DecodeZapParams is the inverse of EncodeZapParams.
func DecodeZapParams(args []ledger.Val) (types.ZapParams, error) {
	if len(args) != 8 {
		return types.ZapParams{}, fmt.Errorf("%w: %s expects 8 args, got %d", ledger.ErrInvalidArgs, MethodZapAndDeposit, len(args))
	}
	var (
		p   types.ZapParams
		err error
	)
	if p.Caller, err = ledger.ArgAddress(args, 0); err != nil {
		return types.ZapParams{}, err
	}
	if p.FromAsset, err = ledger.ArgAddress(args, 1); err != nil {
		return types.ZapParams{}, err
	}
	if p.AmountIn, err = ledger.ArgI128(args, 2); err != nil {
		return types.ZapParams{}, err
	}
	if p.ToAsset, err = ledger.ArgAddress(args, 3); err != nil {
		return types.ZapParams{}, err
	}
	if p.Vault, err = ledger.ArgAddress(args, 4); err != nil {
		return types.ZapParams{}, err
	}
	if p.MinAmountOut, err = ledger.ArgI128(args, 5); err != nil {
		return types.ZapParams{}, err
	}
	if p.Route, err = decodeRouteArgs(args[6], args[7]); err != nil {
		return types.ZapParams{}, err
	}
	return p, nil
}

// EncodeQuoteArgs lays out get_swap_quote arguments:
// (token_in, token_out, amount_in, path, distribution).
func EncodeQuoteArgs(tokenIn, tokenOut ledger.Address, amountIn sdkmath.Int, route types.Route) []ledger.Val {
	return []ledger.Val{
		ledger.AddressVal(tokenIn),
		ledger.AddressVal(tokenOut),
		ledger.I128(amountIn),
		EncodeAddresses(route.Path),
		EncodeU32s(route.Distribution),
	}
}

// QuoteArgs are the decoded get_swap_quote arguments.
type QuoteArgs struct {
	TokenIn  ledger.Address
	TokenOut ledger.Address
	AmountIn sdkmath.Int
	Route    types.Route
}

func DecodeQuoteArgs(args []ledger.Val) (QuoteArgs, error) {
	if len(args) != 5 {
		return QuoteArgs{}, fmt.Errorf("%w: %s expects 5 args, got %d", ledger.ErrInvalidArgs, MethodGetSwapQuote, len(args))
	}
	var (
		q   QuoteArgs
		err error
	)
	if q.TokenIn, err = ledger.ArgAddress(args, 0); err != nil {
		return QuoteArgs{}, err
	}
	if q.TokenOut, err = ledger.ArgAddress(args, 1); err != nil {
		return QuoteArgs{}, err
	}
	if q.AmountIn, err = ledger.ArgI128(args, 2); err != nil {
		return QuoteArgs{}, err
	}
	if q.Route, err = decodeRouteArgs(args[3], args[4]); err != nil {
		return QuoteArgs{}, err
	}
	return q, nil
}

func decodeRouteArgs(path, dist ledger.Val) (types.Route, error) {
	addrs, err := DecodeAddresses(path)
	if err != nil {
		return types.Route{}, fmt.Errorf("%w: path: %w", ledger.ErrInvalidArgs, err)
	}
	weights, err := DecodeU32s(dist)
	if err != nil {
		return types.Route{}, fmt.Errorf("%w: distribution: %w", ledger.ErrInvalidArgs, err)
	}
	return types.Route{Path: addrs, Distribution: weights}, nil
}

// EncodeZapResult produces (amount_swapped, vault_shares, vault_address).
func EncodeZapResult(r types.ZapResult) ledger.Val {
	return ledger.Vec(
		ledger.I128(r.AmountSwapped),
		ledger.I128(r.VaultShares),
		ledger.AddressVal(r.VaultAddress),
	)
}

// DecodeZapResult is the inverse of EncodeZapResult.
func DecodeZapResult(v ledger.Val) (types.ZapResult, error) {
	elems, ok := v.AsVec()
	if !ok || len(elems) != 3 {
		return types.ZapResult{}, mismatch("(i128, i128, address)", v)
	}
	swapped, err := DecodeI128(elems[0])
	if err != nil {
		return types.ZapResult{}, err
	}
	shares, err := DecodeI128(elems[1])
	if err != nil {
		return types.ZapResult{}, err
	}
	vault, err := DecodeAddress(elems[2])
	if err != nil {
		return types.ZapResult{}, err
	}
	return types.ZapResult{AmountSwapped: swapped, VaultShares: shares, VaultAddress: vault}, nil
}

// ZapCompleted is the payload of the zap_completed notification.
type ZapCompleted struct {
	Caller    ledger.Address  `json:"caller"`
	FromAsset ledger.Address  `json:"from_asset"`
	AmountIn  sdkmath.Int     `json:"amount_in"`
	Vault     ledger.Address  `json:"vault"`
	Result    types.ZapResult `json:"result"`
}

func EncodeZapCompleted(z ZapCompleted) ledger.Val {
	return ledger.Vec(
		ledger.AddressVal(z.Caller),
		ledger.AddressVal(z.FromAsset),
		ledger.I128(z.AmountIn),
		ledger.AddressVal(z.Vault),
		EncodeZapResult(z.Result),
	)
}

func DecodeZapCompleted(v ledger.Val) (ZapCompleted, error) {
	elems, ok := v.AsVec()
	if !ok || len(elems) != 5 {
		return ZapCompleted{}, mismatch("(address, address, i128, address, zap_result)", v)
	}
	var (
		z   ZapCompleted
		err error
	)
	if z.Caller, err = DecodeAddress(elems[0]); err != nil {
		return ZapCompleted{}, err
	}
	if z.FromAsset, err = DecodeAddress(elems[1]); err != nil {
		return ZapCompleted{}, err
	}
	if z.AmountIn, err = DecodeI128(elems[2]); err != nil {
		return ZapCompleted{}, err
	}
	if z.Vault, err = DecodeAddress(elems[3]); err != nil {
		return ZapCompleted{}, err
	}
	if z.Result, err = DecodeZapResult(elems[4]); err != nil {
		return ZapCompleted{}, err
	}
	return z, nil
}

// EncodeSwapExecuted is the swap-leg payload (token_in, token_out, amount_in, amount_out).
func EncodeSwapExecuted(tokenIn, tokenOut ledger.Address, amountIn, amountOut sdkmath.Int) ledger.Val {
	return ledger.Vec(ledger.AddressVal(tokenIn), ledger.AddressVal(tokenOut), ledger.I128(amountIn), ledger.I128(amountOut))
}

// EncodeVaultDeposit is the deposit-leg payload (vault, asset, amount, receiver, shares).
func EncodeVaultDeposit(vault, asset ledger.Address, amount sdkmath.Int, receiver ledger.Address, shares sdkmath.Int) ledger.Val {
	return ledger.Vec(ledger.AddressVal(vault), ledger.AddressVal(asset), ledger.I128(amount), ledger.AddressVal(receiver), ledger.I128(shares))
}

// EncodeEmergencyWithdraw is the payload (admin, token, amount, to).
func EncodeEmergencyWithdraw(admin, token ledger.Address, amount sdkmath.Int, to ledger.Address) ledger.Val {
	return ledger.Vec(ledger.AddressVal(admin), ledger.AddressVal(token), ledger.I128(amount), ledger.AddressVal(to))
}

// EncodeAdminRecord produces (admin, initialized_at).
func EncodeAdminRecord(r types.AdministratorRecord) ledger.Val {
	return ledger.Vec(ledger.AddressVal(r.Admin), ledger.U32(r.InitializedAt))
}

func DecodeAdminRecord(v ledger.Val) (types.AdministratorRecord, error) {
	elems, ok := v.AsVec()
	if !ok || len(elems) != 2 {
		return types.AdministratorRecord{}, mismatch("(address, u32)", v)
	}
	admin, err := DecodeAddress(elems[0])
	if err != nil {
		return types.AdministratorRecord{}, err
	}
	at, ok := elems[1].AsU32()
	if !ok {
		return types.AdministratorRecord{}, mismatch("u32", elems[1])
	}
	return types.AdministratorRecord{Admin: admin, InitializedAt: at}, nil
}
