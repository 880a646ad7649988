package abi

import (
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/yieldzap/internal/ledger"
	"github.com/elys-network/yieldzap/internal/types"
)

// Swap aggregator entry points.
const (
	MethodSwap          = "swap"
	MethodGetBestRoute  = "get_best_route"
	MethodGetAmountsOut = "get_amounts_out"
)

// SwapCall is swap(token_in, token_out, amount_in, amount_out_min, path, distribution) -> i128.
func SwapCall(req types.SwapRequest) Call[sdkmath.Int] {
	return Call[sdkmath.Int]{
		Method: MethodSwap,
		Args: []ledger.Val{
			ledger.AddressVal(req.TokenIn),
			ledger.AddressVal(req.TokenOut),
			ledger.I128(req.AmountIn),
			ledger.I128(req.AmountOutMin),
			EncodeAddresses(req.Route.Path),
			EncodeU32s(req.Route.Distribution),
		},
		Decode: DecodeI128,
	}
}

// BestRouteCall is get_best_route(token_in, token_out, amount_in) -> (path, distribution).
func BestRouteCall(tokenIn, tokenOut ledger.Address, amountIn sdkmath.Int) Call[types.Route] {
	return Call[types.Route]{
		Method: MethodGetBestRoute,
		Args: []ledger.Val{
			ledger.AddressVal(tokenIn),
			ledger.AddressVal(tokenOut),
			ledger.I128(amountIn),
		},
		Decode: DecodeRoute,
	}
}

// AmountsOutCall is get_amounts_out(token_in, token_out, amount_in, path, distribution) -> i128.
func AmountsOutCall(tokenIn, tokenOut ledger.Address, amountIn sdkmath.Int, route types.Route) Call[sdkmath.Int] {
	return Call[sdkmath.Int]{
		Method: MethodGetAmountsOut,
		Args: []ledger.Val{
			ledger.AddressVal(tokenIn),
			ledger.AddressVal(tokenOut),
			ledger.I128(amountIn),
			EncodeAddresses(route.Path),
			EncodeU32s(route.Distribution),
		},
		Decode: DecodeI128,
	}
}
