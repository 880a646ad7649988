package zap

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/yieldzap/internal/abi"
	"github.com/elys-network/yieldzap/internal/guard"
	"github.com/elys-network/yieldzap/internal/ledger"
	"github.com/elys-network/yieldzap/internal/types"
)

// zapAndDeposit runs the full swap-then-deposit sequence. Every failure is
// returned to the host, which unwinds the whole unit.
func (c *Contract) zapAndDeposit(env *ledger.Env, p types.ZapParams) (types.ZapResult, error) {
	log := env.Logger().With().
		Str("caller", p.Caller.String()).
		Str("fromAsset", p.FromAsset.String()).
		Str("toAsset", p.ToAsset.String()).
		Str("vault", p.Vault.String()).
		Logger()

	if err := guard.RequireCaller(env, p.Caller); err != nil {
		return types.ZapResult{}, err
	}
	if err := requirePositive(p.AmountIn); err != nil {
		return types.ZapResult{}, err
	}
	if p.MinAmountOut.IsNil() || p.MinAmountOut.IsNegative() {
		return types.ZapResult{}, fmt.Errorf("%w: min_amount_out must be >= 0", ledger.ErrInvalidArgs)
	}

	self := env.CurrentContract()
	if err := env.Token(p.FromAsset).Transfer(p.Caller, self, p.AmountIn); err != nil {
		return types.ZapResult{}, errors.Join(ErrPullInFailed, err)
	}
	log.Debug().Str("amountIn", p.AmountIn.String()).Msg("Input funds moved into custody")

	swapped := p.AmountIn
	if p.NeedsSwap() {
		out, err := c.swap(env, types.SwapRequest{
			TokenIn:      p.FromAsset,
			TokenOut:     p.ToAsset,
			AmountIn:     p.AmountIn,
			AmountOutMin: p.MinAmountOut,
			Route:        p.Route,
		})
		if err != nil {
			return types.ZapResult{}, err
		}
		swapped = out
	}

	// The floor is enforced before the vault receives any allowance.
	if swapped.LT(p.MinAmountOut) {
		return types.ZapResult{}, fmt.Errorf("%w: got %s, want at least %s", ErrInsufficientOutput, swapped, p.MinAmountOut)
	}

	shares, err := c.deposit(env, p.Vault, p.ToAsset, swapped, p.Caller)
	if err != nil {
		return types.ZapResult{}, err
	}

	result := types.ZapResult{
		AmountSwapped: swapped,
		VaultShares:   shares,
		VaultAddress:  p.Vault,
	}
	env.Publish(abi.TopicZapCompleted, abi.EncodeZapCompleted(abi.ZapCompleted{
		Caller:    p.Caller,
		FromAsset: p.FromAsset,
		AmountIn:  p.AmountIn,
		Vault:     p.Vault,
		Result:    result,
	}))

	log.Info().
		Str("amountIn", p.AmountIn.String()).
		Str("amountSwapped", swapped.String()).
		Str("vaultShares", shares.String()).
		Msg("Zap completed")
	return result, nil
}

// swap converts req.AmountIn held in custody through the aggregator. An empty
// route is resolved by the aggregator's route discovery.
func (c *Contract) swap(env *ledger.Env, req types.SwapRequest) (sdkmath.Int, error) {
	aggregator := c.cfg.Network.Aggregator
	self := env.CurrentContract()

	exp := expiry(env.Sequence(), c.cfg.AggregatorApprovalTicks)
	if err := env.Token(req.TokenIn).Approve(self, aggregator, req.AmountIn, exp); err != nil {
		return sdkmath.Int{}, errors.Join(ErrAggregatorFailure, err)
	}

	if req.Route.IsEmpty() {
		route, err := c.bestRoute(env, req.TokenIn, req.TokenOut, req.AmountIn)
		if err != nil {
			return sdkmath.Int{}, err
		}
		req.Route = route
	}

	out, err := abi.Invoke(env, aggregator, abi.SwapCall(req))
	if err != nil {
		return sdkmath.Int{}, errors.Join(ErrAggregatorFailure, err)
	}
	if out.IsNegative() {
		return sdkmath.Int{}, fmt.Errorf("%w: negative swap output %s", ErrAggregatorFailure, out)
	}

	env.Publish(abi.TopicSwapExecuted, abi.EncodeSwapExecuted(req.TokenIn, req.TokenOut, req.AmountIn, out))
	env.Logger().Debug().
		Str("aggregator", aggregator.String()).
		Int("hops", len(req.Route.Path)).
		Str("amountOut", out.String()).
		Msg("Swap executed")
	return out, nil
}

func (c *Contract) bestRoute(env *ledger.Env, tokenIn, tokenOut ledger.Address, amountIn sdkmath.Int) (types.Route, error) {
	route, err := abi.Invoke(env, c.cfg.Network.Aggregator, abi.BestRouteCall(tokenIn, tokenOut, amountIn))
	if err != nil {
		return types.Route{}, errors.Join(ErrAggregatorFailure, err)
	}
	return route, nil
}

// deposit grants vault an allowance over amount of asset and deposits it for receiver.
func (c *Contract) deposit(env *ledger.Env, vault, asset ledger.Address, amount sdkmath.Int, receiver ledger.Address) (sdkmath.Int, error) {
	self := env.CurrentContract()

	exp := expiry(env.Sequence(), c.cfg.VaultApprovalTicks)
	if err := env.Token(asset).Approve(self, vault, amount, exp); err != nil {
		return sdkmath.Int{}, errors.Join(ErrVaultFailure, err)
	}

	shares, err := abi.Invoke(env, vault, abi.DepositCall(asset, amount, receiver))
	if err != nil {
		return sdkmath.Int{}, errors.Join(ErrVaultFailure, err)
	}

	env.Publish(abi.TopicVaultDeposit, abi.EncodeVaultDeposit(vault, asset, amount, receiver, shares))
	return shares, nil
}
