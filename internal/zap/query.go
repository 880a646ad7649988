package zap

import (
	"errors"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/yieldzap/internal/abi"
	"github.com/elys-network/yieldzap/internal/ledger"
	"github.com/elys-network/yieldzap/internal/types"
)

// swapQuote prices a conversion the same way zapAndDeposit would execute it.
func (c *Contract) swapQuote(env *ledger.Env, q abi.QuoteArgs) (sdkmath.Int, error) {
	if err := requirePositive(q.AmountIn); err != nil {
		return sdkmath.Int{}, err
	}
	if q.TokenIn == q.TokenOut {
		return q.AmountIn, nil
	}

	route := q.Route
	if route.IsEmpty() {
		var err error
		if route, err = c.bestRoute(env, q.TokenIn, q.TokenOut, q.AmountIn); err != nil {
			return sdkmath.Int{}, err
		}
	}

	out, err := abi.Invoke(env, c.cfg.Network.Aggregator, abi.AmountsOutCall(q.TokenIn, q.TokenOut, q.AmountIn, route))
	if err != nil {
		return sdkmath.Int{}, errors.Join(ErrAggregatorFailure, err)
	}
	return out, nil
}

func (c *Contract) vaultInfo(env *ledger.Env, vault ledger.Address) ([]ledger.Val, error) {
	info, err := abi.Invoke(env, vault, abi.GetInfoCall())
	if err != nil {
		return nil, errors.Join(ErrVaultFailure, err)
	}
	return info, nil
}

func (c *Contract) previewDeposit(env *ledger.Env, vault ledger.Address, amount sdkmath.Int) (sdkmath.Int, error) {
	shares, err := abi.Invoke(env, vault, abi.PreviewDepositCall(amount))
	if err != nil {
		return sdkmath.Int{}, errors.Join(ErrVaultFailure, err)
	}
	return shares, nil
}

func (c *Contract) availableVaults(asset ledger.Address) []ledger.Address {
	return types.AvailableVaults(c.cfg.Network, c.cfg.Vaults, asset)
}
