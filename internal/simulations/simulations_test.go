package simulations

import (
	"context"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/yieldzap/internal/abi"
	"github.com/elys-network/yieldzap/internal/ledger"
)

const trader ledger.Address = "CTRADER"

func TestRates(t *testing.T) {
	assert.True(t, NewAggregator(9500).Quote(sdkmath.NewInt(1000)).Equal(sdkmath.NewInt(950)))
	assert.True(t, NewVault(5000).Shares(sdkmath.NewInt(1000)).Equal(sdkmath.NewInt(500)))
	assert.True(t, NewVault(5000).Shares(sdkmath.NewInt(1)).IsZero(), "shares round down")
}

func TestLocalnetSandbox_Deploys(t *testing.T) {
	sb, err := NewLocalnetSandbox()
	require.NoError(t, err)

	d := sb.Deployment
	assert.Len(t, sb.Vaults, 4)
	for _, asset := range []ledger.Address{d.Network.StableAsset, d.Network.NativeAsset, d.Network.RewardAsset} {
		assert.True(t, sb.Host.Balance(asset, d.Network.Aggregator).Equal(DefaultLiquidity))
	}
	assert.Equal(t, ZapAddress, sb.Client.Address())

	_, err = sb.ShareBalance(context.Background(), "CNOTAVAULT", trader)
	require.Error(t, err)
}

// swapper calls the aggregator the way the zap engine does.
type swapper struct {
	aggregator, tokenIn, tokenOut ledger.Address
	amount                        sdkmath.Int
}

func (s swapper) Invoke(env *ledger.Env, _ string, _ []ledger.Val) (ledger.Val, error) {
	if err := env.Token(s.tokenIn).Approve(env.CurrentContract(), s.aggregator, s.amount, env.Sequence()+10); err != nil {
		return ledger.Val{}, err
	}
	return env.InvokeContract(s.aggregator, abi.MethodSwap, []ledger.Val{
		ledger.AddressVal(s.tokenIn),
		ledger.AddressVal(s.tokenOut),
		ledger.I128(s.amount),
		ledger.I128(sdkmath.NewInt(990)),
		ledger.Vec(),
		ledger.Vec(),
	})
}

func TestAggregator_MovesFundsAndEnforcesMinimumWhenAsked(t *testing.T) {
	ctx := context.Background()
	sb, err := NewLocalnetSandbox()
	require.NoError(t, err)
	net := sb.Deployment.Network

	s := swapper{aggregator: net.Aggregator, tokenIn: net.NativeAsset, tokenOut: net.StableAsset, amount: sdkmath.NewInt(1000)}
	require.NoError(t, sb.Host.Register(trader, s))
	require.NoError(t, sb.Fund(net.NativeAsset, trader, sdkmath.NewInt(2000)))

	out, err := sb.Host.Invoke(ctx, trader, "run", nil)
	require.NoError(t, err)
	assert.True(t, out.Equal(ledger.I128FromInt64(950)))
	assert.True(t, sb.Host.Balance(net.StableAsset, trader).Equal(sdkmath.NewInt(950)))
	assert.True(t, sb.Host.Balance(net.NativeAsset, trader).Equal(sdkmath.NewInt(1000)))

	sb.Aggregator.EnforceMinimum = true
	_, err = sb.Host.Invoke(ctx, trader, "run", nil)
	require.Error(t, err)
	assert.True(t, sb.Host.Balance(net.NativeAsset, trader).Equal(sdkmath.NewInt(1000)))
	assert.Equal(t, 2, sb.Aggregator.Calls(abi.MethodSwap))
}

func TestAggregator_SwapRequiresAllowance(t *testing.T) {
	sb, err := NewLocalnetSandbox()
	require.NoError(t, err)
	net := sb.Deployment.Network

	direct := ledger.ContractFunc(func(env *ledger.Env, _ string, _ []ledger.Val) (ledger.Val, error) {
		return env.InvokeContract(net.Aggregator, abi.MethodSwap, []ledger.Val{
			ledger.AddressVal(net.NativeAsset),
			ledger.AddressVal(net.StableAsset),
			ledger.I128(sdkmath.NewInt(10)),
			ledger.I128(sdkmath.ZeroInt()),
			ledger.Vec(),
			ledger.Vec(),
		})
	})
	require.NoError(t, sb.Host.Register(trader, direct))
	require.NoError(t, sb.Fund(net.NativeAsset, trader, sdkmath.NewInt(10)))

	_, err = sb.Host.Invoke(context.Background(), trader, "run", nil)
	require.ErrorIs(t, err, ledger.ErrInsufficientAllowance)
}
