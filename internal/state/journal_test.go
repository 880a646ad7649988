package state_test

import (
	"context"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/yieldzap/internal/abi"
	"github.com/elys-network/yieldzap/internal/ledger"
	"github.com/elys-network/yieldzap/internal/simulations"
	"github.com/elys-network/yieldzap/internal/state"
	"github.com/elys-network/yieldzap/internal/types"
)

const user ledger.Address = "GUSERAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

func amount(v int64) sdkmath.Int { return sdkmath.NewInt(v) }

// runZaps performs a same-asset zap into the stable vault and a swapping zap
// into the native vault against a sandbox journaling into j.
func runZaps(t *testing.T, j state.Journal) *simulations.Sandbox {
	t.Helper()
	ctx := context.Background()
	sb, err := simulations.NewLocalnetSandbox(ledger.WithSink(j))
	require.NoError(t, err)
	net, vaults := sb.Deployment.Network, sb.Deployment.Vaults

	require.NoError(t, sb.Fund(net.StableAsset, user, amount(3000)))
	_, err = sb.Zap(ctx, types.ZapParams{
		Caller: user, FromAsset: net.StableAsset, AmountIn: amount(1000),
		ToAsset: net.StableAsset, Vault: vaults.StableVault, MinAmountOut: amount(0),
	})
	require.NoError(t, err)

	_, err = sb.Zap(ctx, types.ZapParams{
		Caller: user, FromAsset: net.StableAsset, AmountIn: amount(1000),
		ToAsset: net.NativeAsset, Vault: vaults.NativeVault, MinAmountOut: amount(900),
	})
	require.NoError(t, err)

	// Rejected by the output floor: nothing may be journaled for it.
	_, err = sb.Zap(ctx, types.ZapParams{
		Caller: user, FromAsset: net.StableAsset, AmountIn: amount(1000),
		ToAsset: net.NativeAsset, Vault: vaults.NativeVault, MinAmountOut: amount(1000),
	})
	require.Error(t, err)
	return sb
}

func TestMemoryJournal_RecordsCommittedZaps(t *testing.T) {
	ctx := context.Background()
	j := state.NewMemoryJournal()
	sb := runZaps(t, j)
	vaults := sb.Deployment.Vaults

	receipts, err := j.RecentReceipts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, receipts, 2)

	newest := receipts[0]
	assert.Equal(t, vaults.NativeVault, newest.Vault)
	assert.Equal(t, user, newest.Caller)
	assert.True(t, newest.AmountIn.Equal(amount(1000)))
	assert.True(t, newest.AmountSwapped.Equal(amount(950)))
	assert.True(t, newest.VaultShares.Equal(amount(475)))
	assert.Contains(t, newest.Topics, abi.TopicSwapExecuted)
	assert.Contains(t, newest.Topics, abi.TopicZapCompleted)

	oldest := receipts[1]
	assert.Equal(t, vaults.StableVault, oldest.Vault)
	assert.NotContains(t, oldest.Topics, abi.TopicSwapExecuted)

	got, err := j.ReceiptByID(ctx, oldest.InvocationID)
	require.NoError(t, err)
	assert.Equal(t, oldest.InvocationID, got.InvocationID)

	_, err = j.ReceiptByID(ctx, "missing")
	assert.ErrorIs(t, err, state.ErrReceiptNotFound)
}

func TestMemoryJournal_RecentReceiptsLimit(t *testing.T) {
	ctx := context.Background()
	j := state.NewMemoryJournal()
	runZaps(t, j)

	receipts, err := j.RecentReceipts(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, receipts, 1)

	receipts, err = j.RecentReceipts(ctx, 10_000)
	require.NoError(t, err)
	assert.Len(t, receipts, 2, "out-of-range limits fall back to the default")
}

func TestMemoryJournal_VaultStats(t *testing.T) {
	ctx := context.Background()
	j := state.NewMemoryJournal()
	sb := runZaps(t, j)
	vaults := sb.Deployment.Vaults

	stats, err := j.VaultStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	byVault := make(map[ledger.Address]types.VaultStats)
	for _, s := range stats {
		byVault[s.Vault] = s
	}
	assert.Equal(t, 1, byVault[vaults.StableVault].Zaps)
	assert.True(t, byVault[vaults.StableVault].TotalShares.Equal(amount(500)))
	assert.True(t, byVault[vaults.NativeVault].TotalShares.Equal(amount(475)))
	assert.True(t, stats[0].Vault < stats[1].Vault)
}

func TestMemoryJournal_SkipsMalformedCompletion(t *testing.T) {
	ctx := context.Background()
	j := state.NewMemoryJournal()

	require.NoError(t, j.HandleEvents(ctx, []ledger.Event{
		{InvocationID: "u1", Contract: simulations.ZapAddress, Topic: abi.TopicZapCompleted, Data: ledger.U32(7)},
		{InvocationID: "u1", Contract: simulations.ZapAddress, Topic: abi.TopicVaultDeposit, Data: ledger.Void(), Index: 1},
	}))

	receipts, err := j.RecentReceipts(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, receipts)
	assert.Len(t, j.Events(), 2)
}
