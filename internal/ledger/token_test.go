package ledger

import (
	"context"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transferArgsVal(from, to Address, amount int64) []Val {
	return []Val{AddressVal(from), AddressVal(to), I128FromInt64(amount)}
}

func TestToken_TransferRequiresAuthorization(t *testing.T) {
	h := newFundedHost(t)
	ctx := context.Background()

	_, err := h.Invoke(ctx, assetA, TokenTransfer, transferArgsVal(alice, bob, 10))
	require.ErrorIs(t, err, ErrAuthMissing)

	args := transferArgsVal(alice, bob, 10)
	auth := Authorization{Address: alice, Root: Invocation{Contract: assetA, Method: TokenTransfer, Args: args}}
	_, err = h.Invoke(ctx, assetA, TokenTransfer, args, auth)
	require.NoError(t, err)
	assert.True(t, h.Balance(assetA, bob).Equal(sdkmath.NewInt(10)))

	auths := h.LastAuths()
	require.Len(t, auths, 1)
	assert.Equal(t, alice, auths[0].Address)
}

func TestToken_AuthorizationIsBoundToArguments(t *testing.T) {
	h := newFundedHost(t)
	signed := transferArgsVal(alice, bob, 10)
	auth := Authorization{Address: alice, Root: Invocation{Contract: assetA, Method: TokenTransfer, Args: signed}}

	_, err := h.Invoke(context.Background(), assetA, TokenTransfer, transferArgsVal(alice, bob, 11), auth)
	require.ErrorIs(t, err, ErrAuthMissing)
}

func TestToken_InsufficientBalance(t *testing.T) {
	h := newFundedHost(t, WithMockAllAuths())
	_, err := h.Invoke(context.Background(), assetA, TokenTransfer, transferArgsVal(alice, bob, 1001))
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestToken_AllowanceLifecycle(t *testing.T) {
	h := newFundedHost(t, WithMockAllAuths(), WithSequence(50))
	ctx := context.Background()

	_, err := h.Invoke(ctx, assetA, TokenApprove, []Val{AddressVal(alice), AddressVal(bob), I128FromInt64(300), U32(60)})
	require.NoError(t, err)

	spend := func(amount int64) error {
		_, err := h.Invoke(ctx, assetA, TokenTransferFrom,
			[]Val{AddressVal(bob), AddressVal(alice), AddressVal(bob), I128FromInt64(amount)})
		return err
	}

	require.ErrorIs(t, spend(301), ErrInsufficientAllowance)
	require.NoError(t, spend(200))
	assert.True(t, h.Allowance(assetA, alice, bob).Amount.Equal(sdkmath.NewInt(100)))

	h.AdvanceSequence(11)
	require.ErrorIs(t, spend(50), ErrAllowanceExpired)

	res, err := h.Invoke(ctx, assetA, TokenAllowance, []Val{AddressVal(alice), AddressVal(bob)})
	require.NoError(t, err)
	remaining, _ := res.AsI128()
	assert.True(t, remaining.IsZero())
}

func TestToken_ApproveRejectsPastExpiration(t *testing.T) {
	h := newFundedHost(t, WithMockAllAuths(), WithSequence(100))
	_, err := h.Invoke(context.Background(), assetA, TokenApprove,
		[]Val{AddressVal(alice), AddressVal(bob), I128FromInt64(1), U32(99)})
	require.ErrorIs(t, err, ErrInvalidExpiration)
}

func TestToken_BadArguments(t *testing.T) {
	h := newFundedHost(t, WithMockAllAuths())
	_, err := h.Invoke(context.Background(), assetA, TokenTransfer, []Val{AddressVal(alice), U32(1), I128FromInt64(1)})
	require.ErrorIs(t, err, ErrInvalidArgs)

	_, err = h.Invoke(context.Background(), assetA, "burn", nil)
	require.ErrorIs(t, err, ErrUnknownMethod)
}
