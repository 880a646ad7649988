package abi

import (
	"errors"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/yieldzap/internal/ledger"
	"github.com/elys-network/yieldzap/internal/types"
)

// stubInvoker answers every call with a canned value and records what it saw.
type stubInvoker struct {
	result ledger.Val
	err    error

	target ledger.Address
	method string
	args   []ledger.Val
}

func (s *stubInvoker) InvokeContract(target ledger.Address, method string, args []ledger.Val) (ledger.Val, error) {
	s.target, s.method, s.args = target, method, args
	return s.result, s.err
}

func TestInvoke_DecodesSignedAmount(t *testing.T) {
	inv := &stubInvoker{result: ledger.I128FromInt64(950)}
	req := types.SwapRequest{
		TokenIn:      "CIN",
		TokenOut:     "COUT",
		AmountIn:     sdkmath.NewInt(1000),
		AmountOutMin: sdkmath.NewInt(900),
		Route:        types.Route{Path: []ledger.Address{"CIN", "COUT"}, Distribution: []uint32{100}},
	}

	out, err := Invoke(inv, "CAGG", SwapCall(req))
	require.NoError(t, err)
	assert.True(t, out.Equal(sdkmath.NewInt(950)))

	assert.Equal(t, ledger.Address("CAGG"), inv.target)
	assert.Equal(t, MethodSwap, inv.method)
	require.Len(t, inv.args, 6)
	assert.True(t, inv.args[4].Equal(ledger.Vec(ledger.AddressVal("CIN"), ledger.AddressVal("COUT"))))
	assert.True(t, inv.args[5].Equal(ledger.Vec(ledger.U32(100))))
}

func TestInvoke_ShapeMismatch(t *testing.T) {
	inv := &stubInvoker{result: ledger.U32(950)}
	_, err := Invoke(inv, "CAGG", SwapCall(types.SwapRequest{AmountIn: sdkmath.NewInt(1), AmountOutMin: sdkmath.ZeroInt()}))
	require.ErrorIs(t, err, ErrDecodeMismatch)
	require.ErrorIs(t, err, ErrExternalCall)
}

func TestInvoke_WrapsInvocationFailure(t *testing.T) {
	cause := errors.New("vault paused")
	inv := &stubInvoker{err: cause}
	_, err := Invoke(inv, "CVAULT", DepositCall("CUSDC", sdkmath.NewInt(10), "GUSER"))
	require.ErrorIs(t, err, ErrExternalCall)
	require.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrDecodeMismatch)
}

func TestDecodeRoute(t *testing.T) {
	good := ledger.Vec(
		ledger.Vec(ledger.AddressVal("CA"), ledger.AddressVal("CB")),
		ledger.Vec(ledger.U32(60), ledger.U32(40)),
	)
	route, err := DecodeRoute(good)
	require.NoError(t, err)
	assert.Equal(t, []ledger.Address{"CA", "CB"}, route.Path)
	assert.Equal(t, []uint32{60, 40}, route.Distribution)

	bad := []ledger.Val{
		ledger.Vec(ledger.Vec(ledger.AddressVal("CA"))),
		ledger.Vec(ledger.Vec(ledger.U32(1)), ledger.Vec(ledger.U32(1))),
		ledger.Vec(ledger.Vec(ledger.AddressVal("CA")), ledger.Vec(ledger.I128FromInt64(1))),
		ledger.I128FromInt64(7),
	}
	for _, v := range bad {
		_, err := DecodeRoute(v)
		assert.ErrorIs(t, err, ErrDecodeMismatch, "value %s", v)
	}
}

func TestDecodeRecords_PassesThroughOpaqueValues(t *testing.T) {
	info := ledger.Vec(ledger.I128FromInt64(1000000), ledger.I128FromInt64(500000))
	out, err := Invoke(&stubInvoker{result: info}, "CVAULT", GetInfoCall())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.True(t, out[0].Equal(ledger.I128FromInt64(1000000)))

	_, err = Invoke(&stubInvoker{result: ledger.Void()}, "CVAULT", GetInfoCall())
	require.ErrorIs(t, err, ErrDecodeMismatch)
}

func TestZapParams_ArgumentLayout(t *testing.T) {
	p := types.ZapParams{
		Caller:       "GUSER",
		FromAsset:    "CXLM",
		AmountIn:     sdkmath.NewInt(1000),
		ToAsset:      "CUSDC",
		Vault:        "CVAULT",
		MinAmountOut: sdkmath.NewInt(900),
		Route:        types.Route{Path: []ledger.Address{"CXLM", "CUSDC"}, Distribution: []uint32{100}},
	}
	args := EncodeZapParams(p)
	require.Len(t, args, 8)

	decoded, err := DecodeZapParams(args)
	require.NoError(t, err)
	assert.Equal(t, p.Caller, decoded.Caller)
	assert.Equal(t, p.Vault, decoded.Vault)
	assert.True(t, decoded.MinAmountOut.Equal(p.MinAmountOut))
	assert.Equal(t, p.Route, decoded.Route)

	_, err = DecodeZapParams(args[:7])
	require.ErrorIs(t, err, ledger.ErrInvalidArgs)

	args[2] = ledger.U32(1000)
	_, err = DecodeZapParams(args)
	require.ErrorIs(t, err, ledger.ErrInvalidArgs)
}

func TestZapCompleted_Payload(t *testing.T) {
	payload := EncodeZapCompleted(ZapCompleted{
		Caller:    "GUSER",
		FromAsset: "CXLM",
		AmountIn:  sdkmath.NewInt(1000),
		Vault:     "CVAULT",
		Result: types.ZapResult{
			AmountSwapped: sdkmath.NewInt(950),
			VaultShares:   sdkmath.NewInt(475),
			VaultAddress:  "CVAULT",
		},
	})
	z, err := DecodeZapCompleted(payload)
	require.NoError(t, err)
	assert.True(t, z.Result.VaultShares.Equal(sdkmath.NewInt(475)))
	assert.Equal(t, ledger.Address("CVAULT"), z.Result.VaultAddress)

	_, err = DecodeZapCompleted(ledger.Vec(ledger.AddressVal("GUSER")))
	require.ErrorIs(t, err, ErrDecodeMismatch)
}
