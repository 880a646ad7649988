package abi

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/yieldzap/internal/ledger"
	"github.com/elys-network/yieldzap/internal/types"
)

// DecodeI128 accepts a signed amount.
func DecodeI128(v ledger.Val) (sdkmath.Int, error) {
	amount, ok := v.AsI128()
	if !ok {
		return sdkmath.Int{}, mismatch("i128", v)
	}
	return amount, nil
}

// DecodeVoid accepts an empty result.
func DecodeVoid(v ledger.Val) (struct{}, error) {
	if v.Kind() != ledger.KindVoid {
		return struct{}{}, mismatch("void", v)
	}
	return struct{}{}, nil
}

// DecodeAddress accepts a single address.
func DecodeAddress(v ledger.Val) (ledger.Address, error) {
	a, ok := v.AsAddress()
	if !ok {
		return "", mismatch("address", v)
	}
	return a, nil
}

// DecodeAddresses accepts a vector of addresses.
func DecodeAddresses(v ledger.Val) ([]ledger.Address, error) {
	elems, ok := v.AsVec()
	if !ok {
		return nil, mismatch("vec<address>", v)
	}
	out := make([]ledger.Address, 0, len(elems))
	for i, e := range elems {
		a, ok := e.AsAddress()
		if !ok {
			return nil, fmt.Errorf("%w: element %d of vec<address> is %s", ErrDecodeMismatch, i, e.Kind())
		}
		out = append(out, a)
	}
	return out, nil
}

// DecodeU32s accepts a vector of u32 weights.
func DecodeU32s(v ledger.Val) ([]uint32, error) {
	elems, ok := v.AsVec()
	if !ok {
		return nil, mismatch("vec<u32>", v)
	}
	out := make([]uint32, 0, len(elems))
	for i, e := range elems {
		u, ok := e.AsU32()
		if !ok {
			return nil, fmt.Errorf("%w: element %d of vec<u32> is %s", ErrDecodeMismatch, i, e.Kind())
		}
		out = append(out, u)
	}
	return out, nil
}

// DecodeRoute accepts the (path, distribution) tuple.
func DecodeRoute(v ledger.Val) (types.Route, error) {
	elems, ok := v.AsVec()
	if !ok || len(elems) != 2 {
		return types.Route{}, mismatch("(vec<address>, vec<u32>)", v)
	}
	path, err := DecodeAddresses(elems[0])
	if err != nil {
		return types.Route{}, err
	}
	dist, err := DecodeU32s(elems[1])
	if err != nil {
		return types.Route{}, err
	}
	return types.Route{Path: path, Distribution: dist}, nil
}

// DecodeRecords accepts an opaque record sequence.
func DecodeRecords(v ledger.Val) ([]ledger.Val, error) {
	elems, ok := v.AsVec()
	if !ok {
		return nil, mismatch("vec<val>", v)
	}
	return elems, nil
}

func EncodeAddresses(addrs []ledger.Address) ledger.Val {
	elems := make([]ledger.Val, 0, len(addrs))
	for _, a := range addrs {
		elems = append(elems, ledger.AddressVal(a))
	}
	return ledger.Vec(elems...)
}

func EncodeU32s(values []uint32) ledger.Val {
	elems := make([]ledger.Val, 0, len(values))
	for _, u := range values {
		elems = append(elems, ledger.U32(u))
	}
	return ledger.Vec(elems...)
}

// EncodeRoute produces the (path, distribution) tuple.
func EncodeRoute(r types.Route) ledger.Val {
	return ledger.Vec(EncodeAddresses(r.Path), EncodeU32s(r.Distribution))
}
