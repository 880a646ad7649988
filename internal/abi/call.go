// Package abi is the typed boundary between the zap engine and the external
// modules it calls by address and method name. Every request and response shape
// is declared here once; results are validated before they reach callers.
package abi

import (
	"errors"
	"fmt"

	"github.com/elys-network/yieldzap/internal/ledger"
)

var (
	ErrExternalCall   = errors.New("external call failed")
	ErrDecodeMismatch = errors.New("external result does not match the expected shape")
)

// Invoker performs a synchronous call into another contract.
type Invoker interface {
	InvokeContract(target ledger.Address, method string, args []ledger.Val) (ledger.Val, error)
}

// Call describes one external entry point: its method identifier, its
// positionally encoded arguments and the decoder for its single return value.
type Call[T any] struct {
	Method string
	Args   []ledger.Val
	Decode func(ledger.Val) (T, error)
}

// Invoke runs call against target. Invocation failures are wrapped in
// ErrExternalCall; undecodable results carry both ErrExternalCall and
// ErrDecodeMismatch.
func Invoke[T any](inv Invoker, target ledger.Address, call Call[T]) (T, error) {
	var zero T
	raw, err := inv.InvokeContract(target, call.Method, call.Args)
	if err != nil {
		return zero, fmt.Errorf("%w: %s.%s: %w", ErrExternalCall, target, call.Method, err)
	}
	out, err := call.Decode(raw)
	if err != nil {
		return zero, errors.Join(
			fmt.Errorf("%w: %s.%s", ErrExternalCall, target, call.Method),
			err,
		)
	}
	return out, nil
}

func mismatch(want string, got ledger.Val) error {
	return fmt.Errorf("%w: want %s, got %s", ErrDecodeMismatch, want, got.Kind())
}
