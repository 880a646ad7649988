package simulations

import (
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/elys-network/yieldzap/internal/abi"
	"github.com/elys-network/yieldzap/internal/ledger"
	"github.com/elys-network/yieldzap/internal/logger"
)

const bpsDenominator = 10000

var (
	swapLogger    = logger.GetForComponent("swap_simulator")
	depositLogger = logger.GetForComponent("deposit_simulator")
)

// callLog counts entry point invocations, including ones later unwound.
type callLog struct {
	mu    sync.Mutex
	calls map[string]int
}

func (l *callLog) record(method string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.calls == nil {
		l.calls = make(map[string]int)
	}
	l.calls[method]++
}

// Calls returns how often method was entered.
func (l *callLog) Calls(method string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[method]
}

// Aggregator is a swap-routing aggregator that converts at a fixed rate. It
// pulls the input through the caller's allowance and pays the output from
// its own liquidity.
type Aggregator struct {
	callLog

	RateBps uint32 // Output per 10000 input

	// Fault makes swap fail with the given error.
	Fault error
	// MalformedOutput makes swap return a u32 instead of an i128.
	MalformedOutput bool
	// EnforceMinimum makes swap reject outputs below amount_out_min.
	EnforceMinimum bool
	// OnSwap runs inside swap before any funds move. A non-nil error aborts the swap.
	OnSwap func(env *ledger.Env) error

	logger zerolog.Logger
}

var _ ledger.Contract = (*Aggregator)(nil)

// NewAggregator returns an aggregator converting at rateBps.
func NewAggregator(rateBps uint32) *Aggregator {
	return &Aggregator{RateBps: rateBps, logger: swapLogger}
}

// Quote applies the conversion rate.
func (a *Aggregator) Quote(amountIn sdkmath.Int) sdkmath.Int {
	return amountIn.MulRaw(int64(a.RateBps)).QuoRaw(bpsDenominator)
}

func (a *Aggregator) Invoke(env *ledger.Env, method string, args []ledger.Val) (ledger.Val, error) {
	a.record(method)

	switch method {
	case abi.MethodSwap:
		return a.swap(env, args)

	case abi.MethodGetBestRoute:
		if len(args) != 3 {
			return ledger.Val{}, fmt.Errorf("%w: get_best_route expects 3 args, got %d", ledger.ErrInvalidArgs, len(args))
		}
		tokenIn, err := ledger.ArgAddress(args, 0)
		if err != nil {
			return ledger.Val{}, err
		}
		tokenOut, err := ledger.ArgAddress(args, 1)
		if err != nil {
			return ledger.Val{}, err
		}
		return ledger.Vec(
			ledger.Vec(ledger.AddressVal(tokenIn), ledger.AddressVal(tokenOut)),
			ledger.Vec(ledger.U32(100)),
		), nil

	case abi.MethodGetAmountsOut:
		amountIn, err := ledger.ArgI128(args, 2)
		if err != nil {
			return ledger.Val{}, err
		}
		return ledger.I128(a.Quote(amountIn)), nil
	}
	return ledger.Val{}, fmt.Errorf("%w: aggregator has no method %q", ledger.ErrUnknownMethod, method)
}

func (a *Aggregator) swap(env *ledger.Env, args []ledger.Val) (ledger.Val, error) {
	if a.Fault != nil {
		return ledger.Val{}, a.Fault
	}
	if a.OnSwap != nil {
		if err := a.OnSwap(env); err != nil {
			return ledger.Val{}, err
		}
	}
	if len(args) != 6 {
		return ledger.Val{}, fmt.Errorf("%w: swap expects 6 args, got %d", ledger.ErrInvalidArgs, len(args))
	}
	tokenIn, err := ledger.ArgAddress(args, 0)
	if err != nil {
		return ledger.Val{}, err
	}
	tokenOut, err := ledger.ArgAddress(args, 1)
	if err != nil {
		return ledger.Val{}, err
	}
	amountIn, err := ledger.ArgI128(args, 2)
	if err != nil {
		return ledger.Val{}, err
	}
	minOut, err := ledger.ArgI128(args, 3)
	if err != nil {
		return ledger.Val{}, err
	}

	self, trader := env.CurrentContract(), env.Invoker()
	out := a.Quote(amountIn)
	if a.EnforceMinimum && out.LT(minOut) {
		return ledger.Val{}, fmt.Errorf("output %s below minimum %s", out, minOut)
	}

	if err := env.Token(tokenIn).TransferFrom(self, trader, self, amountIn); err != nil {
		return ledger.Val{}, err
	}
	if err := env.Token(tokenOut).Transfer(self, trader, out); err != nil {
		return ledger.Val{}, err
	}

	a.logger.Debug().
		Str("invocationID", env.InvocationID()).
		Str("tokenIn", tokenIn.String()).
		Str("tokenOut", tokenOut.String()).
		Str("amountIn", amountIn.String()).
		Str("amountOut", out.String()).
		Msg("Simulated swap filled")

	if a.MalformedOutput {
		return ledger.U32(uint32(out.Int64())), nil
	}
	return ledger.I128(out), nil
}
