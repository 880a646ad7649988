package simulations

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/elys-network/yieldzap/internal/abi"
	"github.com/elys-network/yieldzap/internal/ledger"
)

const (
	MethodShareBalance = "share_balance"

	totalAssetsKey = "total_assets"
	totalSharesKey = "total_shares"
)

// Vault credits shares at a fixed rate. Deposits are pulled through the
// depositor's allowance and share balances live in the vault's storage.
type Vault struct {
	callLog

	RateBps uint32 // Shares per 10000 deposited

	// Accepts restricts deposits to these assets. Empty accepts any asset.
	Accepts []ledger.Address
	// Fault makes deposit fail with the given error.
	Fault error
	// OnDeposit runs inside deposit before any funds move. A non-nil error aborts the deposit.
	OnDeposit func(env *ledger.Env) error

	logger zerolog.Logger
}

var _ ledger.Contract = (*Vault)(nil)

// NewVault returns a vault crediting shares at rateBps, accepting the assets given.
func NewVault(rateBps uint32, accepts ...ledger.Address) *Vault {
	return &Vault{RateBps: rateBps, Accepts: accepts, logger: depositLogger}
}

// Shares applies the share rate.
func (v *Vault) Shares(amount sdkmath.Int) sdkmath.Int {
	return amount.MulRaw(int64(v.RateBps)).QuoRaw(bpsDenominator)
}

func (v *Vault) accepts(asset ledger.Address) bool {
	if len(v.Accepts) == 0 {
		return true
	}
	for _, a := range v.Accepts {
		if a == asset {
			return true
		}
	}
	return false
}

func (v *Vault) Invoke(env *ledger.Env, method string, args []ledger.Val) (ledger.Val, error) {
	v.record(method)

	switch method {
	case abi.MethodDeposit:
		return v.deposit(env, args)

	case abi.MethodPreviewDeposit:
		amount, err := ledger.ArgI128(args, 0)
		if err != nil {
			return ledger.Val{}, err
		}
		return ledger.I128(v.Shares(amount)), nil

	case abi.MethodGetInfo:
		return ledger.Vec(
			ledger.I128(storedAmount(env, totalAssetsKey)),
			ledger.I128(storedAmount(env, totalSharesKey)),
		), nil

	case MethodShareBalance:
		holder, err := ledger.ArgAddress(args, 0)
		if err != nil {
			return ledger.Val{}, err
		}
		return ledger.I128(storedAmount(env, shareKey(holder))), nil
	}
	return ledger.Val{}, fmt.Errorf("%w: vault has no method %q", ledger.ErrUnknownMethod, method)
}

func (v *Vault) deposit(env *ledger.Env, args []ledger.Val) (ledger.Val, error) {
	if v.Fault != nil {
		return ledger.Val{}, v.Fault
	}
	if v.OnDeposit != nil {
		if err := v.OnDeposit(env); err != nil {
			return ledger.Val{}, err
		}
	}
	if len(args) != 3 {
		return ledger.Val{}, fmt.Errorf("%w: deposit expects 3 args, got %d", ledger.ErrInvalidArgs, len(args))
	}
	asset, err := ledger.ArgAddress(args, 0)
	if err != nil {
		return ledger.Val{}, err
	}
	amount, err := ledger.ArgI128(args, 1)
	if err != nil {
		return ledger.Val{}, err
	}
	receiver, err := ledger.ArgAddress(args, 2)
	if err != nil {
		return ledger.Val{}, err
	}
	if !v.accepts(asset) {
		return ledger.Val{}, fmt.Errorf("vault %s does not accept asset %s", env.CurrentContract(), asset)
	}

	self := env.CurrentContract()
	if err := env.Token(asset).TransferFrom(self, env.Invoker(), self, amount); err != nil {
		return ledger.Val{}, err
	}

	shares := v.Shares(amount)
	addStored(env, totalAssetsKey, amount)
	addStored(env, totalSharesKey, shares)
	addStored(env, shareKey(receiver), shares)

	v.logger.Debug().
		Str("invocationID", env.InvocationID()).
		Str("asset", asset.String()).
		Str("amount", amount.String()).
		Str("receiver", receiver.String()).
		Str("shares", shares.String()).
		Msg("Simulated deposit credited")
	return ledger.I128(shares), nil
}

func shareKey(holder ledger.Address) string { return "shares:" + holder.String() }

func storedAmount(env *ledger.Env, key string) sdkmath.Int {
	raw, ok := env.Storage().Get(key)
	if !ok {
		return sdkmath.ZeroInt()
	}
	amount, ok := raw.AsI128()
	if !ok {
		return sdkmath.ZeroInt()
	}
	return amount
}

func addStored(env *ledger.Env, key string, delta sdkmath.Int) {
	env.Storage().Set(key, ledger.I128(storedAmount(env, key).Add(delta)))
}
