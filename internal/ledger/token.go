package ledger

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// Asset contract method names.
const (
	TokenTransfer     = "transfer"
	TokenTransferFrom = "transfer_from"
	TokenApprove      = "approve"
	TokenAllowance    = "allowance"
	TokenBalance      = "balance"
)

// tokenContract is the built-in fungible asset primitive. Its balances and
// allowances live in the host state so that they unwind with the unit.
type tokenContract struct{}

func (tokenContract) Invoke(env *Env, method string, args []Val) (Val, error) {
	switch method {
	case TokenTransfer:
		from, to, amount, err := transferArgs(args)
		if err != nil {
			return Val{}, err
		}
		if err := env.RequireAuth(from); err != nil {
			return Val{}, err
		}
		if err := move(env, from, to, amount); err != nil {
			return Val{}, err
		}
		env.Publish(TokenTransfer, Vec(AddressVal(from), AddressVal(to), I128(amount)))
		return Void(), nil

	case TokenTransferFrom:
		if len(args) != 4 {
			return Val{}, fmt.Errorf("%w: transfer_from expects 4 args, got %d", ErrInvalidArgs, len(args))
		}
		spender, err := ArgAddress(args, 0)
		if err != nil {
			return Val{}, err
		}
		from, to, amount, err := transferArgs(args[1:])
		if err != nil {
			return Val{}, err
		}
		if err := env.RequireAuth(spender); err != nil {
			return Val{}, err
		}
		if err := spendAllowance(env, from, spender, amount); err != nil {
			return Val{}, err
		}
		if err := move(env, from, to, amount); err != nil {
			return Val{}, err
		}
		env.Publish(TokenTransfer, Vec(AddressVal(from), AddressVal(to), I128(amount)))
		return Void(), nil

	case TokenApprove:
		if len(args) != 4 {
			return Val{}, fmt.Errorf("%w: approve expects 4 args, got %d", ErrInvalidArgs, len(args))
		}
		from, err := ArgAddress(args, 0)
		if err != nil {
			return Val{}, err
		}
		spender, err := ArgAddress(args, 1)
		if err != nil {
			return Val{}, err
		}
		amount, err := ArgI128(args, 2)
		if err != nil {
			return Val{}, err
		}
		expiration, err := ArgU32(args, 3)
		if err != nil {
			return Val{}, err
		}
		if amount.IsNegative() {
			return Val{}, ErrNegativeAmount
		}
		if amount.IsPositive() && expiration < env.Sequence() {
			return Val{}, fmt.Errorf("%w: %d < %d", ErrInvalidExpiration, expiration, env.Sequence())
		}
		if err := env.RequireAuth(from); err != nil {
			return Val{}, err
		}
		env.unit.working.allowances[allowanceKey{env.contract, from, spender}] = Allowance{Amount: amount, Expiration: expiration}
		env.Publish(TokenApprove, Vec(AddressVal(from), AddressVal(spender), I128(amount), U32(expiration)))
		return Void(), nil

	case TokenAllowance:
		if len(args) != 2 {
			return Val{}, fmt.Errorf("%w: allowance expects 2 args, got %d", ErrInvalidArgs, len(args))
		}
		from, err := ArgAddress(args, 0)
		if err != nil {
			return Val{}, err
		}
		spender, err := ArgAddress(args, 1)
		if err != nil {
			return Val{}, err
		}
		a, ok := env.unit.working.allowances[allowanceKey{env.contract, from, spender}]
		if !ok || a.Expiration < env.Sequence() {
			return I128(sdkmath.ZeroInt()), nil
		}
		return I128(a.Amount), nil

	case TokenBalance:
		id, err := ArgAddress(args, 0)
		if err != nil {
			return Val{}, err
		}
		return I128(env.unit.working.balance(env.contract, id)), nil
	}
	return Val{}, fmt.Errorf("%w: asset contract has no method %q", ErrUnknownMethod, method)
}

func transferArgs(args []Val) (Address, Address, sdkmath.Int, error) {
	if len(args) != 3 {
		return "", "", sdkmath.Int{}, fmt.Errorf("%w: transfer expects 3 args, got %d", ErrInvalidArgs, len(args))
	}
	from, err := ArgAddress(args, 0)
	if err != nil {
		return "", "", sdkmath.Int{}, err
	}
	to, err := ArgAddress(args, 1)
	if err != nil {
		return "", "", sdkmath.Int{}, err
	}
	amount, err := ArgI128(args, 2)
	if err != nil {
		return "", "", sdkmath.Int{}, err
	}
	if amount.IsNegative() {
		return "", "", sdkmath.Int{}, ErrNegativeAmount
	}
	return from, to, amount, nil
}

func move(env *Env, from, to Address, amount sdkmath.Int) error {
	state := env.unit.working
	balance := state.balance(env.contract, from)
	if balance.LT(amount) {
		return fmt.Errorf("%w: %s holds %s of %s, needs %s", ErrInsufficientBalance, from, balance, env.contract, amount)
	}
	state.balances[balanceKey{env.contract, from}] = balance.Sub(amount)
	state.balances[balanceKey{env.contract, to}] = state.balance(env.contract, to).Add(amount)
	return nil
}

func spendAllowance(env *Env, owner, spender Address, amount sdkmath.Int) error {
	key := allowanceKey{env.contract, owner, spender}
	a, ok := env.unit.working.allowances[key]
	if !ok {
		return fmt.Errorf("%w: %s has no allowance from %s", ErrInsufficientAllowance, spender, owner)
	}
	if a.Expiration < env.Sequence() {
		return fmt.Errorf("%w: expired at %d, now %d", ErrAllowanceExpired, a.Expiration, env.Sequence())
	}
	if a.Amount.LT(amount) {
		return fmt.Errorf("%w: %s < %s", ErrInsufficientAllowance, a.Amount, amount)
	}
	a.Amount = a.Amount.Sub(amount)
	env.unit.working.allowances[key] = a
	return nil
}

// TokenClient calls the asset transfer primitive of one asset.
type TokenClient struct {
	env   *Env
	asset Address
}

func (t *TokenClient) Address() Address { return t.asset }

func (t *TokenClient) Transfer(from, to Address, amount sdkmath.Int) error {
	_, err := t.env.InvokeContract(t.asset, TokenTransfer, []Val{AddressVal(from), AddressVal(to), I128(amount)})
	return err
}

func (t *TokenClient) TransferFrom(spender, from, to Address, amount sdkmath.Int) error {
	_, err := t.env.InvokeContract(t.asset, TokenTransferFrom,
		[]Val{AddressVal(spender), AddressVal(from), AddressVal(to), I128(amount)})
	return err
}

func (t *TokenClient) Approve(from, spender Address, amount sdkmath.Int, expiration uint32) error {
	_, err := t.env.InvokeContract(t.asset, TokenApprove,
		[]Val{AddressVal(from), AddressVal(spender), I128(amount), U32(expiration)})
	return err
}

func (t *TokenClient) Balance(id Address) (sdkmath.Int, error) {
	v, err := t.env.InvokeContract(t.asset, TokenBalance, []Val{AddressVal(id)})
	if err != nil {
		return sdkmath.Int{}, err
	}
	amount, ok := v.AsI128()
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("%w: balance returned %s", ErrInvalidVal, v.Kind())
	}
	return amount, nil
}

func (t *TokenClient) Allowance(from, spender Address) (sdkmath.Int, error) {
	v, err := t.env.InvokeContract(t.asset, TokenAllowance, []Val{AddressVal(from), AddressVal(spender)})
	if err != nil {
		return sdkmath.Int{}, err
	}
	amount, ok := v.AsI128()
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("%w: allowance returned %s", ErrInvalidVal, v.Kind())
	}
	return amount, nil
}
