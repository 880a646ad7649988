package ledger

import (
	"context"
	"errors"
	"math"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	assetA  Address = "CASSETA"
	alice   Address = "GALICE"
	bob     Address = "GBOB"
	program Address = "CPROGRAM"
	helper  Address = "CHELPER"
)

type recordingSink struct {
	batches [][]Event
	err     error
}

func (s *recordingSink) HandleEvents(_ context.Context, events []Event) error {
	s.batches = append(s.batches, events)
	return s.err
}

type recordingObserver struct {
	outcomes []UnitOutcome
}

func (o *recordingObserver) ObserveUnit(outcome UnitOutcome) {
	o.outcomes = append(o.outcomes, outcome)
}

func newFundedHost(t *testing.T, opts ...Option) *Host {
	t.Helper()
	h := NewHost(opts...)
	require.NoError(t, h.RegisterToken(assetA))
	require.NoError(t, h.Mint(assetA, alice, sdkmath.NewInt(1000)))
	return h
}

// pullThenFail moves alice's funds into the program and then fails.
func pullThenFail(failErr error) ContractFunc {
	return func(env *Env, method string, args []Val) (Val, error) {
		if err := env.Token(assetA).Transfer(alice, env.CurrentContract(), sdkmath.NewInt(400)); err != nil {
			return Val{}, err
		}
		env.Publish("pulled", I128FromInt64(400))
		if failErr != nil {
			return Val{}, failErr
		}
		return I128FromInt64(400), nil
	}
}

func TestHost_CommitDeliversEvents(t *testing.T) {
	sink := &recordingSink{}
	obs := &recordingObserver{}
	h := newFundedHost(t, WithMockAllAuths(), WithSink(sink), WithObserver(obs))
	require.NoError(t, h.Register(program, pullThenFail(nil)))

	res, err := h.Invoke(context.Background(), program, "run", nil)
	require.NoError(t, err)

	amount, ok := res.AsI128()
	require.True(t, ok)
	assert.True(t, amount.Equal(sdkmath.NewInt(400)))
	assert.True(t, h.Balance(assetA, alice).Equal(sdkmath.NewInt(600)))
	assert.True(t, h.Balance(assetA, program).Equal(sdkmath.NewInt(400)))

	require.Len(t, sink.batches, 1)
	topics := []string{}
	for _, e := range sink.batches[0] {
		topics = append(topics, e.Topic)
		assert.NotEmpty(t, e.InvocationID)
	}
	assert.Equal(t, []string{TokenTransfer, "pulled"}, topics)

	require.Len(t, obs.outcomes, 1)
	assert.NoError(t, obs.outcomes[0].Err)
	assert.Equal(t, 2, obs.outcomes[0].Events)
}

func TestHost_FailureUnwindsTransfers(t *testing.T) {
	sink := &recordingSink{}
	obs := &recordingObserver{}
	h := newFundedHost(t, WithMockAllAuths(), WithSink(sink), WithObserver(obs))
	boom := errors.New("boom")
	require.NoError(t, h.Register(program, pullThenFail(boom)))

	_, err := h.Invoke(context.Background(), program, "run", nil)
	require.ErrorIs(t, err, boom)

	assert.True(t, h.Balance(assetA, alice).Equal(sdkmath.NewInt(1000)))
	assert.True(t, h.Balance(assetA, program).IsZero())
	assert.Empty(t, sink.batches)
	require.Len(t, obs.outcomes, 1)
	assert.ErrorIs(t, obs.outcomes[0].Err, boom)
}

func TestHost_PanicIsRecoveredAndUnwound(t *testing.T) {
	h := newFundedHost(t, WithMockAllAuths())
	require.NoError(t, h.Register(program, ContractFunc(func(env *Env, method string, args []Val) (Val, error) {
		_ = env.Token(assetA).Transfer(alice, env.CurrentContract(), sdkmath.NewInt(10))
		panic("unexpected")
	})))

	_, err := h.Invoke(context.Background(), program, "run", nil)
	require.ErrorIs(t, err, ErrContractPanic)
	assert.True(t, h.Balance(assetA, alice).Equal(sdkmath.NewInt(1000)))
}

func TestHost_NestedFailureUnwindsOnlyNestedCall(t *testing.T) {
	h := newFundedHost(t, WithMockAllAuths())
	require.NoError(t, h.Register(helper, pullThenFail(errors.New("nested"))))
	require.NoError(t, h.Register(program, ContractFunc(func(env *Env, method string, args []Val) (Val, error) {
		if err := env.Token(assetA).Transfer(alice, bob, sdkmath.NewInt(100)); err != nil {
			return Val{}, err
		}
		// The helper's own transfer must not survive its failure.
		_, nestedErr := env.InvokeContract(helper, "run", nil)
		return Bool(nestedErr != nil), nil
	})))

	res, err := h.Invoke(context.Background(), program, "run", nil)
	require.NoError(t, err)
	failed, _ := res.AsBool()
	assert.True(t, failed)
	assert.True(t, h.Balance(assetA, alice).Equal(sdkmath.NewInt(900)))
	assert.True(t, h.Balance(assetA, bob).Equal(sdkmath.NewInt(100)))
	assert.True(t, h.Balance(assetA, helper).IsZero())
}

func TestHost_ReentrantCallRejected(t *testing.T) {
	h := NewHost()
	require.NoError(t, h.Register(program, ContractFunc(func(env *Env, method string, args []Val) (Val, error) {
		if method == "inner" {
			return Void(), nil
		}
		return env.InvokeContract(helper, "bounce", nil)
	})))
	require.NoError(t, h.Register(helper, ContractFunc(func(env *Env, method string, args []Val) (Val, error) {
		return env.InvokeContract(program, "inner", nil)
	})))

	_, err := h.Invoke(context.Background(), program, "outer", nil)
	require.ErrorIs(t, err, ErrReentrantCall)
}

func TestHost_UnknownContract(t *testing.T) {
	h := NewHost()
	_, err := h.Invoke(context.Background(), program, "run", nil)
	require.ErrorIs(t, err, ErrContractNotFound)
}

func TestHost_CancelledContext(t *testing.T) {
	h := NewHost()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.Invoke(ctx, program, "run", nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestHost_SinkErrorDoesNotUnwind(t *testing.T) {
	sink := &recordingSink{err: errors.New("journal down")}
	h := newFundedHost(t, WithMockAllAuths(), WithSink(sink))
	require.NoError(t, h.Register(program, pullThenFail(nil)))

	_, err := h.Invoke(context.Background(), program, "run", nil)
	require.NoError(t, err)
	assert.True(t, h.Balance(assetA, program).Equal(sdkmath.NewInt(400)))
}

func TestHost_StorageUnwinds(t *testing.T) {
	h := NewHost()
	fail := false
	require.NoError(t, h.Register(program, ContractFunc(func(env *Env, method string, args []Val) (Val, error) {
		env.Storage().Set("k", String(method))
		if fail {
			return Val{}, errors.New("abort")
		}
		return Void(), nil
	})))

	_, err := h.Invoke(context.Background(), program, "first", nil)
	require.NoError(t, err)

	fail = true
	_, err = h.Invoke(context.Background(), program, "second", nil)
	require.Error(t, err)

	v, ok := h.StorageValue(program, "k")
	require.True(t, ok)
	s, _ := v.AsString()
	assert.Equal(t, "first", s)
}

// pullArgs is transfer(alice, program, 100).
func pullArgs() []Val { return transferArgsVal(alice, program, 100) }

func pullAuthorization() Authorization {
	return Authorization{
		Address:        alice,
		Root:           Invocation{Contract: program, Method: "pull", Args: nil},
		SubInvocations: []Invocation{{Contract: assetA, Method: TokenTransfer, Args: pullArgs()}},
	}
}

// pullTimes claims alice's root authorization and then pulls n times.
func pullTimes(n int) ContractFunc {
	return func(env *Env, method string, args []Val) (Val, error) {
		if err := env.RequireAuth(alice); err != nil {
			return Val{}, err
		}
		for i := 0; i < n; i++ {
			if err := env.Token(assetA).Transfer(alice, program, sdkmath.NewInt(100)); err != nil {
				return Val{}, err
			}
		}
		return Void(), nil
	}
}

func TestHost_SignedSubInvocationAuthorizesOneCall(t *testing.T) {
	h := newFundedHost(t)
	require.NoError(t, h.Register(program, pullTimes(1)))

	_, err := h.Invoke(context.Background(), program, "pull", nil, pullAuthorization())
	require.NoError(t, err)
	assert.True(t, h.Balance(assetA, program).Equal(sdkmath.NewInt(100)))
	assert.Len(t, h.LastAuths(), 2)
}

func TestHost_SignedSubInvocationCannotBeReplayed(t *testing.T) {
	h := newFundedHost(t)
	require.NoError(t, h.Register(program, pullTimes(2)))

	_, err := h.Invoke(context.Background(), program, "pull", nil, pullAuthorization())
	require.ErrorIs(t, err, ErrAuthMissing)
	assert.True(t, h.Balance(assetA, alice).Equal(sdkmath.NewInt(1000)))
	assert.True(t, h.Balance(assetA, program).IsZero())
}

func TestHost_SignedRootCannotBeReplayed(t *testing.T) {
	h := newFundedHost(t)
	require.NoError(t, h.Register(program, ContractFunc(func(env *Env, method string, args []Val) (Val, error) {
		if err := env.RequireAuth(alice); err != nil {
			return Val{}, err
		}
		return Void(), env.RequireAuth(alice)
	})))

	_, err := h.Invoke(context.Background(), program, "pull", nil, pullAuthorization())
	require.ErrorIs(t, err, ErrAuthMissing)
}

func TestHost_SubInvocationRequiresClaimedRoot(t *testing.T) {
	h := newFundedHost(t)
	require.NoError(t, h.Register(program, ContractFunc(func(env *Env, method string, args []Val) (Val, error) {
		return Void(), env.Token(assetA).Transfer(alice, program, sdkmath.NewInt(100))
	})))

	_, err := h.Invoke(context.Background(), program, "pull", nil, pullAuthorization())
	require.ErrorIs(t, err, ErrAuthMissing)
}

func TestHost_SubInvocationMustBeCalledByRootContract(t *testing.T) {
	h := newFundedHost(t)
	require.NoError(t, h.Register(helper, ContractFunc(func(env *Env, method string, args []Val) (Val, error) {
		return Void(), env.Token(assetA).Transfer(alice, program, sdkmath.NewInt(100))
	})))
	require.NoError(t, h.Register(program, ContractFunc(func(env *Env, method string, args []Val) (Val, error) {
		if err := env.RequireAuth(alice); err != nil {
			return Val{}, err
		}
		return env.InvokeContract(helper, "steal", nil)
	})))

	_, err := h.Invoke(context.Background(), program, "pull", nil, pullAuthorization())
	require.ErrorIs(t, err, ErrAuthMissing)
	assert.True(t, h.Balance(assetA, alice).Equal(sdkmath.NewInt(1000)))
}

func TestHost_FailedNestedCallReleasesClaim(t *testing.T) {
	h := newFundedHost(t)
	attempts := 0
	require.NoError(t, h.Register(helper, ContractFunc(func(env *Env, method string, args []Val) (Val, error) {
		attempts++
		if err := env.RequireAuth(alice); err != nil {
			return Val{}, err
		}
		if attempts == 1 {
			return Val{}, errors.New("helper failed")
		}
		return Void(), nil
	})))
	require.NoError(t, h.Register(program, ContractFunc(func(env *Env, method string, args []Val) (Val, error) {
		if _, err := env.InvokeContract(helper, "check", nil); err == nil {
			return Val{}, errors.New("expected first helper call to fail")
		}
		return env.InvokeContract(helper, "check", nil)
	})))

	auth := Authorization{Address: alice, Root: Invocation{Contract: helper, Method: "check"}}
	_, err := h.Invoke(context.Background(), program, "run", nil, auth)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Len(t, h.LastAuths(), 1)
}

func TestHost_AdvanceSequenceSaturates(t *testing.T) {
	h := NewHost(WithSequence(math.MaxUint32 - 5))
	h.AdvanceSequence(3)
	assert.Equal(t, uint32(math.MaxUint32-2), h.Sequence())

	h.AdvanceSequence(10)
	assert.Equal(t, uint32(math.MaxUint32), h.Sequence())

	h.AdvanceSequence(1)
	assert.Equal(t, uint32(math.MaxUint32), h.Sequence(), "sequence never wraps")
}
