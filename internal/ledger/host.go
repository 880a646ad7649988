package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/elys-network/yieldzap/internal/logger"
)

// Error definitions for the hosting ledger
var (
	ErrContractNotFound      = errors.New("contract not found")
	ErrContractExists        = errors.New("contract already registered at address")
	ErrReentrantCall         = errors.New("contract re-entry is not allowed")
	ErrContractPanic         = errors.New("contract panicked")
	ErrAuthMissing           = errors.New("authorization missing")
	ErrInvalidArgs           = errors.New("invalid contract arguments")
	ErrUnknownMethod         = errors.New("unknown contract method")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrAllowanceExpired      = errors.New("allowance expired")
	ErrInvalidExpiration     = errors.New("allowance expiration is in the past")
	ErrNegativeAmount        = errors.New("amount cannot be negative")
)

// Contract is a program deployed on the host. Invoke is called with an Env bound
// to the contract's own address.
type Contract interface {
	Invoke(env *Env, method string, args []Val) (Val, error)
}

// ContractFunc adapts a function to the Contract interface.
type ContractFunc func(env *Env, method string, args []Val) (Val, error)

func (f ContractFunc) Invoke(env *Env, method string, args []Val) (Val, error) {
	return f(env, method, args)
}

// Allowance is a capped, expiring spending permission.
type Allowance struct {
	Amount     sdkmath.Int
	Expiration uint32
}

type balanceKey struct {
	asset  Address
	holder Address
}

type allowanceKey struct {
	asset   Address
	owner   Address
	spender Address
}

// ledgerState is everything a unit of execution can mutate.
type ledgerState struct {
	balances   map[balanceKey]sdkmath.Int
	allowances map[allowanceKey]Allowance
	storage    map[Address]map[string]Val
}

func newLedgerState() *ledgerState {
	return &ledgerState{
		balances:   make(map[balanceKey]sdkmath.Int),
		allowances: make(map[allowanceKey]Allowance),
		storage:    make(map[Address]map[string]Val),
	}
}

// clone copies the state. sdkmath.Int and Val are immutable so a shallow copy of
// the leaf values is enough.
func (s *ledgerState) clone() *ledgerState {
	cp := &ledgerState{
		balances:   make(map[balanceKey]sdkmath.Int, len(s.balances)),
		allowances: make(map[allowanceKey]Allowance, len(s.allowances)),
		storage:    make(map[Address]map[string]Val, len(s.storage)),
	}
	for k, v := range s.balances {
		cp.balances[k] = v
	}
	for k, v := range s.allowances {
		cp.allowances[k] = v
	}
	for addr, entries := range s.storage {
		inner := make(map[string]Val, len(entries))
		for k, v := range entries {
			inner[k] = v
		}
		cp.storage[addr] = inner
	}
	return cp
}

func (s *ledgerState) balance(asset, holder Address) sdkmath.Int {
	if b, ok := s.balances[balanceKey{asset, holder}]; ok {
		return b
	}
	return sdkmath.ZeroInt()
}

// Host executes contract invocations as all-or-nothing units of execution.
// All state-mutating invocations are serialized.
type Host struct {
	mu sync.Mutex

	state     *ledgerState
	contracts map[Address]Contract
	sequence  uint32

	mockAllAuths bool
	sinks        []EventSink
	observers    []UnitObserver

	lastEvents []Event
	lastAuths  []AuthorizedInvocation

	logger zerolog.Logger
}

// Option configures a Host.
type Option func(*Host)

// WithSequence sets the starting sequence tick.
func WithSequence(seq uint32) Option {
	return func(h *Host) { h.sequence = seq }
}

// WithSink registers a sink that receives the events of every committed unit.
func WithSink(s EventSink) Option {
	return func(h *Host) {
		if s != nil {
			h.sinks = append(h.sinks, s)
		}
	}
}

// WithObserver registers an observer of unit outcomes.
func WithObserver(o UnitObserver) Option {
	return func(h *Host) {
		if o != nil {
			h.observers = append(h.observers, o)
		}
	}
}

// WithMockAllAuths makes every authorization check succeed. Intended for tests
// and local simulation only.
func WithMockAllAuths() Option {
	return func(h *Host) { h.mockAllAuths = true }
}

// NewHost creates an empty ledger host.
func NewHost(opts ...Option) *Host {
	h := &Host{
		state:     newLedgerState(),
		contracts: make(map[Address]Contract),
		sequence:  1,
		logger:    logger.GetForComponent("ledger_host"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register deploys a contract at addr.
func (h *Host) Register(addr Address, c Contract) error {
	if addr.IsZero() {
		return errors.Join(ErrInvalidArgs, errors.New("contract address cannot be empty"))
	}
	if c == nil {
		return errors.Join(ErrInvalidArgs, errors.New("contract cannot be nil"))
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.contracts[addr]; exists {
		return fmt.Errorf("%w: %s", ErrContractExists, addr)
	}
	h.contracts[addr] = c
	h.logger.Debug().Str("address", addr.String()).Msg("Contract registered")
	return nil
}

// RegisterToken deploys the built-in asset contract at asset.
func (h *Host) RegisterToken(asset Address) error {
	return h.Register(asset, tokenContract{})
}

// Mint credits amount of asset to holder outside of any unit of execution.
func (h *Host) Mint(asset, holder Address, amount sdkmath.Int) error {
	if amount.IsNil() || amount.IsNegative() {
		return ErrNegativeAmount
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.contracts[asset]; !ok {
		return fmt.Errorf("%w: %s", ErrContractNotFound, asset)
	}
	key := balanceKey{asset, holder}
	h.state.balances[key] = h.state.balance(asset, holder).Add(amount)
	return nil
}

// Balance returns the committed balance of holder in asset.
func (h *Host) Balance(asset, holder Address) sdkmath.Int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.balance(asset, holder)
}

// Allowance returns the committed allowance record.
func (h *Host) Allowance(asset, owner, spender Address) Allowance {
	h.mu.Lock()
	defer h.mu.Unlock()
	if a, ok := h.state.allowances[allowanceKey{asset, owner, spender}]; ok {
		return a
	}
	return Allowance{Amount: sdkmath.ZeroInt()}
}

// StorageValue reads a committed instance-storage entry of contract.
func (h *Host) StorageValue(contract Address, key string) (Val, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.state.storage[contract][key]
	return v, ok
}

func (h *Host) Sequence() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sequence
}

// AdvanceSequence moves the sequence tick forward by n, saturating at
// math.MaxUint32.
func (h *Host) AdvanceSequence(n uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sequence > math.MaxUint32-n {
		h.sequence = math.MaxUint32
		return
	}
	h.sequence += n
}

// SetMockAllAuths toggles mock authorization mode.
func (h *Host) SetMockAllAuths(enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mockAllAuths = enabled
}

// LastEvents returns the events of the most recent committed unit.
func (h *Host) LastEvents() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Event, len(h.lastEvents))
	copy(out, h.lastEvents)
	return out
}

// LastAuths returns the authorizations checked by the most recent committed unit.
func (h *Host) LastAuths() []AuthorizedInvocation {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]AuthorizedInvocation, len(h.lastAuths))
	copy(out, h.lastAuths)
	return out
}

// unit is the working set of a single unit of execution.
type unit struct {
	id        string
	auths     []Authorization
	working   *ledgerState
	events    []Event
	usedAuths []AuthorizedInvocation
	consumed  []authSlot
	stack     []Address
	logger    zerolog.Logger
}

// Invoke runs method on target as one unit of execution. Any error, including a
// recovered panic, restores the state captured at entry and drops every event
// published during the unit.
func (h *Host) Invoke(ctx context.Context, target Address, method string, args []Val, auths ...Authorization) (Val, error) {
	if err := ctx.Err(); err != nil {
		return Val{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	started := time.Now()
	u := &unit{
		id:      uuid.New().String(),
		auths:   auths,
		working: h.state.clone(),
	}
	u.logger = h.logger.With().
		Str("invocation_id", u.id).
		Str("contract", target.String()).
		Str("method", method).
		Logger()

	u.logger.Debug().Int("args", len(args)).Uint32("sequence", h.sequence).Msg("Unit of execution started")

	result, err := h.call(u, "", target, method, args)
	outcome := UnitOutcome{
		InvocationID: u.id,
		Contract:     target,
		Method:       method,
		Duration:     time.Since(started),
	}
	if err != nil {
		outcome.Err = err
		h.notify(outcome)
		u.logger.Warn().Err(err).Msg("Unit of execution aborted, state unwound")
		return Val{}, err
	}

	h.state = u.working
	h.lastEvents = u.events
	h.lastAuths = u.usedAuths
	outcome.Events = len(u.events)

	u.logger.Info().
		Int("events", len(u.events)).
		Dur("duration", outcome.Duration).
		Msg("Unit of execution committed")

	// Delivery is best effort; a failing sink never unwinds a committed unit.
	for _, sink := range h.sinks {
		if err := sink.HandleEvents(ctx, u.events); err != nil {
			u.logger.Error().Err(err).Msg("Event sink failed to handle committed events")
		}
	}
	h.notify(outcome)
	return result, nil
}

func (h *Host) notify(outcome UnitOutcome) {
	for _, o := range h.observers {
		o.ObserveUnit(outcome)
	}
}

// call dispatches one (possibly nested) contract call. A failed nested call is
// unwound to its own entry point before the error is returned to the caller.
func (h *Host) call(u *unit, invoker, target Address, method string, args []Val) (result Val, err error) {
	c, ok := h.contracts[target]
	if !ok {
		return Val{}, fmt.Errorf("%w: %s", ErrContractNotFound, target)
	}
	for _, active := range u.stack {
		if active == target {
			return Val{}, fmt.Errorf("%w: %s", ErrReentrantCall, target)
		}
	}

	var (
		checkpoint  *ledgerState
		eventsMark  = len(u.events)
		authsMark   = len(u.usedAuths)
		claimedMark = len(u.consumed)
		nestedDepth = len(u.stack)
	)
	if nestedDepth > 0 {
		checkpoint = u.working.clone()
	}

	u.stack = append(u.stack, target)
	defer func() {
		u.stack = u.stack[:len(u.stack)-1]
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s.%s: %v", ErrContractPanic, target, method, r)
		}
		if err != nil && checkpoint != nil {
			u.working = checkpoint
			u.events = u.events[:eventsMark]
			u.usedAuths = u.usedAuths[:authsMark]
			u.consumed = u.consumed[:claimedMark]
		}
	}()

	env := &Env{
		host:     h,
		unit:     u,
		contract: target,
		invoker:  invoker,
		method:   method,
		args:     args,
	}
	return c.Invoke(env, method, args)
}
