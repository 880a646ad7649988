package ledger

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Env is the execution handle a contract receives for one call.
type Env struct {
	host     *Host
	unit     *unit
	contract Address
	invoker  Address
	method   string
	args     []Val
}

// CurrentContract returns the address of the executing contract.
func (e *Env) CurrentContract() Address { return e.contract }

// Invoker returns the contract that called the executing contract, or the empty
// address for the root call of a unit.
func (e *Env) Invoker() Address { return e.invoker }

// InvocationID identifies the enclosing unit of execution.
func (e *Env) InvocationID() string { return e.unit.id }

// Sequence returns the current sequence tick.
func (e *Env) Sequence() uint32 { return e.host.sequence }

// Logger returns the unit-scoped logger.
func (e *Env) Logger() *zerolog.Logger {
	l := e.unit.logger.With().Str("executing", e.contract.String()).Logger()
	return &l
}

// RequireAuth verifies that addr authorized the current call, arguments included.
// A contract is implicitly authorized for the calls it makes directly. Signed
// invocations are consumed when matched and cannot be replayed in the unit.
func (e *Env) RequireAuth(addr Address) error {
	inv := Invocation{Contract: e.contract, Method: e.method, Args: e.args}
	if e.host.mockAllAuths || (!e.invoker.IsZero() && addr == e.invoker) {
		e.unit.usedAuths = append(e.unit.usedAuths, AuthorizedInvocation{Address: addr, Invocation: inv})
		return nil
	}
	for i, a := range e.unit.auths {
		if a.Address != addr {
			continue
		}
		if slot, ok := e.unit.claimAuth(i, e.invoker, inv); ok {
			e.unit.consumed = append(e.unit.consumed, slot)
			e.unit.usedAuths = append(e.unit.usedAuths, AuthorizedInvocation{Address: addr, Invocation: inv})
			return nil
		}
	}
	return fmt.Errorf("%w: %s for %s.%s", ErrAuthMissing, addr, e.contract, e.method)
}

// InvokeContract synchronously calls method on target within the current unit.
func (e *Env) InvokeContract(target Address, method string, args []Val) (Val, error) {
	return e.host.call(e.unit, e.contract, target, method, args)
}

// Publish buffers a notification. It is delivered only if the unit commits.
func (e *Env) Publish(topic string, data Val) {
	e.unit.events = append(e.unit.events, Event{
		InvocationID: e.unit.id,
		Contract:     e.contract,
		Topic:        topic,
		Data:         data,
		Sequence:     e.host.sequence,
		Index:        len(e.unit.events),
	})
}

// Storage returns the instance storage of the executing contract.
func (e *Env) Storage() *Storage {
	return &Storage{unit: e.unit, contract: e.contract}
}

// Token returns a client for the asset contract at asset.
func (e *Env) Token(asset Address) *TokenClient {
	return &TokenClient{env: e, asset: asset}
}

// Storage is a contract's durable key/value space.
type Storage struct {
	unit     *unit
	contract Address
}

func (s *Storage) Get(key string) (Val, bool) {
	v, ok := s.unit.working.storage[s.contract][key]
	return v, ok
}

func (s *Storage) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

func (s *Storage) Set(key string, v Val) {
	entries, ok := s.unit.working.storage[s.contract]
	if !ok {
		entries = make(map[string]Val)
		s.unit.working.storage[s.contract] = entries
	}
	entries[key] = v
}

func (s *Storage) Remove(key string) {
	delete(s.unit.working.storage[s.contract], key)
}
