// Package guard checks that the initiating party authorized an invocation
// before any balance is touched.
package guard

import (
	"errors"
	"fmt"

	"github.com/elys-network/yieldzap/internal/ledger"
	"github.com/elys-network/yieldzap/internal/types"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotInitialized = errors.New("administrator not initialized")
)

// Authorizer verifies an authorization capability for the current call.
type Authorizer interface {
	RequireAuth(addr ledger.Address) error
}

// RequireCaller demands that caller authorized this exact invocation.
func RequireCaller(auth Authorizer, caller ledger.Address) error {
	if caller.IsZero() {
		return fmt.Errorf("%w: empty caller", ErrUnauthorized)
	}
	if err := auth.RequireAuth(caller); err != nil {
		return errors.Join(fmt.Errorf("%w: %s", ErrUnauthorized, caller), err)
	}
	return nil
}

// RequireAdmin matches presented against the stored record, then demands its
// authorization. A nil record means initialize never ran.
func RequireAdmin(auth Authorizer, record *types.AdministratorRecord, presented ledger.Address) error {
	if record == nil {
		return ErrNotInitialized
	}
	if presented != record.Admin {
		return fmt.Errorf("%w: %s is not the administrator", ErrUnauthorized, presented)
	}
	return RequireCaller(auth, presented)
}
