package zap

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/yieldzap/internal/abi"
	"github.com/elys-network/yieldzap/internal/guard"
	"github.com/elys-network/yieldzap/internal/ledger"
	"github.com/elys-network/yieldzap/internal/types"
)

// initialize records the administrator. It succeeds at most once per deployment.
func (c *Contract) initialize(env *ledger.Env, admin ledger.Address) error {
	if env.Storage().Has(adminKey) {
		return ErrAlreadyInitialized
	}
	if err := guard.RequireCaller(env, admin); err != nil {
		return err
	}

	record := types.AdministratorRecord{Admin: admin, InitializedAt: env.Sequence()}
	env.Storage().Set(adminKey, abi.EncodeAdminRecord(record))
	env.Publish(abi.TopicInitialized, ledger.AddressVal(admin))

	env.Logger().Info().
		Str("admin", admin.String()).
		Uint32("initializedAt", record.InitializedAt).
		Msg("Administrator recorded")
	return nil
}

// emergencyWithdraw drains amount of token from custody to `to`. The presented
// admin must match the stored record and must have authorized the call.
func (c *Contract) emergencyWithdraw(env *ledger.Env, admin, token ledger.Address, amount sdkmath.Int, to ledger.Address) error {
	record, err := loadAdmin(env)
	if err != nil {
		return err
	}
	if err := guard.RequireAdmin(env, record, admin); err != nil {
		return err
	}
	if err := requirePositive(amount); err != nil {
		return err
	}

	if err := env.Token(token).Transfer(env.CurrentContract(), to, amount); err != nil {
		return fmt.Errorf("emergency withdraw of %s: %w", token, err)
	}
	env.Publish(abi.TopicEmergencyWithdraw, abi.EncodeEmergencyWithdraw(admin, token, amount, to))

	env.Logger().Warn().
		Str("admin", admin.String()).
		Str("token", token.String()).
		Str("amount", amount.String()).
		Str("to", to.String()).
		Msg("Emergency withdrawal executed")
	return nil
}

// loadAdmin returns the stored record, or nil before initialize.
func loadAdmin(env *ledger.Env) (*types.AdministratorRecord, error) {
	raw, ok := env.Storage().Get(adminKey)
	if !ok {
		return nil, nil
	}
	record, err := abi.DecodeAdminRecord(raw)
	if err != nil {
		return nil, fmt.Errorf("corrupt administrator record: %w", err)
	}
	return &record, nil
}
