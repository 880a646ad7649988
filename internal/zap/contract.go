// Package zap is the orchestration engine: it pulls a caller's funds into
// custody, converts them through the swap aggregator when needed, enforces the
// caller's output floor and deposits the proceeds into a vault on the caller's
// behalf, all inside one unit of execution.
package zap

import (
	"errors"
	"fmt"
	"math"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/elys-network/yieldzap/internal/abi"
	"github.com/elys-network/yieldzap/internal/guard"
	"github.com/elys-network/yieldzap/internal/ledger"
	"github.com/elys-network/yieldzap/internal/logger"
	"github.com/elys-network/yieldzap/internal/types"
)

const (
	DefaultAggregatorApprovalTicks uint32 = 100
	DefaultVaultApprovalTicks      uint32 = 1000

	adminKey = "admin"
)

var (
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInsufficientOutput = errors.New("swap output below minimum")
	ErrAggregatorFailure  = errors.New("swap aggregator failure")
	ErrVaultFailure       = errors.New("vault failure")
	ErrPullInFailed       = errors.New("failed to move input funds into custody")
	ErrAlreadyInitialized = errors.New("administrator already initialized")
	ErrInvalidConfig      = errors.New("invalid zap configuration")
)

// Config is the address table and allowance policy the engine runs with. It
// is resolved once by the deployment and never re-selected per call.
type Config struct {
	Environment types.Environment
	Network     types.NetworkAddressSet
	Vaults      types.VaultAddressSet

	AggregatorApprovalTicks uint32 // Zero selects DefaultAggregatorApprovalTicks
	VaultApprovalTicks      uint32 // Zero selects DefaultVaultApprovalTicks
}

// Contract implements ledger.Contract for the zap entry points.
type Contract struct {
	cfg    Config
	logger zerolog.Logger
}

var _ ledger.Contract = (*Contract)(nil)

// NewContract validates cfg and returns an engine bound to it.
func NewContract(cfg Config) (*Contract, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	if cfg.AggregatorApprovalTicks == 0 {
		cfg.AggregatorApprovalTicks = DefaultAggregatorApprovalTicks
	}
	if cfg.VaultApprovalTicks == 0 {
		cfg.VaultApprovalTicks = DefaultVaultApprovalTicks
	}

	c := &Contract{
		cfg:    cfg,
		logger: logger.GetForComponent("zap_engine"),
	}
	c.logger.Info().
		Str("environment", string(cfg.Environment)).
		Str("aggregator", cfg.Network.Aggregator.String()).
		Uint32("aggregatorApprovalTicks", cfg.AggregatorApprovalTicks).
		Uint32("vaultApprovalTicks", cfg.VaultApprovalTicks).
		Msg("Zap engine configured")
	return c, nil
}

func validateConfig(cfg Config) error {
	if cfg.Environment == "" {
		return fmt.Errorf("deployment environment cannot be empty")
	}
	if cfg.Network.Aggregator.IsZero() {
		return fmt.Errorf("aggregator address cannot be empty")
	}
	return nil
}

// Config returns the configuration the engine was built with, defaults applied.
func (c *Contract) Config() Config { return c.cfg }

// Invoke dispatches a public entry point.
func (c *Contract) Invoke(env *ledger.Env, method string, args []ledger.Val) (ledger.Val, error) {
	switch method {
	case abi.MethodZapAndDeposit:
		p, err := abi.DecodeZapParams(args)
		if err != nil {
			return ledger.Val{}, err
		}
		result, err := c.zapAndDeposit(env, p)
		if err != nil {
			return ledger.Val{}, err
		}
		return abi.EncodeZapResult(result), nil

	case abi.MethodGetSwapQuote:
		q, err := abi.DecodeQuoteArgs(args)
		if err != nil {
			return ledger.Val{}, err
		}
		out, err := c.swapQuote(env, q)
		if err != nil {
			return ledger.Val{}, err
		}
		return ledger.I128(out), nil

	case abi.MethodGetVaultInfo:
		vault, err := ledger.ArgAddress(args, 0)
		if err != nil {
			return ledger.Val{}, err
		}
		info, err := c.vaultInfo(env, vault)
		if err != nil {
			return ledger.Val{}, err
		}
		return ledger.Vec(info...), nil

	case abi.MethodPreviewVaultDeposit:
		vault, err := ledger.ArgAddress(args, 0)
		if err != nil {
			return ledger.Val{}, err
		}
		amount, err := ledger.ArgI128(args, 1)
		if err != nil {
			return ledger.Val{}, err
		}
		shares, err := c.previewDeposit(env, vault, amount)
		if err != nil {
			return ledger.Val{}, err
		}
		return ledger.I128(shares), nil

	case abi.MethodGetAvailableVaults:
		asset, err := ledger.ArgAddress(args, 0)
		if err != nil {
			return ledger.Val{}, err
		}
		return abi.EncodeAddresses(c.availableVaults(asset)), nil

	case abi.MethodEmergencyWithdraw:
		if len(args) != 4 {
			return ledger.Val{}, fmt.Errorf("%w: %s expects 4 args, got %d", ledger.ErrInvalidArgs, method, len(args))
		}
		admin, err := ledger.ArgAddress(args, 0)
		if err != nil {
			return ledger.Val{}, err
		}
		token, err := ledger.ArgAddress(args, 1)
		if err != nil {
			return ledger.Val{}, err
		}
		amount, err := ledger.ArgI128(args, 2)
		if err != nil {
			return ledger.Val{}, err
		}
		to, err := ledger.ArgAddress(args, 3)
		if err != nil {
			return ledger.Val{}, err
		}
		return ledger.Void(), c.emergencyWithdraw(env, admin, token, amount, to)

	case abi.MethodInitialize:
		admin, err := ledger.ArgAddress(args, 0)
		if err != nil {
			return ledger.Val{}, err
		}
		return ledger.Void(), c.initialize(env, admin)

	case abi.MethodGetAdmin:
		record, err := loadAdmin(env)
		if err != nil {
			return ledger.Val{}, err
		}
		if record == nil {
			return ledger.Val{}, guard.ErrNotInitialized
		}
		return ledger.AddressVal(record.Admin), nil
	}
	return ledger.Val{}, fmt.Errorf("%w: zap contract has no method %q", ledger.ErrUnknownMethod, method)
}

// expiry adds ticks to the current sequence, saturating at the top of the range.
func expiry(seq, ticks uint32) uint32 {
	if seq > math.MaxUint32-ticks {
		return math.MaxUint32
	}
	return seq + ticks
}

func requirePositive(amount sdkmath.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidAmount, amount)
	}
	return nil
}
