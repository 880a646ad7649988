package simulations

import (
	"context"
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/yieldzap/internal/abi"
	"github.com/elys-network/yieldzap/internal/config"
	"github.com/elys-network/yieldzap/internal/ledger"
	"github.com/elys-network/yieldzap/internal/logger"
	"github.com/elys-network/yieldzap/internal/types"
	"github.com/elys-network/yieldzap/internal/zap"
)

// ZapAddress is where the sandbox deploys the zap contract.
const ZapAddress ledger.Address = "CAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAL2"

// DefaultLiquidity is minted to the aggregator in every sandbox asset.
var DefaultLiquidity = sdkmath.NewInt(1_000_000_000_000)

var ErrSandboxSetup = errors.New("sandbox setup failed")

// SandboxConfig describes a self-contained deployment on an in-process ledger.
type SandboxConfig struct {
	Deployment  config.Deployment
	Parameters  config.Parameters
	Liquidity   sdkmath.Int // Zero selects DefaultLiquidity
	HostOptions []ledger.Option
}

// Sandbox is a ledger host with the zap contract, a simulated aggregator and
// one simulated vault per vault directory entry.
type Sandbox struct {
	Host       *ledger.Host
	Deployment config.Deployment
	Contract   *zap.Contract
	Client     *zap.Client
	Aggregator *Aggregator
	Vaults     map[ledger.Address]*Vault
}

// NewLocalnetSandbox deploys onto the built-in localnet tables with default parameters.
func NewLocalnetSandbox(opts ...ledger.Option) (*Sandbox, error) {
	d, err := config.NewRegistry().Resolve(types.Localnet)
	if err != nil {
		return nil, errors.Join(ErrSandboxSetup, err)
	}
	return NewSandbox(SandboxConfig{
		Deployment:  d,
		Parameters:  config.DefaultParameters,
		HostOptions: opts,
	})
}

// NewSandbox registers every asset and contract of cfg.Deployment on a new host.
func NewSandbox(cfg SandboxConfig) (*Sandbox, error) {
	sandboxLogger := logger.GetForComponent("sandbox")
	d := cfg.Deployment
	liquidity := cfg.Liquidity
	if liquidity.IsNil() || liquidity.IsZero() {
		liquidity = DefaultLiquidity
	}

	host := ledger.NewHost(cfg.HostOptions...)
	assets := []ledger.Address{d.Network.StableAsset, d.Network.NativeAsset, d.Network.RewardAsset}

	s := &Sandbox{
		Host:       host,
		Deployment: d,
		Aggregator: NewAggregator(cfg.Parameters.SimulatedSwapRateBps),
		Vaults:     make(map[ledger.Address]*Vault),
	}

	if err := host.Register(d.Network.Aggregator, s.Aggregator); err != nil {
		return nil, errors.Join(ErrSandboxSetup, err)
	}
	for _, asset := range assets {
		if asset.IsZero() {
			continue
		}
		if err := host.RegisterToken(asset); err != nil {
			return nil, errors.Join(ErrSandboxSetup, err)
		}
		if err := host.Mint(asset, d.Network.Aggregator, liquidity); err != nil {
			return nil, errors.Join(ErrSandboxSetup, err)
		}
	}

	vaults := []struct {
		addr    ledger.Address
		accepts []ledger.Address
	}{
		{d.Vaults.StableVault, []ledger.Address{d.Network.StableAsset}},
		{d.Vaults.NativeVault, []ledger.Address{d.Network.NativeAsset}},
		{d.Vaults.RewardVault, []ledger.Address{d.Network.RewardAsset}},
		{d.Vaults.MultiAssetVault, nil},
	}
	for _, v := range vaults {
		if v.addr.IsZero() {
			continue
		}
		vault := NewVault(cfg.Parameters.SimulatedShareRateBps, v.accepts...)
		if err := host.Register(v.addr, vault); err != nil {
			return nil, errors.Join(ErrSandboxSetup, err)
		}
		s.Vaults[v.addr] = vault
	}

	contract, err := zap.NewContract(zap.Config{
		Environment:             d.Environment,
		Network:                 d.Network,
		Vaults:                  d.Vaults,
		AggregatorApprovalTicks: cfg.Parameters.AggregatorApprovalTicks,
		VaultApprovalTicks:      cfg.Parameters.VaultApprovalTicks,
	})
	if err != nil {
		return nil, errors.Join(ErrSandboxSetup, err)
	}
	if err := host.Register(ZapAddress, contract); err != nil {
		return nil, errors.Join(ErrSandboxSetup, err)
	}
	s.Contract = contract
	s.Client = zap.NewClient(host, ZapAddress)

	sandboxLogger.Info().
		Str("environment", string(d.Environment)).
		Int("vaults", len(s.Vaults)).
		Str("zap", ZapAddress.String()).
		Msg("Sandbox deployed")
	return s, nil
}

// Fund mints amount of asset to holder.
func (s *Sandbox) Fund(asset, holder ledger.Address, amount sdkmath.Int) error {
	return s.Host.Mint(asset, holder, amount)
}

// Zap signs and submits a zap for p.Caller.
func (s *Sandbox) Zap(ctx context.Context, p types.ZapParams) (types.ZapResult, error) {
	return s.Client.ZapAndDeposit(ctx, p, s.Client.ZapAuthorization(p))
}

// ShareBalance reads holder's shares in a simulated vault.
func (s *Sandbox) ShareBalance(ctx context.Context, vault, holder ledger.Address) (sdkmath.Int, error) {
	if _, ok := s.Vaults[vault]; !ok {
		return sdkmath.Int{}, fmt.Errorf("no simulated vault at %s", vault)
	}
	raw, err := s.Host.Invoke(ctx, vault, MethodShareBalance, []ledger.Val{ledger.AddressVal(holder)})
	if err != nil {
		return sdkmath.Int{}, err
	}
	return abi.DecodeI128(raw)
}
