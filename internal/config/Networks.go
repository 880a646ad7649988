/*

This file contains the deployment configuration registry and the vault
directory: the fixed address tables of every known environment.

Entries that were never published for an environment carry the all-X
placeholder (or are empty) and are rejected or cleared by Resolve. Operators
can publish missing entries through an address override file.

*/

package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/elys-network/yieldzap/internal/ledger"
	"github.com/elys-network/yieldzap/internal/types"
)

var (
	ErrUnknownEnvironment  = errors.New("unknown deployment environment")
	ErrAddressNotPublished = errors.New("address not published for environment")
)

const unpublished ledger.Address = "CXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXX"

// NativeAsset is the wrapped native asset. It shares one address across networks.
const NativeAsset ledger.Address = "CDMLFMKMMD7MWZP3FKUBZPVHTUEDLSX4BYGYKH4GCESXYHS3IHQ4EIG4"

var networkTables = map[types.Environment]types.NetworkAddressSet{
	types.Futurenet: {
		Aggregator:   "CDLZFC3SYJYDZT7K67VZ75HPJVIEUVNIXF47ZG2FB2RMQQADUHHZX252",
		VaultFactory: "CA7QYNF7SOWQ3GLR2BGMZEHXAVIRZA4KVWLTJJFC7MGXUA74P7UJUIGZ",
		StableAsset:  "CBIELTK6YBZJU5UP2WWQEUCYKLPU6AUNZ2BQ4WWFEIE3USCIHMXQDAMA",
		NativeAsset:  NativeAsset,
		RewardAsset:  "CCKDJ67DZSKSYLWVW5VPYMTVUXM6ZFXE7AQLNWRQJGLTC44MLJMB3S3Y",
	},
	types.Testnet: {
		Aggregator:   unpublished,
		VaultFactory: unpublished,
		StableAsset:  "CBIELTK6YBZJU5UP2WWQEUCYKLPU6AUNZ2BQ4WWFEIE3USCIHMXQDAMA",
		NativeAsset:  NativeAsset,
		RewardAsset:  unpublished,
	},
	types.Mainnet: {
		Aggregator:   unpublished,
		VaultFactory: unpublished,
		StableAsset:  "CCW67TSZV3SSS2HXMBQ5JFGCKJNXKZM7UQUWUZPUTHXSTZLEO7SJMI75",
		NativeAsset:  NativeAsset,
		RewardAsset:  unpublished,
	},
	types.Localnet: {
		Aggregator:   "CAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAD2",
		VaultFactory: "CAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAE2",
		StableAsset:  "CAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAF2",
		NativeAsset:  NativeAsset,
		RewardAsset:  "CAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAG2",
	},
}

var vaultTables = map[types.Environment]types.VaultAddressSet{
	types.Futurenet: {StableVault: unpublished, NativeVault: unpublished, RewardVault: unpublished, MultiAssetVault: unpublished},
	types.Testnet:   {StableVault: unpublished, NativeVault: unpublished, RewardVault: unpublished, MultiAssetVault: unpublished},
	types.Mainnet:   {StableVault: unpublished, NativeVault: unpublished, RewardVault: unpublished, MultiAssetVault: unpublished},
	types.Localnet: {
		StableVault:     "CAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAH2",
		NativeVault:     "CAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAI2",
		RewardVault:     "CAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAJ2",
		MultiAssetVault: "CAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAK2",
	},
}

// IsPublished reports whether addr is a real, published address.
func IsPublished(addr ledger.Address) bool {
	s := strings.TrimSpace(addr.String())
	return s != "" && strings.Trim(s[1:], "X") != ""
}

// Deployment is the resolved address table of one environment.
type Deployment struct {
	Environment types.Environment       `json:"environment"`
	Network     types.NetworkAddressSet `json:"network"`
	Vaults      types.VaultAddressSet   `json:"vaults"`
	Endpoint    Endpoint                `json:"endpoint"`
	Unpublished []string                `json:"unpublished,omitempty"` // Table entries cleared because they are placeholders
}

// AvailableVaults lists the vaults accepting asset in this deployment.
func (d Deployment) AvailableVaults(asset ledger.Address) []ledger.Address {
	return types.AvailableVaults(d.Network, d.Vaults, asset)
}

// Registry holds the address tables, including any operator overrides.
type Registry struct {
	networks map[types.Environment]types.NetworkAddressSet
	vaults   map[types.Environment]types.VaultAddressSet
}

// NewRegistry returns a registry over the built-in tables.
func NewRegistry() *Registry {
	r := &Registry{
		networks: make(map[types.Environment]types.NetworkAddressSet, len(networkTables)),
		vaults:   make(map[types.Environment]types.VaultAddressSet, len(vaultTables)),
	}
	for env, n := range networkTables {
		r.networks[env] = n
	}
	for env, v := range vaultTables {
		r.vaults[env] = v
	}
	return r
}

// Environments returns the environments the registry knows, sorted by name.
func (r *Registry) Environments() []types.Environment {
	envs := make([]types.Environment, 0, len(r.networks))
	for env := range r.networks {
		envs = append(envs, env)
	}
	sort.Slice(envs, func(i, j int) bool { return envs[i] < envs[j] })
	return envs
}

// Tables returns the raw, unvalidated tables of env.
func (r *Registry) Tables(env types.Environment) (types.NetworkAddressSet, types.VaultAddressSet, error) {
	n, ok := r.networks[env]
	if !ok {
		return types.NetworkAddressSet{}, types.VaultAddressSet{}, fmt.Errorf("%w: %q", ErrUnknownEnvironment, env)
	}
	return n, r.vaults[env], nil
}

// Resolve validates the tables of env. The aggregator and the native asset must
// be published; any other placeholder entry is cleared and reported.
func (r *Registry) Resolve(env types.Environment) (Deployment, error) {
	n, v, err := r.Tables(env)
	if err != nil {
		return Deployment{}, err
	}
	if !IsPublished(n.Aggregator) {
		return Deployment{}, fmt.Errorf("%w: aggregator on %s", ErrAddressNotPublished, env)
	}
	if !IsPublished(n.NativeAsset) {
		return Deployment{}, fmt.Errorf("%w: native asset on %s", ErrAddressNotPublished, env)
	}

	d := Deployment{Environment: env, Endpoint: EndpointFor(env)}
	keep := func(name string, addr ledger.Address) ledger.Address {
		if IsPublished(addr) {
			return addr
		}
		d.Unpublished = append(d.Unpublished, name)
		return ""
	}
	d.Network = types.NetworkAddressSet{
		Aggregator:   n.Aggregator,
		VaultFactory: keep("vault_factory", n.VaultFactory),
		StableAsset:  keep("stable_asset", n.StableAsset),
		NativeAsset:  n.NativeAsset,
		RewardAsset:  keep("reward_asset", n.RewardAsset),
	}
	d.Vaults = types.VaultAddressSet{
		StableVault:     keep("stable_vault", v.StableVault),
		NativeVault:     keep("native_vault", v.NativeVault),
		RewardVault:     keep("reward_vault", v.RewardVault),
		MultiAssetVault: keep("multi_asset_vault", v.MultiAssetVault),
	}
	return d, nil
}

// addressOverride is one environment's entry in an override file.
type addressOverride struct {
	Network types.NetworkAddressSet `yaml:"network"`
	Vaults  types.VaultAddressSet   `yaml:"vaults"`
}

// LoadOverrides merges the YAML file at path into the registry. Only non-empty
// entries replace the built-in ones.
func (r *Registry) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read address overrides: %w", err)
	}
	return r.ApplyOverrides(data)
}

// ApplyOverrides merges a YAML document keyed by environment name.
func (r *Registry) ApplyOverrides(data []byte) error {
	var doc map[string]addressOverride
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse address overrides: %w", err)
	}
	for name, o := range doc {
		env, err := types.ParseEnvironment(name)
		if err != nil {
			return errors.Join(ErrUnknownEnvironment, err)
		}
		n, v := r.networks[env], r.vaults[env]
		override(&n.Aggregator, o.Network.Aggregator)
		override(&n.VaultFactory, o.Network.VaultFactory)
		override(&n.StableAsset, o.Network.StableAsset)
		override(&n.NativeAsset, o.Network.NativeAsset)
		override(&n.RewardAsset, o.Network.RewardAsset)
		override(&v.StableVault, o.Vaults.StableVault)
		override(&v.NativeVault, o.Vaults.NativeVault)
		override(&v.RewardVault, o.Vaults.RewardVault)
		override(&v.MultiAssetVault, o.Vaults.MultiAssetVault)
		r.networks[env], r.vaults[env] = n, v
	}
	return nil
}

func override(dst *ledger.Address, src ledger.Address) {
	if !src.IsZero() {
		*dst = src
	}
}
