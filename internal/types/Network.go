/*

This file contains the per-environment address tables: the deployment
configuration registry and the vault directory.

*/

package types

import (
	"fmt"
	"strings"

	"github.com/elys-network/yieldzap/internal/ledger"
)

// Environment is a named deployment target with its own address table.
type Environment string

const (
	Futurenet Environment = "futurenet"
	Testnet   Environment = "testnet"
	Mainnet   Environment = "mainnet"
	Localnet  Environment = "localnet"
)

// Environments lists every known deployment target.
var Environments = []Environment{Futurenet, Testnet, Mainnet, Localnet}

// ParseEnvironment validates a textual environment tag.
func ParseEnvironment(s string) (Environment, error) {
	env := Environment(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Environments {
		if env == known {
			return env, nil
		}
	}
	return "", fmt.Errorf("unknown deployment environment %q", s)
}

// NetworkAddressSet holds the fixed addresses of one environment.
type NetworkAddressSet struct {
	Aggregator   ledger.Address `json:"aggregator" yaml:"aggregator"`       // Swap-routing aggregator
	VaultFactory ledger.Address `json:"vault_factory" yaml:"vault_factory"` // Vault factory
	StableAsset  ledger.Address `json:"stable_asset" yaml:"stable_asset"`   // e.g. USDC
	NativeAsset  ledger.Address `json:"native_asset" yaml:"native_asset"`   // e.g. XLM
	RewardAsset  ledger.Address `json:"reward_asset" yaml:"reward_asset"`   // e.g. AQUA
}

// VaultAddressSet holds the known vaults of one environment.
type VaultAddressSet struct {
	StableVault     ledger.Address `json:"stable_vault" yaml:"stable_vault"`
	NativeVault     ledger.Address `json:"native_vault" yaml:"native_vault"`
	RewardVault     ledger.Address `json:"reward_vault" yaml:"reward_vault"`
	MultiAssetVault ledger.Address `json:"multi_asset_vault" yaml:"multi_asset_vault"` // Accepts multiple assets
}

// AvailableVaults returns the vaults accepting asset: every dedicated vault
// whose asset role matches, in stable, native, reward order, followed by the
// multi-asset vault.
func AvailableVaults(n NetworkAddressSet, v VaultAddressSet, asset ledger.Address) []ledger.Address {
	vaults := make([]ledger.Address, 0, 4)
	roles := []struct {
		asset, vault ledger.Address
	}{
		{n.StableAsset, v.StableVault},
		{n.NativeAsset, v.NativeVault},
		{n.RewardAsset, v.RewardVault},
	}
	for _, r := range roles {
		if !asset.IsZero() && asset == r.asset && !r.vault.IsZero() {
			vaults = append(vaults, r.vault)
		}
	}
	if !v.MultiAssetVault.IsZero() {
		vaults = append(vaults, v.MultiAssetVault)
	}
	return vaults
}
