package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/elys-network/yieldzap/internal/config"
	"github.com/elys-network/yieldzap/internal/ledger"
)

var addressFile string

var networksCmd = &cobra.Command{
	Use:   "networks",
	Short: "List deployment environments and their address tables",
	Args:  cobra.NoArgs,
	RunE:  runNetworks,
}

var vaultsCmd = &cobra.Command{
	Use:   "vaults <asset>",
	Short: "List the vaults accepting an asset on the configured network",
	Long: `List the vaults accepting an asset on the configured network. The asset
is an address or one of the aliases stable, native and reward.`,
	Args: cobra.ExactArgs(1),
	RunE: runVaults,
}

func init() {
	rootCmd.AddCommand(networksCmd)
	rootCmd.AddCommand(vaultsCmd)

	networksCmd.Flags().StringVar(&addressFile, "addresses", "", "YAML file publishing missing addresses")
}

func runNetworks(cmd *cobra.Command, args []string) error {
	registry := config.NewRegistry()
	if addressFile != "" {
		if err := registry.LoadOverrides(addressFile); err != nil {
			return err
		}
	}

	type networkView struct {
		Deployment *config.Deployment `json:"deployment,omitempty"`
		Error      string             `json:"error,omitempty"`
	}
	views := make(map[string]networkView)

	for _, env := range registry.Environments() {
		d, err := registry.Resolve(env)
		if err != nil {
			views[string(env)] = networkView{Error: err.Error()}
			if !jsonOutput {
				fmt.Printf("%s %s\n  %s\n\n", color.RedString("✗"), color.New(color.Bold).Sprint(env), err)
			}
			continue
		}
		views[string(env)] = networkView{Deployment: &d}
		if !jsonOutput {
			printDeployment(d)
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}
	return nil
}

func printDeployment(d config.Deployment) {
	bold := color.New(color.Bold)
	fmt.Printf("%s %s  %s\n", color.GreenString("✓"), bold.Sprint(d.Environment), color.HiBlackString(d.Endpoint.RPCURL))
	rows := []struct {
		name string
		addr ledger.Address
	}{
		{"aggregator", d.Network.Aggregator},
		{"vault factory", d.Network.VaultFactory},
		{"stable asset", d.Network.StableAsset},
		{"native asset", d.Network.NativeAsset},
		{"reward asset", d.Network.RewardAsset},
		{"stable vault", d.Vaults.StableVault},
		{"native vault", d.Vaults.NativeVault},
		{"reward vault", d.Vaults.RewardVault},
		{"multi-asset vault", d.Vaults.MultiAssetVault},
	}
	for _, r := range rows {
		addr := r.addr.String()
		if addr == "" {
			addr = color.YellowString("unpublished")
		}
		fmt.Printf("  %-18s %s\n", r.name, addr)
	}
	if len(d.Unpublished) > 0 {
		fmt.Printf("  %s %s\n", color.YellowString("missing:"), strings.Join(d.Unpublished, ", "))
	}
	fmt.Println()
}

func runVaults(cmd *cobra.Command, args []string) error {
	cfg, registry, err := loadConfig()
	if err != nil {
		return err
	}
	d, err := registry.Resolve(cfg.Network)
	if err != nil {
		return err
	}
	asset, err := resolveAsset(d, args[0])
	if err != nil {
		return err
	}

	vaults := d.AvailableVaults(asset)
	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{"asset": asset, "vaults": vaults})
	}
	if len(vaults) == 0 {
		fmt.Println(color.YellowString("No vaults accept %s on %s", asset, d.Environment))
		return nil
	}
	for _, v := range vaults {
		fmt.Println(v)
	}
	return nil
}

// resolveAsset maps the stable, native and reward aliases to d's addresses.
func resolveAsset(d config.Deployment, s string) (ledger.Address, error) {
	var addr ledger.Address
	switch strings.ToLower(s) {
	case "stable":
		addr = d.Network.StableAsset
	case "native":
		addr = d.Network.NativeAsset
	case "reward":
		addr = d.Network.RewardAsset
	default:
		addr = ledger.Address(s)
	}
	if addr.IsZero() {
		return "", fmt.Errorf("%w: %s on %s", config.ErrAddressNotPublished, s, d.Environment)
	}
	return addr, nil
}
