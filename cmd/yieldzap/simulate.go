package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/elys-network/yieldzap/internal/ledger"
	"github.com/elys-network/yieldzap/internal/simulations"
	"github.com/elys-network/yieldzap/internal/types"
	"github.com/elys-network/yieldzap/internal/utils"
)

const simulatedCaller ledger.Address = "GSIMULATEDCALLERAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

var (
	simFrom     string
	simTo       string
	simVault    string
	simAmount   string
	simMinOut   string
	simDecimals int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one zap against a simulated deployment of the configured network",
	Long: `Run one zap against an in-process ledger loaded with the configured
network's address table, a simulated aggregator and simulated vaults.

Examples:
  yieldzap simulate --from stable --to stable --amount 1000
  yieldzap simulate --from native --to stable --amount 1000 --min-out 900`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVar(&simFrom, "from", "native", "Input asset address or alias")
	simulateCmd.Flags().StringVar(&simTo, "to", "stable", "Vault asset address or alias")
	simulateCmd.Flags().StringVar(&simVault, "vault", "", "Target vault (default is the first vault accepting --to)")
	simulateCmd.Flags().StringVar(&simAmount, "amount", "1000", "Input amount in base units")
	simulateCmd.Flags().StringVar(&simMinOut, "min-out", "0", "Minimum vault asset amount after the swap")
	simulateCmd.Flags().IntVar(&simDecimals, "decimals", 0, "Decimals of --amount and --min-out (0 means base units)")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, registry, err := loadConfig()
	if err != nil {
		return err
	}
	d, err := registry.Resolve(cfg.Network)
	if err != nil {
		return err
	}

	from, err := resolveAsset(d, simFrom)
	if err != nil {
		return err
	}
	to, err := resolveAsset(d, simTo)
	if err != nil {
		return err
	}
	amountIn, err := utils.ParseAmount(simAmount, simDecimals)
	if err != nil {
		return fmt.Errorf("invalid --amount: %w", err)
	}
	minOut, err := utils.ParseAmount(simMinOut, simDecimals)
	if err != nil {
		return fmt.Errorf("invalid --min-out: %w", err)
	}
	vault := ledger.Address(simVault)
	if vault.IsZero() {
		available := d.AvailableVaults(to)
		if len(available) == 0 {
			return fmt.Errorf("no vault accepts %s on %s", to, d.Environment)
		}
		vault = available[0]
	}

	sb, err := simulations.NewSandbox(simulations.SandboxConfig{Deployment: d, Parameters: cfg.Parameters})
	if err != nil {
		return err
	}
	if err := sb.Fund(from, simulatedCaller, amountIn); err != nil {
		return err
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Running zap..."
		s.Start()
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	result, err := sb.Zap(ctx, types.ZapParams{
		Caller:       simulatedCaller,
		FromAsset:    from,
		AmountIn:     amountIn,
		ToAsset:      to,
		Vault:        vault,
		MinAmountOut: minOut,
	})
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("\n%s Zap completed on %s\n\n", color.GreenString("✓"), color.New(color.Bold).Sprint(d.Environment))
	fmt.Printf("  %-10s %s %s\n", "input", display(amountIn), from)
	fmt.Printf("  %-10s %s %s\n", "swapped", color.CyanString(display(result.AmountSwapped)), to)
	fmt.Printf("  %-10s %s\n", "vault", result.VaultAddress)
	fmt.Printf("  %-10s %s\n\n", "shares", color.CyanString(display(result.VaultShares)))
	return nil
}

func display(amount sdkmath.Int) string {
	s, err := utils.FormatAmount(amount, simDecimals)
	if err != nil {
		return amount.String()
	}
	return s
}
