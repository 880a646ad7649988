package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/elys-network/yieldzap/internal/config"
	"github.com/elys-network/yieldzap/internal/logger"
)

var (
	configFile string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "yieldzap",
	Short: "Swap-then-deposit zaps into yield vaults",
	Long: `yieldzap inspects the zap deployment tables and runs the zap engine
against an in-process ledger with a simulated aggregator and vaults.

Examples:
  yieldzap networks
  yieldzap vaults stable
  yieldzap simulate --from native --to stable --amount 1000 --min-out 900
  yieldzap serve`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default is ./.yieldzap.yaml or $HOME/.yieldzap.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
}

// main is the entry point for the yieldzap CLI.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found. Relying on OS environment variables.")
	}

	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

// loadConfig reads the application configuration and initializes logging.
func loadConfig() (*config.AppConfig, *config.Registry, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	logger.InitializeWithWriter(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	registry, err := config.NewDeploymentRegistry(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, registry, nil
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "\nError: %v\n\n", err)
}
