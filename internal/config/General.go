package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/elys-network/yieldzap/internal/types"
)

const (
	EnvPrefix      = "YIELDZAP"
	ConfigFileName = ".yieldzap"
)

var (
	ErrNetworkRequired = errors.New("deployment environment is required: set YIELDZAP_NETWORK or network in .yieldzap.yaml")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

// AppConfig holds all application configuration. It is read from YIELDZAP_*
// environment variables and an optional .yieldzap.yaml file.
type AppConfig struct {
	// Network selects the deployment environment. There is no default.
	Network types.Environment

	LogLevel  string
	LogFormat string // "console" or "json"

	// DatabaseURL enables the Postgres journal when set.
	DatabaseURL string
	// HTTPAddr is the listen address of the read-only API.
	HTTPAddr string
	// AddressFile is an optional YAML file publishing missing addresses.
	AddressFile string

	Parameters Parameters
}

// Load reads configuration. configFile overrides the .yieldzap.yaml search.
func Load(configFile string) (*AppConfig, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("aggregator_approval_ticks", DefaultParameters.AggregatorApprovalTicks)
	v.SetDefault("vault_approval_ticks", DefaultParameters.VaultApprovalTicks)
	v.SetDefault("simulated_swap_rate_bps", DefaultParameters.SimulatedSwapRateBps)
	v.SetDefault("simulated_share_rate_bps", DefaultParameters.SimulatedShareRateBps)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	rawNetwork := v.GetString("network")
	cfg := &AppConfig{
		Network:     types.Environment(strings.ToLower(strings.TrimSpace(rawNetwork))),
		LogLevel:    v.GetString("log_level"),
		LogFormat:   v.GetString("log_format"),
		DatabaseURL: v.GetString("database_url"),
		HTTPAddr:    v.GetString("http_addr"),
		AddressFile: v.GetString("address_file"),
		Parameters: Parameters{
			AggregatorApprovalTicks: v.GetUint32("aggregator_approval_ticks"),
			VaultApprovalTicks:      v.GetUint32("vault_approval_ticks"),
			SimulatedSwapRateBps:    v.GetUint32("simulated_swap_rate_bps"),
			SimulatedShareRateBps:   v.GetUint32("simulated_share_rate_bps"),
		},
	}

	if err := validateAppConfig(cfg); err != nil {
		return nil, err
	}

	log.Debug().
		Str("network", string(cfg.Network)).
		Str("httpAddr", cfg.HTTPAddr).
		Bool("journal", cfg.DatabaseURL != "").
		Str("configFile", v.ConfigFileUsed()).
		Msg("Configuration loaded successfully.")
	return cfg, nil
}

// validateAppConfig validates the loaded configuration
func validateAppConfig(cfg *AppConfig) error {
	if cfg.Network == "" {
		return ErrNetworkRequired
	}
	if _, err := types.ParseEnvironment(string(cfg.Network)); err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}
	if cfg.LogFormat != "console" && cfg.LogFormat != "json" {
		return fmt.Errorf("%w: log format must be console or json, got %q", ErrInvalidConfig, cfg.LogFormat)
	}
	if cfg.Parameters.AggregatorApprovalTicks == 0 || cfg.Parameters.VaultApprovalTicks == 0 {
		return fmt.Errorf("%w: approval ticks must be positive", ErrInvalidConfig)
	}
	if cfg.Parameters.SimulatedSwapRateBps == 0 || cfg.Parameters.SimulatedShareRateBps == 0 {
		return fmt.Errorf("%w: simulated rates must be positive", ErrInvalidConfig)
	}
	return nil
}

// NewDeploymentRegistry builds the registry for cfg, applying its address file.
func NewDeploymentRegistry(cfg *AppConfig) (*Registry, error) {
	r := NewRegistry()
	if cfg.AddressFile != "" {
		if err := r.LoadOverrides(cfg.AddressFile); err != nil {
			return nil, err
		}
	}
	return r, nil
}
