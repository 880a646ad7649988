/*

This file contains the default parameters of the zap engine and of the
simulated aggregator and vault used by the localnet sandbox.

The simulated rates reproduce the integration fixtures: the aggregator
returns 95% of its input and the vault credits one share per two units.

*/

package config

// Parameters are the tunables resolved once at startup.
type Parameters struct {
	AggregatorApprovalTicks uint32 `json:"aggregator_approval_ticks"` // Allowance lifetime granted to the aggregator
	VaultApprovalTicks      uint32 `json:"vault_approval_ticks"`      // Allowance lifetime granted to the vault

	SimulatedSwapRateBps  uint32 `json:"simulated_swap_rate_bps"`  // Aggregator output per 10000 input
	SimulatedShareRateBps uint32 `json:"simulated_share_rate_bps"` // Vault shares per 10000 deposited
}

// DefaultParameters is used for every key left unset in configuration.
var DefaultParameters = Parameters{
	AggregatorApprovalTicks: 100,
	VaultApprovalTicks:      1000,

	SimulatedSwapRateBps:  9500,
	SimulatedShareRateBps: 5000,
}
