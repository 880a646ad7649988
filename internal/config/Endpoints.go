package config

import (
	"github.com/elys-network/yieldzap/internal/types"
)

// Endpoint is the RPC entry point and network passphrase of one environment.
type Endpoint struct {
	RPCURL     string `json:"rpc_url"`
	Passphrase string `json:"passphrase"`
}

var endpointTables = map[types.Environment]Endpoint{
	types.Futurenet: {
		RPCURL:     "https://rpc-futurenet.stellar.org:443",
		Passphrase: "Test SDF Future Network ; October 2022",
	},
	types.Testnet: {
		RPCURL:     "https://soroban-testnet.stellar.org",
		Passphrase: "Test SDF Network ; September 2015",
	},
	types.Mainnet: {
		RPCURL:     "https://soroban-mainnet.stellar.org",
		Passphrase: "Public Global Stellar Network ; September 2015",
	},
	types.Localnet: {
		RPCURL:     "http://localhost:8000/soroban/rpc",
		Passphrase: "Standalone Network ; February 2017",
	},
}

// EndpointFor returns the built-in endpoint of env, or the zero value.
func EndpointFor(env types.Environment) Endpoint {
	return endpointTables[env]
}
