package zap

import (
	"context"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/yieldzap/internal/abi"
	"github.com/elys-network/yieldzap/internal/ledger"
	"github.com/elys-network/yieldzap/internal/types"
)

// Executor submits one unit of execution to the ledger. *ledger.Host satisfies it.
type Executor interface {
	Invoke(ctx context.Context, target ledger.Address, method string, args []ledger.Val, auths ...ledger.Authorization) (ledger.Val, error)
}

// Client is a typed caller for a deployed zap contract.
type Client struct {
	exec     Executor
	contract ledger.Address
}

func NewClient(exec Executor, contract ledger.Address) *Client {
	return &Client{exec: exec, contract: contract}
}

// Address returns the zap contract address the client targets.
func (c *Client) Address() ledger.Address { return c.contract }

func (c *Client) ZapAndDeposit(ctx context.Context, p types.ZapParams, auths ...ledger.Authorization) (types.ZapResult, error) {
	raw, err := c.exec.Invoke(ctx, c.contract, abi.MethodZapAndDeposit, abi.EncodeZapParams(p), auths...)
	if err != nil {
		return types.ZapResult{}, err
	}
	return abi.DecodeZapResult(raw)
}

func (c *Client) GetSwapQuote(ctx context.Context, tokenIn, tokenOut ledger.Address, amountIn sdkmath.Int, route types.Route) (sdkmath.Int, error) {
	raw, err := c.exec.Invoke(ctx, c.contract, abi.MethodGetSwapQuote, abi.EncodeQuoteArgs(tokenIn, tokenOut, amountIn, route))
	if err != nil {
		return sdkmath.Int{}, err
	}
	return abi.DecodeI128(raw)
}

func (c *Client) GetVaultInfo(ctx context.Context, vault ledger.Address) ([]ledger.Val, error) {
	raw, err := c.exec.Invoke(ctx, c.contract, abi.MethodGetVaultInfo, []ledger.Val{ledger.AddressVal(vault)})
	if err != nil {
		return nil, err
	}
	return abi.DecodeRecords(raw)
}

func (c *Client) PreviewVaultDeposit(ctx context.Context, vault ledger.Address, amount sdkmath.Int) (sdkmath.Int, error) {
	raw, err := c.exec.Invoke(ctx, c.contract, abi.MethodPreviewVaultDeposit, []ledger.Val{ledger.AddressVal(vault), ledger.I128(amount)})
	if err != nil {
		return sdkmath.Int{}, err
	}
	return abi.DecodeI128(raw)
}

func (c *Client) GetAvailableVaults(ctx context.Context, asset ledger.Address) ([]ledger.Address, error) {
	raw, err := c.exec.Invoke(ctx, c.contract, abi.MethodGetAvailableVaults, []ledger.Val{ledger.AddressVal(asset)})
	if err != nil {
		return nil, err
	}
	return abi.DecodeAddresses(raw)
}

func (c *Client) Initialize(ctx context.Context, admin ledger.Address, auths ...ledger.Authorization) error {
	_, err := c.exec.Invoke(ctx, c.contract, abi.MethodInitialize, initializeArgs(admin), auths...)
	return err
}

func (c *Client) EmergencyWithdraw(ctx context.Context, admin, token ledger.Address, amount sdkmath.Int, to ledger.Address, auths ...ledger.Authorization) error {
	_, err := c.exec.Invoke(ctx, c.contract, abi.MethodEmergencyWithdraw, emergencyWithdrawArgs(admin, token, amount, to), auths...)
	return err
}

func (c *Client) GetAdmin(ctx context.Context) (ledger.Address, error) {
	raw, err := c.exec.Invoke(ctx, c.contract, abi.MethodGetAdmin, nil)
	if err != nil {
		return "", err
	}
	return abi.DecodeAddress(raw)
}

// ZapAuthorization is the entry caller signs for zap_and_deposit: the root
// call with its exact arguments plus the pull-in transfer into custody.
func (c *Client) ZapAuthorization(p types.ZapParams) ledger.Authorization {
	return ledger.Authorization{
		Address: p.Caller,
		Root: ledger.Invocation{
			Contract: c.contract,
			Method:   abi.MethodZapAndDeposit,
			Args:     abi.EncodeZapParams(p),
		},
		SubInvocations: []ledger.Invocation{{
			Contract: p.FromAsset,
			Method:   ledger.TokenTransfer,
			Args: []ledger.Val{
				ledger.AddressVal(p.Caller),
				ledger.AddressVal(c.contract),
				ledger.I128(p.AmountIn),
			},
		}},
	}
}

// InitializeAuthorization is the entry admin signs for initialize.
func (c *Client) InitializeAuthorization(admin ledger.Address) ledger.Authorization {
	return ledger.Authorization{
		Address: admin,
		Root:    ledger.Invocation{Contract: c.contract, Method: abi.MethodInitialize, Args: initializeArgs(admin)},
	}
}

// EmergencyWithdrawAuthorization is the entry signer signs for emergency_withdraw.
func (c *Client) EmergencyWithdrawAuthorization(signer, admin, token ledger.Address, amount sdkmath.Int, to ledger.Address) ledger.Authorization {
	return ledger.Authorization{
		Address: signer,
		Root: ledger.Invocation{
			Contract: c.contract,
			Method:   abi.MethodEmergencyWithdraw,
			Args:     emergencyWithdrawArgs(admin, token, amount, to),
		},
	}
}

func initializeArgs(admin ledger.Address) []ledger.Val {
	return []ledger.Val{ledger.AddressVal(admin)}
}

func emergencyWithdrawArgs(admin, token ledger.Address, amount sdkmath.Int, to ledger.Address) []ledger.Val {
	return []ledger.Val{ledger.AddressVal(admin), ledger.AddressVal(token), ledger.I128(amount), ledger.AddressVal(to)}
}
