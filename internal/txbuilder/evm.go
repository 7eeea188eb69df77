package txbuilder

import (
	"context"
	"fmt"
	"math/big"

	"github.com/vaultmesh/vaultcore/internal/chains"
)

const defaultNativeTransferGas = 21000

func buildEVMSend(ctx context.Context, adapter EVMAdapter, entry chains.Entry, req SendRequest, payload *KeysignPayload) error {
	if req.SkipChainSpecificFetch && req.FeeSettings == nil {
		return fmt.Errorf("%w: EVM send needs FeeSettings when skipping chain-specific fetch", ErrInvalidConfig)
	}
	if adapter == nil && !req.SkipChainSpecificFetch {
		return fmt.Errorf("%w: no EVM adapter configured", ErrRPCUnavailable)
	}

	var nonce uint64
	var chainID string
	var err error
	if !req.SkipChainSpecificFetch {
		nonce, err = adapter.Nonce(ctx, req.Coin.Address)
		if err != nil {
			return fmt.Errorf("%w: fetching nonce: %v", ErrRPCUnavailable, err)
		}
		chainID, err = adapter.ChainID(ctx)
		if err != nil {
			return fmt.Errorf("%w: fetching chain id: %v", ErrRPCUnavailable, err)
		}
	}

	gasLimit := uint64(defaultNativeTransferGas)
	if req.FeeSettings != nil && req.FeeSettings.GasLimit > 0 {
		gasLimit = req.FeeSettings.GasLimit
	}

	spec := EVMSpecific{
		Nonce:    nonce,
		ChainID:  chainID,
		GasLimit: gasLimit,
	}

	switch entry.FeeModel {
	case chains.FeeModelEIP1559:
		if req.FeeSettings != nil && req.FeeSettings.MaxFeePerGas != "" {
			spec.MaxFeePerGas = req.FeeSettings.MaxFeePerGas
			spec.MaxPriorityFeePerGas = req.FeeSettings.MaxPriorityFeePerGas
			break
		}
		tipCap, err := adapter.SuggestGasTipCap(ctx)
		if err != nil {
			return fmt.Errorf("%w: fetching priority fee suggestion: %v", ErrRPCUnavailable, err)
		}
		baseFee, err := adapter.BaseFee(ctx)
		if err != nil {
			return fmt.Errorf("%w: fetching base fee: %v", ErrRPCUnavailable, err)
		}
		tip, ok := new(big.Int).SetString(tipCap, 10)
		if !ok {
			return fmt.Errorf("%w: adapter returned non-numeric tip cap %q", ErrBuildFailed, tipCap)
		}
		base, ok := new(big.Int).SetString(baseFee, 10)
		if !ok {
			return fmt.Errorf("%w: adapter returned non-numeric base fee %q", ErrBuildFailed, baseFee)
		}
		// feeCap = baseFee*2 + tipCap, per SPEC_FULL.md §4.5's EVM
		// edge-case policy: headroom for the base fee to double once.
		feeCap := new(big.Int).Add(new(big.Int).Mul(base, big.NewInt(2)), tip)
		spec.MaxFeePerGas = feeCap.String()
		spec.MaxPriorityFeePerGas = tip.String()
	default: // FeeModelGasLegacy and anything else EVM-shaped falls back to gasPrice
		if req.FeeSettings != nil && req.FeeSettings.GasPrice != "" {
			spec.GasPrice = req.FeeSettings.GasPrice
			break
		}
		price, err := adapter.SuggestGasTipCap(ctx) // legacy chains' adapters return gas price here
		if err != nil {
			return fmt.Errorf("%w: fetching gas price: %v", ErrRPCUnavailable, err)
		}
		spec.GasPrice = price
	}

	payload.BlockchainSpecific = spec
	return nil
}
