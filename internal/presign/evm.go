package presign

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/vaultmesh/vaultcore/internal/txbuilder"
)

// evmDigests returns the single RLP-derived sighash an EVM transaction
// signs over: EIP-1559 (types.DynamicFeeTx) when the payload carries a fee
// cap, legacy (types.LegacyTx) when it carries a gas price instead.
func evmDigests(payload *txbuilder.KeysignPayload) ([]string, error) {
	spec, ok := payload.BlockchainSpecific.(txbuilder.EVMSpecific)
	if !ok {
		return nil, fmt.Errorf("%w: expected EVMSpecific, got %T", ErrHashExtractionFailed, payload.BlockchainSpecific)
	}

	chainID, ok := new(big.Int).SetString(spec.ChainID, 10)
	if !ok {
		return nil, fmt.Errorf("%w: chain id %q is not an integer", ErrHashExtractionFailed, spec.ChainID)
	}
	amount, ok := new(big.Int).SetString(payload.ToAmount, 10)
	if !ok {
		return nil, fmt.Errorf("%w: amount %q is not an integer", ErrHashExtractionFailed, payload.ToAmount)
	}
	if !common.IsHexAddress(payload.ToAddress) {
		return nil, fmt.Errorf("%w: invalid receiver address %q", ErrHashExtractionFailed, payload.ToAddress)
	}
	to := common.HexToAddress(payload.ToAddress)

	var tx *types.Transaction
	var signer types.Signer
	if spec.MaxFeePerGas != "" {
		feeCap, ok := new(big.Int).SetString(spec.MaxFeePerGas, 10)
		if !ok {
			return nil, fmt.Errorf("%w: maxFeePerGas %q is not an integer", ErrHashExtractionFailed, spec.MaxFeePerGas)
		}
		tipCap, ok := new(big.Int).SetString(spec.MaxPriorityFeePerGas, 10)
		if !ok {
			return nil, fmt.Errorf("%w: maxPriorityFeePerGas %q is not an integer", ErrHashExtractionFailed, spec.MaxPriorityFeePerGas)
		}
		tx = types.NewTx(&types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     spec.Nonce,
			GasTipCap: tipCap,
			GasFeeCap: feeCap,
			Gas:       spec.GasLimit,
			To:        &to,
			Value:     amount,
			Data:      spec.Data,
		})
		signer = types.NewLondonSigner(chainID)
	} else {
		gasPrice, ok := new(big.Int).SetString(spec.GasPrice, 10)
		if !ok {
			return nil, fmt.Errorf("%w: gasPrice %q is not an integer", ErrHashExtractionFailed, spec.GasPrice)
		}
		tx = types.NewTx(&types.LegacyTx{
			Nonce:    spec.Nonce,
			GasPrice: gasPrice,
			Gas:      spec.GasLimit,
			To:       &to,
			Value:    amount,
			Data:     spec.Data,
		})
		signer = types.NewEIP155Signer(chainID)
	}

	digest := signer.Hash(tx)
	return []string{hex.EncodeToString(digest[:])}, nil
}
