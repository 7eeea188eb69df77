package broadcast

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/vaultmesh/vaultcore/internal/chains"
	"github.com/vaultmesh/vaultcore/internal/signing"
	"github.com/vaultmesh/vaultcore/internal/txbuilder"
)

// submitEVM rebuilds the same tx presign's evmDigests signed, checks that
// the signature's V is a 0/1 recovery id, attaches R, S and V via
// WithSignature (which does not check that they form a valid signature),
// RLP-encodes the result, and submits it.
func (b *Bridge) submitEVM(ctx context.Context, payload *txbuilder.KeysignPayload, sigs []signing.Signature) (string, error) {
	spec, ok := payload.BlockchainSpecific.(txbuilder.EVMSpecific)
	if !ok {
		return "", fmt.Errorf("%w: expected EVMSpecific, got %T", ErrValidationFailed, payload.BlockchainSpecific)
	}
	if len(sigs) != 1 {
		return "", fmt.Errorf("%w: EVM transactions take exactly one signature, got %d", ErrValidationFailed, len(sigs))
	}
	if b.adapters.EVM == nil {
		return "", fmt.Errorf("%w: EVMBroadcaster", ErrUnsupportedChain)
	}

	entry, err := chains.Lookup(payload.Coin.Chain)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedChain, err)
	}

	chainID, ok := new(big.Int).SetString(spec.ChainID, 10)
	if !ok {
		return "", fmt.Errorf("%w: chain id %q is not an integer", ErrValidationFailed, spec.ChainID)
	}
	amount, ok := new(big.Int).SetString(payload.ToAmount, 10)
	if !ok {
		return "", fmt.Errorf("%w: amount %q is not an integer", ErrValidationFailed, payload.ToAmount)
	}
	toAddr := common.HexToAddress(payload.ToAddress)

	var unsigned *types.Transaction
	var signer types.Signer
	switch entry.FeeModel {
	case chains.FeeModelEIP1559:
		feeCap, ok := new(big.Int).SetString(spec.MaxFeePerGas, 10)
		if !ok {
			return "", fmt.Errorf("%w: max fee per gas %q is not an integer", ErrValidationFailed, spec.MaxFeePerGas)
		}
		tipCap, ok := new(big.Int).SetString(spec.MaxPriorityFeePerGas, 10)
		if !ok {
			return "", fmt.Errorf("%w: max priority fee per gas %q is not an integer", ErrValidationFailed, spec.MaxPriorityFeePerGas)
		}
		unsigned = types.NewTx(&types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     spec.Nonce,
			GasTipCap: tipCap,
			GasFeeCap: feeCap,
			Gas:       spec.GasLimit,
			To:        &toAddr,
			Value:     amount,
			Data:      spec.Data,
		})
		signer = types.NewLondonSigner(chainID)
	default:
		gasPrice, ok := new(big.Int).SetString(spec.GasPrice, 10)
		if !ok {
			return "", fmt.Errorf("%w: gas price %q is not an integer", ErrValidationFailed, spec.GasPrice)
		}
		unsigned = types.NewTx(&types.LegacyTx{
			Nonce:    spec.Nonce,
			GasPrice: gasPrice,
			Gas:      spec.GasLimit,
			To:       &toAddr,
			Value:    amount,
			Data:     spec.Data,
		})
		signer = types.NewEIP155Signer(chainID)
	}

	rsv, err := evmSignatureBytes(sigs[0])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if rsv[64] > 1 {
		return "", fmt.Errorf("%w: signature recovery id %d is not 0 or 1", ErrValidationFailed, rsv[64])
	}
	signedTx, err := unsigned.WithSignature(signer, rsv)
	if err != nil {
		return "", fmt.Errorf("%w: applying signature: %v", ErrValidationFailed, err)
	}

	rawTx, err := signedTx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("%w: encoding signed transaction: %v", ErrValidationFailed, err)
	}

	txHash, err := b.adapters.EVM.SendRawTransaction(ctx, hexutil.Encode(rawTx))
	if err != nil {
		return "", &ErrBroadcastFailed{Detail: err.Error(), Transient: true}
	}
	return txHash, nil
}

// evmSignatureBytes packs R||S||V into the 65-byte form go-ethereum's
// Signer.SignatureValues expects from WithSignature.
func evmSignatureBytes(sig signing.Signature) ([]byte, error) {
	if len(sig.R) == 0 || len(sig.S) == 0 || len(sig.V) == 0 {
		return nil, fmt.Errorf("signature is missing R, S, or V")
	}
	out := make([]byte, 65)
	copy(out[32-len(sig.R):32], sig.R)
	copy(out[64-len(sig.S):64], sig.S)
	out[64] = sig.V[len(sig.V)-1]
	return out, nil
}
