package txbuilder

import (
	"context"
	"fmt"
	"math/big"

	"github.com/vaultmesh/vaultcore/internal/chains"
)

// FeeSettings overrides the fee the builder would otherwise fetch or
// compute. A zero value means "ask the adapter / use the chain default".
type FeeSettings struct {
	// UTXO
	SatsPerVByte int64
	// EVM
	MaxFeePerGas         string
	MaxPriorityFeePerGas string
	GasPrice             string
	GasLimit             uint64
	// Solana
	PriorityFeeMicroLamports uint64
	ComputeUnitLimit         uint32
}

// SendRequest is the "send" intent from SPEC_FULL.md §4.5 (1): a native or
// token transfer of amount (base units) from Coin to Receiver.
type SendRequest struct {
	Coin                   Coin
	Receiver               string
	Amount                 string // base-unit decimal string
	Memo                   string
	FeeSettings            *FeeSettings
	SkipChainSpecificFetch bool
}

// BuildSend assembles a KeysignPayload for a native or token transfer. It
// validates the receiver before touching any adapter, then delegates to the
// per-format builder the chain's registry entry selects.
func BuildSend(ctx context.Context, adapters Adapters, req SendRequest) (*KeysignPayload, error) {
	entry, err := chains.Lookup(req.Coin.Chain)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedChain, err)
	}

	if err := validateReceiver(entry.TxFormat, req.Receiver); err != nil {
		return nil, err
	}

	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if ok && amount.Sign() < 0 {
		ok = false
	}
	if !ok {
		return nil, fmt.Errorf("%w: amount %q is not a non-negative base-unit integer", ErrInvalidConfig, req.Amount)
	}

	payload := &KeysignPayload{
		Coin:                req.Coin,
		ToAddress:           req.Receiver,
		ToAmount:            amount.String(),
		Memo:                req.Memo,
		VaultPublicKeyECDSA: req.Coin.HexPublicKey,
	}

	switch entry.TxFormat {
	case chains.TxFormatUTXO:
		if err := buildUTXOSend(ctx, adapters.UTXO, req, amount, payload); err != nil {
			return nil, err
		}
	case chains.TxFormatEVM:
		if err := buildEVMSend(ctx, adapters.EVM, entry, req, payload); err != nil {
			return nil, err
		}
	case chains.TxFormatCosmos:
		if err := buildCosmosSend(ctx, adapters.Cosmos, req, payload); err != nil {
			return nil, err
		}
	case chains.TxFormatSolana:
		if err := buildSolanaSend(ctx, adapters.Solana, req, payload); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: no send builder for format %s", ErrUnsupportedChain, entry.TxFormat)
	}

	return payload, nil
}
