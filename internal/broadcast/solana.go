package broadcast

import (
	"context"
	"fmt"

	"github.com/vaultmesh/vaultcore/internal/signing"
	"github.com/vaultmesh/vaultcore/internal/txbuilder"
)

// submitSolana prepends the session's signature to the compiled message
// bytes C5 built (the same bytes presign hashed) using Solana's wire
// format directly: a compact-u16 signature count, the signatures
// themselves, then the message. This bridge only ever assembles
// single-signer transactions, so the count is always the one-byte form.
func (b *Bridge) submitSolana(ctx context.Context, payload *txbuilder.KeysignPayload, sigs []signing.Signature) (string, error) {
	spec, ok := payload.BlockchainSpecific.(txbuilder.SolanaSpecific)
	if !ok {
		return "", fmt.Errorf("%w: expected SolanaSpecific, got %T", ErrValidationFailed, payload.BlockchainSpecific)
	}
	if len(sigs) != 1 {
		return "", fmt.Errorf("%w: Solana transactions take exactly one signature, got %d", ErrValidationFailed, len(sigs))
	}
	if b.adapters.Solana == nil {
		return "", fmt.Errorf("%w: SolanaBroadcaster", ErrUnsupportedChain)
	}
	if len(spec.MessageBytes) == 0 {
		return "", fmt.Errorf("%w: payload has no compiled message bytes", ErrValidationFailed)
	}

	raw, err := solanaEdDSASignatureBytes(sigs[0])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	rawTx := make([]byte, 0, 1+len(raw)+len(spec.MessageBytes))
	rawTx = append(rawTx, 0x01) // compact-u16 signature count
	rawTx = append(rawTx, raw...)
	rawTx = append(rawTx, spec.MessageBytes...)

	txSig, err := b.adapters.Solana.SendTransaction(ctx, rawTx)
	if err != nil {
		return "", &ErrBroadcastFailed{Detail: err.Error(), Transient: true}
	}
	return txSig, nil
}

// solanaEdDSASignatureBytes expects a 64-byte ed25519 signature packed
// entirely into R (S left empty), since MPCSigner returns scheme-agnostic
// Signature values and ed25519 has no separate R/S split to preserve.
func solanaEdDSASignatureBytes(sig signing.Signature) ([]byte, error) {
	if len(sig.R) != 64 {
		return nil, fmt.Errorf("expected a 64-byte ed25519 signature in R, got %d bytes", len(sig.R))
	}
	return sig.R, nil
}
