package presign

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/vaultmesh/vaultcore/internal/txbuilder"
)

// solanaDigests hashes the already-compiled message bytes C5 produced when
// building the send; the digest is SHA-256 of the whole compiled message
// (header, account keys, recent blockhash and instructions).
func solanaDigests(payload *txbuilder.KeysignPayload) ([]string, error) {
	spec, ok := payload.BlockchainSpecific.(txbuilder.SolanaSpecific)
	if !ok {
		return nil, fmt.Errorf("%w: expected SolanaSpecific, got %T", ErrHashExtractionFailed, payload.BlockchainSpecific)
	}
	if len(spec.MessageBytes) == 0 {
		return nil, fmt.Errorf("%w: payload has no compiled message bytes", ErrHashExtractionFailed)
	}
	digest := sha256.Sum256(spec.MessageBytes)
	return []string{hex.EncodeToString(digest[:])}, nil
}
