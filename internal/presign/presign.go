// Package presign derives the message digests a KeysignPayload must be
// signed over. The order and count of digests this package returns must
// exactly match the order C7 returns signatures in, so C8 can pair them.
package presign

import (
	"errors"
	"fmt"

	"github.com/vaultmesh/vaultcore/internal/chains"
	"github.com/vaultmesh/vaultcore/internal/txbuilder"
)

// ErrHashExtractionFailed wraps any failure turning a payload into digests;
// per SPEC_FULL.md §7 this is fatal for the signing session that called it.
var ErrHashExtractionFailed = errors.New("presign: hash extraction failed")

// Digests returns the ordered, hex-encoded message digests payload must be
// signed over, resolving the chain's tx format from its registry entry.
func Digests(payload *txbuilder.KeysignPayload) ([]string, error) {
	entry, err := chains.Lookup(payload.Coin.Chain)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHashExtractionFailed, err)
	}

	switch entry.TxFormat {
	case chains.TxFormatUTXO:
		return utxoDigests(payload)
	case chains.TxFormatEVM:
		return evmDigests(payload)
	case chains.TxFormatCosmos:
		return cosmosDigests(payload)
	case chains.TxFormatSolana:
		return solanaDigests(payload)
	default:
		return nil, fmt.Errorf("%w: no digest extractor for format %s", ErrHashExtractionFailed, entry.TxFormat)
	}
}
