// Package broadcast assembles a signed KeysignPayload into chain-native
// wire bytes and submits it through a per-chain-family adapter, matching
// the BroadcastAdapter name each chains.Entry carries (UTXOBroadcaster,
// EVMBroadcaster, CosmosBroadcaster, SolanaBroadcaster).
package broadcast

import (
	"context"
	"errors"
	"fmt"

	"github.com/vaultmesh/vaultcore/internal/chains"
	"github.com/vaultmesh/vaultcore/internal/events"
	"github.com/vaultmesh/vaultcore/internal/signing"
	"github.com/vaultmesh/vaultcore/internal/txbuilder"
)

// ErrBroadcastFailed reports a submission failure; Transient indicates the
// caller may retry as-is (e.g. a node timeout) versus needing to rebuild
// the transaction (e.g. a stale nonce or already-spent input).
type ErrBroadcastFailed struct {
	Detail    string
	Transient bool
}

func (e *ErrBroadcastFailed) Error() string {
	return fmt.Sprintf("broadcast: %s (transient=%v)", e.Detail, e.Transient)
}

var (
	ErrValidationFailed = errors.New("broadcast: assembled transaction failed local validity check")
	ErrUnsupportedChain = errors.New("broadcast: no broadcaster registered for this chain's tx format")
)

// UTXOBroadcaster submits a fully-witnessed raw transaction to a UTXO node
// or indexer and returns its txid.
type UTXOBroadcaster interface {
	BroadcastRawTx(ctx context.Context, rawTxHex string) (txHash string, err error)
}

// EVMBroadcaster submits a raw signed transaction to an EVM node.
type EVMBroadcaster interface {
	SendRawTransaction(ctx context.Context, rawTxHex string) (txHash string, err error)
}

// CosmosBroadcaster submits a signed TxRaw protobuf message to a
// Cosmos-SDK node's broadcast endpoint.
type CosmosBroadcaster interface {
	BroadcastTx(ctx context.Context, txBytes []byte) (txHash string, err error)
}

// SolanaBroadcaster submits a fully-signed transaction to a Solana RPC node.
type SolanaBroadcaster interface {
	SendTransaction(ctx context.Context, rawTx []byte) (signature string, err error)
}

// Adapters bundles the broadcaster interfaces a Bridge may call. Only the
// adapter matching the transaction's chain family needs to be set.
type Adapters struct {
	UTXO   UTXOBroadcaster
	EVM    EVMBroadcaster
	Cosmos CosmosBroadcaster
	Solana SolanaBroadcaster
}

// Bridge combines a signed payload into wire bytes, validates it locally,
// submits it, and publishes an events.Broadcast on success.
type Bridge struct {
	adapters Adapters
	bus      *events.Bus
}

// New creates a Bridge. bus may be nil to disable event publication.
func New(adapters Adapters, bus *events.Bus) *Bridge {
	if bus == nil {
		bus = events.New()
	}
	return &Bridge{adapters: adapters, bus: bus}
}

// Submit assembles payload and sigs (one signature per presign.Digests
// entry, in the same order) into a chain-native transaction, validates it,
// submits it through the matching adapter, and returns its hash plus
// explorer URL.
func (b *Bridge) Submit(ctx context.Context, payload *txbuilder.KeysignPayload, sigs []signing.Signature) (txHash, explorerURL string, err error) {
	entry, err := chains.Lookup(payload.Coin.Chain)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrUnsupportedChain, err)
	}

	switch entry.TxFormat {
	case chains.TxFormatUTXO:
		txHash, err = b.submitUTXO(ctx, payload, sigs)
	case chains.TxFormatEVM:
		txHash, err = b.submitEVM(ctx, payload, sigs)
	case chains.TxFormatCosmos:
		txHash, err = b.submitCosmos(ctx, payload, sigs)
	case chains.TxFormatSolana:
		txHash, err = b.submitSolana(ctx, payload, sigs)
	default:
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedChain, entry.TxFormat)
	}
	if err != nil {
		return "", "", err
	}

	b.bus.Publish(events.Broadcast{Chain: string(entry.ID), TxHash: txHash})

	url, urlErr := chains.ExplorerURL(payload.Coin.Chain, txHash)
	if urlErr != nil {
		url = ""
	}
	return txHash, url, nil
}
