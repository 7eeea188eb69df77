package txbuilder

import "context"

// UTXOAdapter is the minimal chain-RPC surface a UTXO send needs. SPEC_FULL.md
// §6 describes RPC adapters as one trait per chain family; this package only
// consumes them, it never implements one — that lives with the chain client.
type UTXOAdapter interface {
	ListUnspent(ctx context.Context, address string) ([]UTXOInput, error)
}

// EVMAdapter is the minimal chain-RPC surface an EVM send needs.
type EVMAdapter interface {
	Nonce(ctx context.Context, address string) (uint64, error)
	ChainID(ctx context.Context) (string, error)
	SuggestGasTipCap(ctx context.Context) (string, error) // wei, decimal string
	BaseFee(ctx context.Context) (string, error)           // wei, decimal string
}

// CosmosAdapter is the minimal chain-RPC surface a Cosmos send or SignAmino
// build needs.
type CosmosAdapter interface {
	AccountInfo(ctx context.Context, address string) (accountNumber, sequence uint64, err error)
}

// SolanaAdapter is the minimal chain-RPC surface a Solana send needs.
type SolanaAdapter interface {
	RecentBlockhash(ctx context.Context) (string, error)
}

// Adapters bundles the chain-family RPC surfaces a Builder may need. Callers
// only populate the adapter relevant to the chain they are building for;
// set SkipChainSpecificFetch on a request to bypass RPC entirely when the
// caller already has a fresh blob (e.g. from a prior quote).
type Adapters struct {
	UTXO    UTXOAdapter
	EVM     EVMAdapter
	Cosmos  CosmosAdapter
	Solana  SolanaAdapter
}
