package txbuilder

import (
	"context"
	"errors"
	"testing"

	"github.com/vaultmesh/vaultcore/internal/types"
)

type fakeUTXOAdapter struct {
	unspent []UTXOInput
	err     error
}

func (f fakeUTXOAdapter) ListUnspent(ctx context.Context, address string) ([]UTXOInput, error) {
	return f.unspent, f.err
}

func TestBuildSend_UTXO_SelectsGreatestFirst(t *testing.T) {
	adapters := Adapters{UTXO: fakeUTXOAdapter{unspent: []UTXOInput{
		{TxID: "a", Amount: 100_000},
		{TxID: "b", Amount: 50_000},
	}}}

	payload, err := BuildSend(context.Background(), adapters, SendRequest{
		Coin:     Coin{Chain: types.ChainBitcoin, Address: "bc1qsef7rshf0jwm53rnkttpry5rpveqcd6dyj6pn9"},
		Receiver: "bc1qsef7rshf0jwm53rnkttpry5rpveqcd6dyj6pn9",
		Amount:   "120000",
	})
	if err != nil {
		t.Fatalf("BuildSend: %v", err)
	}

	spec, ok := payload.BlockchainSpecific.(UTXOSpecific)
	if !ok {
		t.Fatalf("expected UTXOSpecific, got %T", payload.BlockchainSpecific)
	}
	if len(spec.Inputs) != 2 {
		t.Errorf("expected both unspents selected, got %d inputs", len(spec.Inputs))
	}
}

func TestBuildSend_UTXO_InsufficientFunds(t *testing.T) {
	adapters := Adapters{UTXO: fakeUTXOAdapter{unspent: []UTXOInput{{TxID: "a", Amount: 1000}}}}

	_, err := BuildSend(context.Background(), adapters, SendRequest{
		Coin:     Coin{Chain: types.ChainBitcoin, Address: "bc1qsef7rshf0jwm53rnkttpry5rpveqcd6dyj6pn9"},
		Receiver: "bc1qsef7rshf0jwm53rnkttpry5rpveqcd6dyj6pn9",
		Amount:   "120000",
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestBuildSend_UTXO_InvalidAddress(t *testing.T) {
	_, err := BuildSend(context.Background(), Adapters{}, SendRequest{
		Coin:     Coin{Chain: types.ChainBitcoin, Address: "bc1qsef7rshf0jwm53rnkttpry5rpveqcd6dyj6pn9"},
		Receiver: "not-a-bitcoin-address",
		Amount:   "1000",
	})
	if !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestBuildSend_UnsupportedChain(t *testing.T) {
	_, err := BuildSend(context.Background(), Adapters{}, SendRequest{
		Coin:     Coin{Chain: types.SupportedChain("not-a-chain"), Address: "x"},
		Receiver: "x",
		Amount:   "1",
	})
	if !errors.Is(err, ErrUnsupportedChain) {
		t.Fatalf("expected ErrUnsupportedChain, got %v", err)
	}
}
