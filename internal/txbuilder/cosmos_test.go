package txbuilder

import (
	"context"
	"errors"
	"testing"

	"github.com/vaultmesh/vaultcore/internal/types"
)

type fakeCosmosAdapter struct {
	accountNumber, sequence uint64
}

func (f fakeCosmosAdapter) AccountInfo(ctx context.Context, address string) (uint64, uint64, error) {
	return f.accountNumber, f.sequence, nil
}

func TestBuildSignAmino_RejectsNonCosmosChain(t *testing.T) {
	_, err := BuildSignAmino(context.Background(), nil, SignAminoRequest{
		Chain: Coin{Chain: types.ChainBitcoin},
	})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestBuildSignAmino_FetchesAccountState(t *testing.T) {
	adapter := fakeCosmosAdapter{accountNumber: 12345, sequence: 7}

	payload, err := BuildSignAmino(context.Background(), adapter, SignAminoRequest{
		Chain: Coin{Chain: types.ChainThorChain, Address: "thor1..."},
		Msgs: []AminoMsg{{
			Type:  "cosmos-sdk/MsgVote",
			Value: []byte(`{"proposal_id":"1"}`),
		}},
		Fee: AminoFee{Amount: []AminoCoin{{Denom: "rune", Amount: "5000"}}, Gas: "200000"},
	})
	if err != nil {
		t.Fatalf("BuildSignAmino: %v", err)
	}

	spec, ok := payload.BlockchainSpecific.(CosmosSpecific)
	if !ok {
		t.Fatalf("expected CosmosSpecific, got %T", payload.BlockchainSpecific)
	}
	if spec.AccountNumber != 12345 || spec.Sequence != 7 {
		t.Errorf("expected account state from adapter, got %+v", spec)
	}

	signData, ok := payload.SignData.(SignAmino)
	if !ok {
		t.Fatalf("expected SignAmino, got %T", payload.SignData)
	}
	if len(signData.Msgs) != 1 || signData.Msgs[0].Type != "cosmos-sdk/MsgVote" {
		t.Errorf("unexpected msgs: %+v", signData.Msgs)
	}
}

func TestBuildCosmWasmExecute_WrapsSignAmino(t *testing.T) {
	adapter := fakeCosmosAdapter{accountNumber: 1, sequence: 1}

	payload, err := BuildCosmWasmExecute(context.Background(), adapter,
		Coin{Chain: types.ChainThorChain, Address: "thor1sender"},
		"thor1contract",
		map[string]interface{}{"swap": map[string]string{"to": "BTC.BTC"}},
		nil,
		AminoFee{Gas: "200000"},
		"",
	)
	if err != nil {
		t.Fatalf("BuildCosmWasmExecute: %v", err)
	}

	signData := payload.SignData.(SignAmino)
	if signData.Msgs[0].Type != "wasm/MsgExecuteContract" {
		t.Errorf("expected wasm/MsgExecuteContract, got %s", signData.Msgs[0].Type)
	}
}
