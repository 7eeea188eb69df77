package presign

import (
	"testing"

	"github.com/vaultmesh/vaultcore/internal/txbuilder"
	"github.com/vaultmesh/vaultcore/internal/types"
)

func TestDigests_UTXO_OnePerInput(t *testing.T) {
	payload := &txbuilder.KeysignPayload{
		Coin:      txbuilder.Coin{Chain: types.ChainBitcoin, Address: "bc1qsef7rshf0jwm53rnkttpry5rpveqcd6dyj6pn9"},
		ToAddress: "bc1qsef7rshf0jwm53rnkttpry5rpveqcd6dyj6pn9",
		ToAmount:  "120000",
		BlockchainSpecific: txbuilder.UTXOSpecific{
			Inputs: []txbuilder.UTXOInput{
				{TxID: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Vout: 0, Amount: 100000, ScriptPubKey: mustP2WPKHScript()},
				{TxID: "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", Vout: 1, Amount: 50000, ScriptPubKey: mustP2WPKHScript()},
			},
			FeeRate: 10,
		},
	}

	digests, err := Digests(payload)
	if err != nil {
		t.Fatalf("Digests: %v", err)
	}
	if len(digests) != 2 {
		t.Fatalf("expected 2 digests (one per input), got %d", len(digests))
	}
	if digests[0] == digests[1] {
		t.Error("expected distinct digests for distinct inputs")
	}
}

func mustP2WPKHScript() []byte {
	hash := make([]byte, 20)
	return append([]byte{0x00, 0x14}, hash...)
}

func TestDigests_EVM_ReturnsOneDigest(t *testing.T) {
	payload := &txbuilder.KeysignPayload{
		Coin:      txbuilder.Coin{Chain: types.ChainEthereum},
		ToAddress: "0x8c4E1C2D3b9F88bBa6162F6Bd8dB05840Ca24F8c",
		ToAmount:  "1000000000000000000",
		BlockchainSpecific: txbuilder.EVMSpecific{
			Nonce:                1,
			ChainID:              "1",
			GasLimit:             21000,
			MaxFeePerGas:         "30000000000",
			MaxPriorityFeePerGas: "1000000000",
		},
	}

	digests, err := Digests(payload)
	if err != nil {
		t.Fatalf("Digests: %v", err)
	}
	if len(digests) != 1 {
		t.Fatalf("expected 1 digest, got %d", len(digests))
	}
	if len(digests[0]) != 64 {
		t.Errorf("expected 32-byte hex digest, got %d chars", len(digests[0]))
	}
}

func TestDigests_CosmosAmino_Deterministic(t *testing.T) {
	payload := &txbuilder.KeysignPayload{
		Coin:               txbuilder.Coin{Chain: types.ChainThorChain},
		BlockchainSpecific: txbuilder.CosmosSpecific{AccountNumber: 12345, Sequence: 7},
		SignData: txbuilder.SignAmino{
			Msgs: []txbuilder.AminoMsg{{Type: "cosmos-sdk/MsgVote", Value: []byte(`{"proposal_id":"1"}`)}},
			Fee:  txbuilder.AminoFee{Amount: []txbuilder.AminoCoin{{Denom: "uatom", Amount: "5000"}}, Gas: "200000"},
		},
	}

	d1, err := Digests(payload)
	if err != nil {
		t.Fatalf("Digests: %v", err)
	}
	d2, err := Digests(payload)
	if err != nil {
		t.Fatalf("Digests: %v", err)
	}
	if d1[0] != d2[0] {
		t.Error("expected identical digests for identical signdoc input")
	}
}

func TestDigests_Solana_HashesMessageBytes(t *testing.T) {
	payload := &txbuilder.KeysignPayload{
		Coin:               txbuilder.Coin{Chain: types.ChainSolana},
		BlockchainSpecific: txbuilder.SolanaSpecific{MessageBytes: []byte("fake-compiled-message")},
	}
	digests, err := Digests(payload)
	if err != nil {
		t.Fatalf("Digests: %v", err)
	}
	if len(digests) != 1 || len(digests[0]) != 64 {
		t.Fatalf("unexpected digests: %v", digests)
	}
}
