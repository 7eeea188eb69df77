package broadcast

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/vaultmesh/vaultcore/internal/events"
	"github.com/vaultmesh/vaultcore/internal/signing"
	"github.com/vaultmesh/vaultcore/internal/txbuilder"
	"github.com/vaultmesh/vaultcore/internal/types"
)

type fakeUTXOBroadcaster struct {
	gotHex string
	hash   string
	err    error
}

func (f *fakeUTXOBroadcaster) BroadcastRawTx(ctx context.Context, rawTxHex string) (string, error) {
	f.gotHex = rawTxHex
	if f.err != nil {
		return "", f.err
	}
	return f.hash, nil
}

type fakeEVMBroadcaster struct {
	gotHex string
	hash   string
}

func (f *fakeEVMBroadcaster) SendRawTransaction(ctx context.Context, rawTxHex string) (string, error) {
	f.gotHex = rawTxHex
	return f.hash, nil
}

func randomSig() signing.Signature {
	r := make([]byte, 32)
	s := make([]byte, 32)
	_, _ = rand.Read(r)
	_, _ = rand.Read(s)
	r[0] |= 1 // avoid zero-valued R/S, which derEncodeECDSA rejects
	s[0] |= 1
	return signing.Signature{R: r, S: s, V: []byte{0x00}}
}

func TestSubmitUTXO_AttachesWitnessAndBroadcasts(t *testing.T) {
	fake := &fakeUTXOBroadcaster{hash: "deadbeef"}
	bridge := New(Adapters{UTXO: fake}, nil)

	script := append([]byte{0x00, 0x14}, make([]byte, 20)...)
	payload := &txbuilder.KeysignPayload{
		Coin:      txbuilder.Coin{Chain: types.ChainBitcoin, HexPublicKey: "02" + hexRepeat("ab", 32)},
		ToAddress: "bc1qsef7rshf0jwm53rnkttpry5rpveqcd6dyj6pn9",
		ToAmount:  "50000",
		BlockchainSpecific: txbuilder.UTXOSpecific{
			Inputs: []txbuilder.UTXOInput{
				{TxID: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Vout: 0, Amount: 60000, ScriptPubKey: script},
			},
		},
	}

	hash, url, err := bridge.Submit(context.Background(), payload, []signing.Signature{randomSig()})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if hash != "deadbeef" {
		t.Errorf("expected hash deadbeef, got %s", hash)
	}
	if url == "" {
		t.Error("expected a non-empty explorer URL")
	}
	if fake.gotHex == "" {
		t.Error("expected a raw tx hex to have been submitted")
	}
}

func TestSubmitUTXO_RejectsWrongSignatureCount(t *testing.T) {
	fake := &fakeUTXOBroadcaster{hash: "deadbeef"}
	bridge := New(Adapters{UTXO: fake}, nil)

	script := append([]byte{0x00, 0x14}, make([]byte, 20)...)
	payload := &txbuilder.KeysignPayload{
		Coin:      txbuilder.Coin{Chain: types.ChainBitcoin},
		ToAddress: "bc1qsef7rshf0jwm53rnkttpry5rpveqcd6dyj6pn9",
		ToAmount:  "50000",
		BlockchainSpecific: txbuilder.UTXOSpecific{
			Inputs: []txbuilder.UTXOInput{
				{TxID: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Vout: 0, Amount: 60000, ScriptPubKey: script},
				{TxID: "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", Vout: 1, Amount: 10000, ScriptPubKey: script},
			},
		},
	}

	_, _, err := bridge.Submit(context.Background(), payload, []signing.Signature{randomSig()})
	if err == nil {
		t.Fatal("expected an error for mismatched signature count")
	}
}

func TestSubmitEVM_AppliesSignatureAndBroadcasts(t *testing.T) {
	fake := &fakeEVMBroadcaster{hash: "0xabc123"}
	bridge := New(Adapters{EVM: fake}, events.New())

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

	sig := randomSig()
	hash, _, err := bridge.Submit(context.Background(), payload, []signing.Signature{sig})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if hash != "0xabc123" {
		t.Errorf("expected hash 0xabc123, got %s", hash)
	}
	if fake.gotHex == "" {
		t.Error("expected a raw tx hex to have been submitted")
	}
}

func TestSubmitEVM_RejectsMissingAdapter(t *testing.T) {
	bridge := New(Adapters{}, nil)
	payload := &txbuilder.KeysignPayload{
		Coin:               txbuilder.Coin{Chain: types.ChainEthereum},
		ToAddress:          "0x8c4E1C2D3b9F88bBa6162F6Bd8dB05840Ca24F8c",
		ToAmount:           "1",
		BlockchainSpecific: txbuilder.EVMSpecific{ChainID: "1", GasLimit: 21000, MaxFeePerGas: "1", MaxPriorityFeePerGas: "1"},
	}
	_, _, err := bridge.Submit(context.Background(), payload, []signing.Signature{randomSig()})
	if err == nil {
		t.Fatal("expected ErrUnsupportedChain for a missing EVM adapter")
	}
}

func hexRepeat(pair string, n int) string {
	out := make([]byte, 0, len(pair)*n)
	for i := 0; i < n; i++ {
		out = append(out, pair...)
	}
	return string(out)
}
