package chains

import (
	"strings"
	"testing"

	"github.com/vaultmesh/vaultcore/internal/types"
)

func TestLookup_KnownChain(t *testing.T) {
	entry, err := Lookup(types.ChainBitcoin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Ticker != "BTC" {
		t.Errorf("expected ticker BTC, got %s", entry.Ticker)
	}
	if entry.TxFormat != TxFormatUTXO {
		t.Errorf("expected utxo tx format, got %s", entry.TxFormat)
	}
}

func TestLookup_UnknownChain(t *testing.T) {
	_, err := Lookup(types.SupportedChain("made-up-chain"))
	if err == nil {
		t.Fatal("expected error for unknown chain")
	}
}

func TestExplorerURL(t *testing.T) {
	url, err := ExplorerURL(types.ChainEthereum, "0xdeadbeef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(url, "0xdeadbeef") {
		t.Errorf("expected tx hash in explorer url, got %s", url)
	}
}

func TestNormalizeLibType(t *testing.T) {
	cases := map[string]LibType{
		"gg20": LibTypeGG20,
		"GG20": LibTypeGG20,
		"dkls": LibTypeDKLS,
		"DKLS": LibTypeDKLS,
	}
	for input, want := range cases {
		got, err := NormalizeLibType(input)
		if err != nil {
			t.Fatalf("NormalizeLibType(%q): %v", input, err)
		}
		if got != want {
			t.Errorf("NormalizeLibType(%q) = %s, want %s", input, got, want)
		}
	}

	if _, err := NormalizeLibType("notathing"); err == nil {
		t.Error("expected error for unrecognized lib type")
	}
}

func TestIsECDSAFamily(t *testing.T) {
	if !IsECDSAFamily(LibTypeGG20) {
		t.Error("GG20 should be ECDSA family")
	}
	if !IsECDSAFamily(LibTypeDKLS) {
		t.Error("DKLS should be ECDSA family")
	}
	if IsECDSAFamily(LibTypeEdDSA) {
		t.Error("EdDSA should not be ECDSA family")
	}
}
