package store

import (
	"testing"

	"github.com/vaultmesh/vaultcore/internal/secretcache"
	"github.com/vaultmesh/vaultcore/internal/vault"
	v1 "github.com/vultisig/commondata/go/vultisig/vault/v1"
)

func encodedTestVault(t *testing.T, name, partyID, password string) []byte {
	t.Helper()
	v := &v1.Vault{
		Name:           name,
		PublicKeyEcdsa: "02abc",
		PublicKeyEddsa: "abc",
		HexChainCode:   "deadbeef",
		LocalPartyId:   partyID,
	}
	encoded, err := vault.EncodeVaultFile(v, password)
	if err != nil {
		t.Fatalf("EncodeVaultFile: %v", err)
	}
	return encoded
}

func TestAddVault_StoresAndReturnsDecodedVault(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			container := encodedTestVault(t, "my-vault", "party-1", "")

			info, err := AddVault(s, container, "", Metadata{Currency: "USD"})
			if err != nil {
				t.Fatalf("AddVault: %v", err)
			}
			if info.Name != "my-vault" {
				t.Errorf("expected name my-vault, got %s", info.Name)
			}

			rec, err := s.Load("party-1")
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if rec.Metadata.Currency != "USD" {
				t.Errorf("expected currency to round-trip, got %s", rec.Metadata.Currency)
			}
		})
	}
}

func TestAddVault_DuplicateIDOverwrites(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			first := encodedTestVault(t, "first-name", "party-1", "")
			second := encodedTestVault(t, "second-name", "party-1", "")

			if _, err := AddVault(s, first, "", Metadata{}); err != nil {
				t.Fatalf("AddVault (first): %v", err)
			}
			if _, err := AddVault(s, second, "", Metadata{}); err != nil {
				t.Fatalf("AddVault (second): %v", err)
			}

			ids, err := s.List()
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(ids) != 1 {
				t.Fatalf("expected a single record for a duplicate id, got %v", ids)
			}

			rec, _ := s.Load("party-1")
			info, err := vault.ParseVaultBytesWithPassword(rec.Container, "", "party-1")
			if err != nil {
				t.Fatalf("ParseVaultBytesWithPassword: %v", err)
			}
			if info.Name != "second-name" {
				t.Errorf("expected overwrite to keep the second vault's name, got %s", info.Name)
			}
		})
	}
}

func TestListVaults_SkipsDecodingEncryptedVaults(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			plain := encodedTestVault(t, "plain-vault", "party-plain", "")
			locked := encodedTestVault(t, "locked-vault", "party-locked", "hunter2")

			if _, err := AddVault(s, plain, "", Metadata{}); err != nil {
				t.Fatalf("AddVault (plain): %v", err)
			}
			if _, err := AddVault(s, locked, "hunter2", Metadata{}); err != nil {
				t.Fatalf("AddVault (locked): %v", err)
			}
			if err := s.SetActive("party-plain"); err != nil {
				t.Fatalf("SetActive: %v", err)
			}

			summaries, err := ListVaults(s)
			if err != nil {
				t.Fatalf("ListVaults: %v", err)
			}
			if len(summaries) != 2 {
				t.Fatalf("expected 2 summaries, got %d", len(summaries))
			}

			byID := make(map[string]VaultSummary, len(summaries))
			for _, sum := range summaries {
				byID[sum.ID] = sum
			}

			if byID["party-plain"].Name != "plain-vault" || byID["party-plain"].IsEncrypted {
				t.Errorf("unexpected plain summary: %+v", byID["party-plain"])
			}
			if !byID["party-plain"].IsActive {
				t.Error("expected party-plain to be reported active")
			}
			if !byID["party-locked"].IsEncrypted || byID["party-locked"].Name != "" {
				t.Errorf("expected locked vault summarized without decoding: %+v", byID["party-locked"])
			}
		})
	}
}

func TestGetActiveVault_NoneSet(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			info, err := GetActiveVault(s, "")
			if err != nil {
				t.Fatalf("expected no error when no active vault is set, got %v", err)
			}
			if info != nil {
				t.Errorf("expected nil vault, got %+v", info)
			}
		})
	}
}

func TestGetActiveVault_ReturnsDecodedVault(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			container := encodedTestVault(t, "active-vault", "party-active", "")
			if _, err := AddVault(s, container, "", Metadata{}); err != nil {
				t.Fatalf("AddVault: %v", err)
			}
			if err := s.SetActive("party-active"); err != nil {
				t.Fatalf("SetActive: %v", err)
			}

			info, err := GetActiveVault(s, "")
			if err != nil {
				t.Fatalf("GetActiveVault: %v", err)
			}
			if info == nil || info.Name != "active-vault" {
				t.Fatalf("unexpected active vault: %+v", info)
			}
		})
	}
}

func TestDeleteVault_PurgesSecretCache(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			container := encodedTestVault(t, "doomed-vault", "party-doomed", "")
			if _, err := AddVault(s, container, "", Metadata{}); err != nil {
				t.Fatalf("AddVault: %v", err)
			}

			secrets := secretcache.New(0)
			secrets.Put("party-doomed", []byte("unlocked-keyshare"))
			if secrets.Len() != 1 {
				t.Fatalf("expected secret cached before delete")
			}

			if err := DeleteVault(s, "party-doomed", secrets); err != nil {
				t.Fatalf("DeleteVault: %v", err)
			}
			if secrets.Len() != 0 {
				t.Errorf("expected secret to be purged on delete, cache still has %d entries", secrets.Len())
			}
			if _, err := s.Load("party-doomed"); err == nil {
				t.Error("expected vault record to be gone after delete")
			}
		})
	}
}
