package store

import (
	"fmt"

	"github.com/vaultmesh/vaultcore/internal/secretcache"
	"github.com/vaultmesh/vaultcore/internal/vault"
)

// VaultSummary is listVaults()'s per-entry shape: spec.md §4.2 requires it
// exclude keyshare material, so it carries only what a vault picker needs.
type VaultSummary struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	IsEncrypted    bool     `json:"is_encrypted"`
	PublicKeyECDSA string   `json:"public_key_ecdsa,omitempty"`
	PublicKeyEDDSA string   `json:"public_key_eddsa,omitempty"`
	IsActive       bool     `json:"is_active"`
	Metadata       Metadata `json:"metadata"`
}

// AddVault decodes containerBytes via the C1 container codec, stores the
// raw container plus meta under the vault's own id (LocalPartyKey), and
// returns the decoded vault. Adding a vault whose id already exists
// overwrites that record in place, per spec.md §4.2.
func AddVault(s Storage, containerBytes []byte, password string, meta Metadata) (*vault.VaultInfo, error) {
	info, err := vault.ParseVaultBytesWithPassword(containerBytes, password, "")
	if err != nil {
		return nil, fmt.Errorf("decoding vault container: %w", err)
	}
	if info.LocalPartyKey == "" {
		return nil, fmt.Errorf("%w: vault has no local party id to key the store on", ErrEmptyVault)
	}

	if err := s.Save(info.LocalPartyKey, Record{
		ID:        info.LocalPartyKey,
		Container: containerBytes,
		Metadata:  meta,
	}); err != nil {
		return nil, fmt.Errorf("saving vault %s: %w", info.LocalPartyKey, err)
	}
	return info, nil
}

// ListVaults returns a keyshare-free summary of every stored vault, in the
// order Storage.List returns ids, with IsActive set for whichever one
// getActive() currently names.
func ListVaults(s Storage) ([]VaultSummary, error) {
	ids, err := s.List()
	if err != nil {
		return nil, fmt.Errorf("listing vaults: %w", err)
	}

	activeID, err := s.GetActive()
	if err != nil && err != ErrNoActive {
		return nil, fmt.Errorf("reading active vault: %w", err)
	}

	summaries := make([]VaultSummary, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Load(id)
		if err != nil {
			return nil, fmt.Errorf("loading vault %s: %w", id, err)
		}

		encrypted, err := vault.IsEncryptedVaultFile(rec.Container)
		if err != nil {
			return nil, fmt.Errorf("inspecting vault %s: %w", id, err)
		}
		if encrypted {
			// Listing must never prompt for a password or block on one;
			// an encrypted vault is summarized by id alone until it is
			// explicitly decoded (getActiveVault, unlock, ...).
			summaries = append(summaries, VaultSummary{
				ID:          id,
				IsEncrypted: true,
				IsActive:    id == activeID,
				Metadata:    rec.Metadata,
			})
			continue
		}

		info, err := vault.ParseVaultBytesWithPassword(rec.Container, "", id)
		if err != nil {
			return nil, fmt.Errorf("decoding vault %s: %w", id, err)
		}
		summaries = append(summaries, VaultSummary{
			ID:             id,
			Name:           info.Name,
			IsEncrypted:    info.IsEncrypted,
			PublicKeyECDSA: info.PublicKeyECDSA,
			PublicKeyEDDSA: info.PublicKeyEDDSA,
			IsActive:       id == activeID,
			Metadata:       rec.Metadata,
		})
	}
	return summaries, nil
}

// GetActiveVault decodes and returns whichever vault setActive(id) last
// named, or nil if none is set (spec.md's "optional Vault"). password is
// only needed if the active vault is encrypted.
func GetActiveVault(s Storage, password string) (*vault.VaultInfo, error) {
	id, err := s.GetActive()
	if err != nil {
		if err == ErrNoActive {
			return nil, nil
		}
		return nil, fmt.Errorf("reading active vault: %w", err)
	}

	rec, err := s.Load(id)
	if err != nil {
		return nil, fmt.Errorf("loading active vault %s: %w", id, err)
	}
	info, err := vault.ParseVaultBytesWithPassword(rec.Container, password, id)
	if err != nil {
		return nil, fmt.Errorf("decoding active vault %s: %w", id, err)
	}
	return info, nil
}

// DeleteVault removes id's storage entry and purges any unlocked secret
// secretcache is holding for it, per spec.md §4.2/C9. secrets may be nil
// when the caller has no cache wired (e.g. a pure listing tool).
func DeleteVault(s Storage, id string, secrets *secretcache.Cache) error {
	if err := s.Delete(id); err != nil {
		return fmt.Errorf("deleting vault %s: %w", id, err)
	}
	if secrets != nil {
		secrets.Evict(id)
	}
	return nil
}
