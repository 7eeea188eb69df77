// Package client provides a public API for vultool functionality
// This package is intended for consumption by other Go applications
package client

import (
	"context"
	"time"

	"github.com/vaultmesh/vaultcore/internal/broadcast"
	"github.com/vaultmesh/vaultcore/internal/chains"
	"github.com/vaultmesh/vaultcore/internal/events"
	"github.com/vaultmesh/vaultcore/internal/presign"
	"github.com/vaultmesh/vaultcore/internal/secretcache"
	"github.com/vaultmesh/vaultcore/internal/signing"
	"github.com/vaultmesh/vaultcore/internal/store"
	"github.com/vaultmesh/vaultcore/internal/txbuilder"
	"github.com/vaultmesh/vaultcore/internal/types"
	"github.com/vaultmesh/vaultcore/internal/vault"
)

// VaultInfo represents parsed vault information for external clients
type VaultInfo = vault.VaultInfo

// KeyShareInfo represents key share information for external clients
type KeyShareInfo = vault.KeyShareInfo

// ParseVaultFile parses a .vult file and returns vault information
func ParseVaultFile(filePath string) (*VaultInfo, error) {
	return vault.ParseVaultFile(filePath)
}

// ParseVaultFileWithPassword parses a .vult file with a provided password
func ParseVaultFileWithPassword(filePath, password string) (*VaultInfo, error) {
	return vault.ParseVaultFileWithPassword(filePath, password)
}

// ValidateVault performs validation checks on a vault
func ValidateVault(vaultInfo *VaultInfo) []string {
	return vault.ValidateVault(vaultInfo)
}

// IsValidVultFile checks if the given content is a valid .vult file
func IsValidVultFile(content string) (bool, error) {
	return vault.IsValidVultFile(content)
}

// ValidateVultFileFromPath checks if a file at the given path is a valid .vult file
func ValidateVultFileFromPath(filePath string) (bool, error) {
	return vault.ValidateVultFileFromPath(filePath)
}

// ParseVaultFromBytes parses vault content directly from bytes
func ParseVaultFromBytes(data []byte) (*VaultInfo, error) {
	return vault.ParseVaultFromBytes(data)
}

// Chain registry re-exports.
type (
	ChainEntry = chains.Entry
	TxFormat   = chains.TxFormat
	FeeModel   = chains.FeeModel
)

// LookupChain returns the registry entry for a supported chain id.
func LookupChain(id string) (ChainEntry, error) {
	return chains.Lookup(types.SupportedChain(id))
}

// ExplorerURL renders the explorer link for a transaction hash on a chain.
func ExplorerURL(id string, txHash string) (string, error) {
	return chains.ExplorerURL(types.SupportedChain(id), txHash)
}

// Vault store re-exports.
type (
	Storage     = store.Storage
	VaultRecord = store.Record
)

// NewMemStore creates an in-memory vault store, useful for tests and
// short-lived tooling that should never touch disk.
func NewMemStore() *store.MemStore {
	return store.NewMemStore()
}

// NewFileStore creates a vault store persisted under baseDir.
func NewFileStore(baseDir string) (*store.FileStore, error) {
	return store.NewFileStore(baseDir)
}

// Transaction building, pre-sign hashing, signing, and broadcast re-exports.
type (
	KeysignPayload  = txbuilder.KeysignPayload
	SendRequest     = txbuilder.SendRequest
	Adapters        = txbuilder.Adapters
	SigningSession  = signing.Session
	SigningOptions  = signing.Options
	Signature       = signing.Signature
	BroadcastBridge = broadcast.Bridge
	EventBus        = events.Bus
	SecretCache     = secretcache.Cache
)

// BuildSend assembles a chain-agnostic send payload.
func BuildSend(ctx context.Context, adapters Adapters, req SendRequest) (*KeysignPayload, error) {
	return txbuilder.BuildSend(ctx, adapters, req)
}

// Digests returns the message digest(s) a signing session must sign for
// payload, one per required signature.
func Digests(payload *KeysignPayload) ([]string, error) {
	return presign.Digests(payload)
}

// NewSigningSession creates a driver for one cooperative signing round set.
func NewSigningSession(relay signing.Relay, secrets *SecretCache, bus *EventBus, newSigner func([]byte) signing.MPCSigner) *SigningSession {
	return signing.New(relay, secrets, bus, newSigner)
}

// NewBroadcastBridge creates a bridge that assembles and submits signed
// transactions through the given per-chain-family adapters.
func NewBroadcastBridge(adapters broadcast.Adapters, bus *EventBus) *BroadcastBridge {
	return broadcast.New(adapters, bus)
}

// NewSecretCache creates a cache whose entries expire ttl after being
// stored or last renewed. A ttl of zero disables expiry.
func NewSecretCache(ttl time.Duration) *SecretCache {
	return secretcache.New(ttl)
}

// NewEventBus creates an empty, ready-to-use event bus.
func NewEventBus() *EventBus {
	return events.New()
}
