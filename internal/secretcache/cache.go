// Package secretcache holds at most one unlocked secret (a decrypted
// keyshare, or a derived signing key) per vault id, at rest inside a
// memguard enclave, expiring on TTL. Expiry, Evict, replacement by Put and
// DestroyAll remove an entry from the cache without wiping its enclave;
// a buffer returned by Get is wiped by its own Destroy.
package secretcache

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/awnumar/memguard"
)

var (
	ErrNotFound = errors.New("secretcache: no unlocked secret for vault")
	ErrExpired  = errors.New("secretcache: secret expired")
)

type entry struct {
	enclave   *memguard.Enclave
	expiresAt time.Time
}

// Cache is safe for concurrent use. All operations serialize behind a
// single mutex; entries are small (keyshare-sized) so contention is not a
// concern the way it would be for, say, the vault store.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*entry
}

// New creates a cache whose entries expire ttl after being stored or last
// renewed. A ttl of zero disables expiry (entries live until evicted).
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]*entry),
	}
}

// Put seals secret into an enclave under vaultID, replacing anything
// already cached for that vault (the old enclave is dropped, not wiped). The caller's copy of secret is
// not zeroed by Put; memguard.NewEnclave copies the bytes into locked
// memory and the caller remains responsible for its own buffer.
func (c *Cache) Put(vaultID string, secret []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictLocked(vaultID)

	e := &entry{enclave: memguard.NewEnclave(secret)}
	if c.ttl > 0 {
		e.expiresAt = time.Now().Add(c.ttl)
	}
	c.entries[vaultID] = e
}

// Get opens the cached secret for vaultID into a LockedBuffer. The caller
// must call buf.Destroy() when done with it. Getting a secret renews its
// TTL, matching how an actively-used signing session should not expire
// mid-flow.
func (c *Cache) Get(vaultID string) (*memguard.LockedBuffer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[vaultID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, vaultID)
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		c.evictLocked(vaultID)
		return nil, fmt.Errorf("%w: %s", ErrExpired, vaultID)
	}

	buf, err := e.enclave.Open()
	if err != nil {
		c.evictLocked(vaultID)
		return nil, fmt.Errorf("secretcache: opening enclave for %s: %w", vaultID, err)
	}

	if c.ttl > 0 {
		e.expiresAt = time.Now().Add(c.ttl)
	}
	return buf, nil
}

// Evict removes any cached secret for vaultID without wiping its enclave. It is a no-op
// if nothing is cached.
func (c *Cache) Evict(vaultID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked(vaultID)
}

func (c *Cache) evictLocked(vaultID string) {
	delete(c.entries, vaultID)
}

// DestroyAll drops every cached secret without wiping the enclaves. Intended for process
// shutdown or panic-recovery paths.
func (c *Cache) DestroyAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range c.entries {
		delete(c.entries, id)
	}
}

// Len reports how many secrets are currently cached, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
