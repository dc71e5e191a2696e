// Package handshake holds the short-lived correlation state of an in-flight
// OAuth handshake: the request-token secret obtained in step one, needed to
// complete the access-token exchange in step two. Entries are keyed by the
// request token so concurrent logins never clobber each other, and expire
// after a bounded window.
package handshake

import (
	"context"
	"sync"
	"time"
)

// TTL bounds how long a handshake may stay in flight.
const TTL = 10 * time.Minute

// Store persists request-token secrets between handshake steps.
type Store interface {
	// Put records the secret for a request token.
	Put(ctx context.Context, requestToken, secret string) error
	// Take returns the secret for a request token and removes the entry
	// (single use). Returns "" when the entry is absent or expired.
	Take(ctx context.Context, requestToken string) (string, error)
}

type memoryEntry struct {
	secret    string
	expiresAt time.Time
}

// MemoryStore is an in-process Store for tests and single-node deployments.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), ttl: TTL}
}

func (m *MemoryStore) Put(ctx context.Context, requestToken, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()
	m.entries[requestToken] = memoryEntry{secret: secret, expiresAt: time.Now().UTC().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Take(ctx context.Context, requestToken string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[requestToken]
	if !ok {
		return "", nil
	}
	delete(m.entries, requestToken)
	if time.Now().UTC().After(e.expiresAt) {
		return "", nil
	}
	return e.secret, nil
}

func (m *MemoryStore) sweepLocked() {
	now := time.Now().UTC()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}
