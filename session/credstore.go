package session

import (
	"context"
	"sync"
	"time"
)

// CredentialStore persists the bearer credential across client restarts so
// the bootstrap sequence can attempt to resume a session. Implementations
// report an absent or locally expired credential as (nil, nil) from Load —
// a missing credential is a normal state, not an error.
type CredentialStore interface {
	Load(ctx context.Context) (*Credential, error)
	Save(ctx context.Context, cred Credential) error
	Clear(ctx context.Context) error
}

// MemStore is an in-memory CredentialStore for tests and ephemeral clients.
type MemStore struct {
	mu   sync.Mutex
	cred *Credential
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore { return &MemStore{} }

// Load implements CredentialStore.
func (m *MemStore) Load(context.Context) (*Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil || !m.cred.Valid(time.Now()) {
		return nil, nil
	}
	c := *m.cred
	return &c, nil
}

// Save implements CredentialStore.
func (m *MemStore) Save(_ context.Context, cred Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := cred
	m.cred = &c
	return nil
}

// Clear implements CredentialStore.
func (m *MemStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = nil
	return nil
}
