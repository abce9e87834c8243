package session

import (
	"sync"
	"time"

	"github.com/kestrelsec/auditkit/permission"
)

// Store holds the process-wide session state. It is a plain state holder:
// bootstrap and login flows decide what to install, the gateway decides when
// to clear. All methods are safe for concurrent use and none of them panics
// or returns an error — failure always degrades to "no session".
type Store struct {
	mu         sync.RWMutex
	principal  *permission.Principal
	credential Credential
	readiness  Readiness
}

// NewStore returns a store in the loading state.
func NewStore() *Store {
	return &Store{readiness: ReadinessLoading}
}

// Install atomically replaces the session with the given pairing and marks it
// authenticated. Used after a successful login or bootstrap validation.
func (s *Store) Install(cred Credential, p *permission.Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = cred
	s.principal = p
	s.readiness = ReadinessAuthenticated
}

// Clear discards the credential and principal and marks the session
// unauthenticated. Idempotent: clearing an empty session is a no-op apart
// from resolving readiness.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = Credential{}
	s.principal = nil
	s.readiness = ReadinessUnauthenticated
}

// Readiness returns the current bootstrap state.
func (s *Store) Readiness() Readiness {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readiness
}

// Principal returns the installed principal, or nil when the session is not
// authenticated. Principals are immutable once issued, so the returned
// pointer is safe to share.
func (s *Store) Principal() *permission.Principal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.principal
}

// Credential returns the installed credential and whether one is present.
func (s *Store) Credential() (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential, s.credential.Token != ""
}

// Snapshot returns a point-in-time copy of the session.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Session{
		Principal:  s.principal,
		Credential: s.credential,
		Readiness:  s.readiness,
	}
}

// Expired reports whether an installed credential has passed its local
// expiry. An empty session is not "expired" — it is simply absent.
func (s *Store) Expired(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential.Token != "" && !s.credential.Valid(now)
}
