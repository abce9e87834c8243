package session

import (
	"time"

	"github.com/kestrelsec/auditkit/permission"
)

// Readiness is the tri-state bootstrap flag of the client session.
type Readiness uint8

const (
	// ReadinessLoading means the bootstrap sequence has not resolved yet.
	// Nothing decision-bearing may render while loading.
	ReadinessLoading Readiness = iota
	// ReadinessAuthenticated means a principal and credential are installed.
	ReadinessAuthenticated
	// ReadinessUnauthenticated means the session resolved without (or lost)
	// its credential.
	ReadinessUnauthenticated
)

// String returns the readiness name used in logs.
func (r Readiness) String() string {
	switch r {
	case ReadinessLoading:
		return "loading"
	case ReadinessAuthenticated:
		return "authenticated"
	case ReadinessUnauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// Resolved reports whether the bootstrap cycle has completed.
func (r Readiness) Resolved() bool { return r != ReadinessLoading }

// Credential is the opaque bearer artifact proving an authenticated session.
// The token is never inspected for content.
type Credential struct {
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Valid reports whether the credential exists and has not passed its local
// expiry at the given instant.
func (c Credential) Valid(now time.Time) bool {
	return c.Token != "" && now.Before(c.ExpiresAt)
}

// Remaining returns the validity left at the given instant, or zero.
func (c Credential) Remaining(now time.Time) time.Duration {
	if !c.Valid(now) {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}

// Session is the active (Principal, Credential) pairing plus readiness.
// Exactly one Session exists per running client.
type Session struct {
	Principal  *permission.Principal
	Credential Credential
	Readiness  Readiness
}
