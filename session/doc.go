// Package session holds the single active client session — the pairing of an
// authenticated Principal with its opaque bearer Credential — plus the
// credential persistence backends used to survive a client restart.
//
// # Readiness
//
// A session starts in the loading state and resolves exactly once per
// bootstrap cycle to authenticated or unauthenticated. No API in this package
// moves a resolved session back to loading.
//
// # What this package must NOT do
//
//   - Inspect the credential token's content. It is opaque: attached and
//     discarded, never parsed.
//   - Perform network calls other than the Redis persistence backend.
//   - Import auditkit, gateway, or jobs (no import cycles).
package session
