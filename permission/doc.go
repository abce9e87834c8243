// Package permission defines the closed permission-tag and role enums of the
// audit platform, the authenticated Principal, and the pure authorization
// evaluator used by route guarding.
//
// # Architecture boundaries
//
// This package is pure in-memory data with no I/O. Evaluation is referentially
// transparent: identical inputs always yield identical results.
//
// # What this package must NOT do
//
//   - Access the network, Redis, or the filesystem.
//   - Import auditkit, session, or gateway (no import cycles).
//   - Accept tags or roles outside the closed sets defined here.
package permission
