// Package notify implements the asynchronous notification channel through
// which every globally surfaced failure reaches the UI.
//
// The gateway classifies transport failures into a [Kind]; sinks decide how
// to present them. This is the only path from transport errors to the user —
// individual components never display errors themselves, except for the
// form-scoped login failures that bypass this channel entirely.
//
// # What this package must NOT do
//
//   - Perform network I/O.
//   - Import auditkit, gateway, or session.
//   - Block the emitting request path (buffered fan-out only).
package notify
