// Package gateway is the single chokepoint for every outbound call to the
// audit platform. It attaches the bearer credential when one is installed,
// stamps each request with an X-Request-ID, and classifies every failure the
// same way no matter which component issued the call:
//
//   - 401: the session is cleared, a session-expired notification is emitted,
//     and the forced-navigation hook fires. This supersedes whatever the
//     caller intended to do with the response.
//   - 5xx: a generic transient-failure notification; the session is untouched.
//   - other 4xx: the server-supplied message is surfaced verbatim.
//   - no response: a generic connectivity notification.
//
// Form-scoped requests (the login form) bypass the global side effects and
// receive the classified error directly, so authentication failures stay on
// the form instead of tearing the client down.
//
// # What this package must NOT do
//
//   - Inspect the credential token's content.
//   - Retry automatically.
//   - Render anything: presentation belongs to notification sinks.
package gateway
