// Package auditkit is the client SDK for the audit platform: session and
// authorization lifecycle plus asynchronous import/export job tracking, for
// building management frontends and headless tooling on top of the platform
// API.
//
// A Client is assembled with the Builder and carries four cooperating parts:
//
//   - the session store, a single mutex-guarded (credential, principal) pair
//     with tri-state readiness that resolves exactly once per start;
//   - the request gateway, the one place every outbound call is issued and
//     every failure is classified (expiry, transient, rejection, network);
//   - the permission evaluator, pure functions over a closed tag set;
//   - the job tracker, a caller-driven mirror of server-side import and
//     export jobs.
//
// Typical startup:
//
//	client, err := auditkit.New().
//		WithConfig(cfg).
//		WithNotificationSink(sink).
//		Build()
//	if err != nil {
//		// configuration problem
//	}
//	defer client.Close()
//
//	client.Initialize(ctx) // resolve persisted credential, if any
//	if client.Readiness() != session.ReadinessAuthenticated {
//		principal, err := client.Login(ctx, auditkit.Challenge{
//			Email:    email,
//			Password: password,
//		})
//		...
//	}
//
// The credential is opaque to this SDK: it is attached, persisted, and
// discarded, never parsed. All authorization decisions come from the
// principal the server issued alongside it.
package auditkit
