package auditkit

import (
	"context"
	"log/slog"

	"github.com/kestrelsec/auditkit/gateway"
	"github.com/kestrelsec/auditkit/guard"
	"github.com/kestrelsec/auditkit/internal/flows"
	"github.com/kestrelsec/auditkit/internal/metrics"
	"github.com/kestrelsec/auditkit/internal/notify"
	"github.com/kestrelsec/auditkit/jobs"
	"github.com/kestrelsec/auditkit/permission"
	"github.com/kestrelsec/auditkit/session"
)

// Client is the assembled SDK facade. Build one with the Builder; all
// methods are safe for concurrent use.
type Client struct {
	logger   *slog.Logger
	sessions *session.Store
	creds    session.CredentialStore
	gateway  *gateway.Gateway
	jobs     *jobs.Tracker
	guard    *guard.Guard
	metrics  *metrics.Metrics
	notifier *notify.Dispatcher
	flows    flows.Deps
}

// Initialize resolves the startup session state exactly once: a persisted,
// unexpired credential is validated against the server and installed on
// success; everything else resolves to unauthenticated. Initialize never
// fails the caller — problems degrade to "no session" and are logged.
func (c *Client) Initialize(ctx context.Context) {
	flows.RunBootstrap(ctx, c.flows.Bootstrap)
}

// Login submits the challenge and, on success, installs and persists the
// issued credential. Rejections return *AuthError with the server's reason
// verbatim; transient and network failures return their classified error
// unchanged. Login failures never raise a global notification.
func (c *Client) Login(ctx context.Context, ch Challenge) (*Principal, error) {
	return flows.RunLogin(ctx, ch, c.flows.Login)
}

// Logout invalidates the credential server-side on a best-effort basis and
// always clears the local session and persisted credential.
func (c *Client) Logout(ctx context.Context) error {
	return flows.RunLogout(ctx, c.flows.Logout)
}

// Readiness reports the session resolution state.
func (c *Client) Readiness() Readiness {
	return c.sessions.Readiness()
}

// Principal returns the authenticated identity, or nil.
func (c *Client) Principal() *Principal {
	return c.sessions.Principal()
}

// HasPermission reports whether the current principal holds the tag. False
// whenever no session is installed.
func (c *Client) HasPermission(tag Tag) bool {
	return permission.Allowed(c.sessions.Principal(), tag)
}

// HasRole reports whether the current principal has one of the roles.
func (c *Client) HasRole(roles ...Role) bool {
	return permission.HasRole(c.sessions.Principal(), roles...)
}

// Jobs exposes the import/export job tracker.
func (c *Client) Jobs() *jobs.Tracker {
	return c.jobs
}

// Guard exposes the route guard.
func (c *Client) Guard() *guard.Guard {
	return c.guard
}

// Do issues a raw request through the gateway, with the same classification
// and session side effects as every built-in operation. For API surface the
// SDK does not model.
func (c *Client) Do(ctx context.Context, req gateway.Request) error {
	return c.gateway.Do(ctx, req)
}

// MetricsSnapshot returns the current counter values.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	return c.metrics.SnapshotNow()
}

// NotificationsDropped reports how many notifications the dispatcher had to
// drop under backpressure.
func (c *Client) NotificationsDropped() uint64 {
	return c.notifier.Dropped()
}

// Close flushes and stops the notification dispatcher. The client must not
// be used afterwards.
func (c *Client) Close() {
	c.notifier.Close()
}
