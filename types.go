package auditkit

import (
	"github.com/kestrelsec/auditkit/gateway"
	"github.com/kestrelsec/auditkit/guard"
	"github.com/kestrelsec/auditkit/internal/flows"
	"github.com/kestrelsec/auditkit/internal/metrics"
	"github.com/kestrelsec/auditkit/internal/notify"
	"github.com/kestrelsec/auditkit/jobs"
	"github.com/kestrelsec/auditkit/permission"
	"github.com/kestrelsec/auditkit/session"
)

// Identity and authorization types, defined in the permission package.
type (
	// Principal is the authenticated identity issued by the server.
	Principal = permission.Principal
	// Tag is a capability from the closed permission set.
	Tag = permission.Tag
	// Role is the coarse identity classification.
	Role = permission.Role
)

// Session types, defined in the session package.
type (
	// Credential is the opaque bearer token with its validity window.
	Credential = session.Credential
	// Readiness is the tri-state session resolution.
	Readiness = session.Readiness
	// CredentialStore persists a credential between runs.
	CredentialStore = session.CredentialStore
)

// Challenge is the login submission shape.
type Challenge = flows.Challenge

// Job types, defined in the jobs package.
type (
	// Job mirrors one server-side import or export job.
	Job = jobs.Job
	// JobKind distinguishes imports from exports.
	JobKind = jobs.Kind
	// JobStatus is the monotonic job lifecycle state.
	JobStatus = jobs.Status
	// Artifact is the downloadable result of a completed export.
	Artifact = jobs.Artifact
	// ImportRequest submits a file for ingestion.
	ImportRequest = jobs.ImportRequest
	// ExportRequest asks for a new export artifact.
	ExportRequest = jobs.ExportRequest
)

// Failure classification types, defined in the gateway package.
type (
	// TransientError is a 5xx response; retryable, session untouched.
	TransientError = gateway.TransientError
	// ValidationError is a non-401 4xx with the server message verbatim.
	ValidationError = gateway.ValidationError
	// NetworkError means no response was received at all.
	NetworkError = gateway.NetworkError
)

// Notification types, defined in internal/notify and re-exported so callers
// can plug their own presentation sinks.
type (
	// Notification is the canonical user-facing event.
	Notification = notify.Notification
	// NotificationKind classifies a notification.
	NotificationKind = notify.Kind
	// NotificationSink receives dispatched notifications.
	NotificationSink = notify.Sink
)

// NewChannelSink builds a buffered channel sink, the usual bridge to a UI
// notification surface.
func NewChannelSink(buffer int) *notify.ChannelSink {
	return notify.NewChannelSink(buffer)
}

// DisplayText maps a notification to its user-visible message.
func DisplayText(n Notification) string {
	return notify.DisplayText(n)
}

// GuardDecision is the route guard's verdict.
type GuardDecision = guard.Decision

// MetricsSnapshot is a point-in-time view of the client's counters.
type MetricsSnapshot = metrics.Snapshot
