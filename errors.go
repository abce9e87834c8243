package auditkit

import (
	"errors"

	"github.com/kestrelsec/auditkit/gateway"
	"github.com/kestrelsec/auditkit/jobs"
	"github.com/kestrelsec/auditkit/session"
)

// Sentinel errors. The classification types (TransientError,
// ValidationError, NetworkError) live in the gateway package and are
// re-exported through types.go.
var (
	// ErrNotBuilt is returned by Builder.Build when the configuration is
	// unusable.
	ErrNotBuilt = errors.New("client not built")

	// ErrSessionExpired is returned from any operation whose request came
	// back 401. The session has already been torn down.
	ErrSessionExpired = gateway.ErrSessionExpired

	// ErrJobProcessing refuses deletion of a job still being processed.
	ErrJobProcessing = jobs.ErrJobProcessing

	// ErrJobNotFound means the job id is not in the local mirror.
	ErrJobNotFound = jobs.ErrJobNotFound

	// ErrNoArtifact means the job has no downloadable result.
	ErrNoArtifact = jobs.ErrNoArtifact

	// ErrRedisUnavailable wraps connectivity failures of the Redis-backed
	// credential store.
	ErrRedisUnavailable = session.ErrRedisUnavailable
)

// AuthError is a rejected login. Reason carries the server-supplied message
// verbatim (or the local shape-validation message); it is form-scoped and
// never raises a global notification.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return e.Reason }
