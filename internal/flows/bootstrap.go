package flows

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kestrelsec/auditkit/gateway"
	"github.com/kestrelsec/auditkit/internal/metrics"
	"github.com/kestrelsec/auditkit/permission"
	"github.com/kestrelsec/auditkit/session"
)

// BootstrapDeps captures startup dependencies.
type BootstrapDeps struct {
	LoadCredential  func(context.Context) (*session.Credential, error)
	ClearCredential func(context.Context) error
	Send            func(ctx context.Context, req gateway.Request) error

	Install func(session.Credential, *permission.Principal)
	// ResolveUnauthenticated settles session readiness when no usable
	// credential exists.
	ResolveUnauthenticated func()

	Now       func() time.Time
	MetricInc func(metrics.MetricID)
	Warn      func(string, ...any)
}

// RunBootstrap resolves the initial session state exactly once. A persisted,
// unexpired credential is validated against the server before anything is
// installed; everything else resolves to unauthenticated. Bootstrap never
// fails the caller: problems are logged and degrade to "no session".
//
// Any validation failure wipes the persisted credential, whether the server
// rejected it, answered garbage, or could not be reached at all. A credential
// that failed validation is never carried into the next start.
func RunBootstrap(ctx context.Context, deps BootstrapDeps) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(metrics.MetricID) {}
	}
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	if deps.ResolveUnauthenticated == nil || deps.Install == nil || deps.Send == nil {
		return
	}

	cred := loadUsable(ctx, deps)
	if cred == nil {
		deps.ResolveUnauthenticated()
		return
	}

	var payload principalPayload
	err := deps.Send(ctx, gateway.Request{
		Method: http.MethodGet,
		Path:   "/v1/auth/me",
		Out:    &payload,
		// The credential is not installed yet, so the request carries it
		// explicitly; classification side effects stay suppressed while
		// the session is still resolving.
		Credential: cred,
		FormScoped: true,
	})
	if err != nil {
		var verr *gateway.ValidationError
		if errors.As(err, &verr) || errors.Is(err, gateway.ErrSessionExpired) {
			deps.Warn("persisted credential rejected", "error", err)
		} else {
			deps.Warn("credential validation failed", "error", err)
		}
		wipe(ctx, deps)
		deps.ResolveUnauthenticated()
		return
	}

	deps.Install(*cred, payload.principal())
	deps.MetricInc(metrics.MetricSessionResumed)
}

func loadUsable(ctx context.Context, deps BootstrapDeps) *session.Credential {
	if deps.LoadCredential == nil {
		return nil
	}
	cred, err := deps.LoadCredential(ctx)
	if err != nil {
		deps.Warn("loading persisted credential failed", "error", err)
		return nil
	}
	if cred == nil {
		return nil
	}
	if !cred.Valid(deps.Now()) {
		deps.MetricInc(metrics.MetricSessionExpired)
		wipe(ctx, deps)
		return nil
	}
	return cred
}

func wipe(ctx context.Context, deps BootstrapDeps) {
	if deps.ClearCredential == nil {
		return
	}
	if err := deps.ClearCredential(ctx); err != nil {
		deps.Warn("wiping persisted credential failed", "error", err)
	}
}
