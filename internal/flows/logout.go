package flows

import (
	"context"
	"errors"
	"net/http"

	"github.com/kestrelsec/auditkit/gateway"
	"github.com/kestrelsec/auditkit/internal/metrics"
)

// LogoutDeps captures logout dependencies.
type LogoutDeps struct {
	Send            func(ctx context.Context, req gateway.Request) error
	ClearSession    func()
	ClearCredential func(context.Context) error

	MetricInc func(metrics.MetricID)
	Warn      func(string, ...any)
}

// RunLogout tells the server to invalidate the credential, then discards all
// local state. Fail-open: the local teardown happens no matter what the
// server said, so a user can always sign out.
func RunLogout(ctx context.Context, deps LogoutDeps) error {
	if deps.MetricInc == nil {
		deps.MetricInc = func(metrics.MetricID) {}
	}
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	if deps.ClearSession == nil {
		return errors.New("logout flow not wired")
	}

	if deps.Send != nil {
		err := deps.Send(ctx, gateway.Request{
			Method: http.MethodPost,
			Path:   "/v1/auth/logout",
			// The session is being torn down on purpose; a 401 here must
			// not surface as an expiry event.
			FormScoped: true,
		})
		if err != nil {
			deps.Warn("server-side logout failed, clearing locally", "error", err)
		}
	}

	deps.ClearSession()
	if deps.ClearCredential != nil {
		if err := deps.ClearCredential(ctx); err != nil {
			deps.Warn("clearing persisted credential failed", "error", err)
		}
	}

	deps.MetricInc(metrics.MetricLogout)
	return nil
}
