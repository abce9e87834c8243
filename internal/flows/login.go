package flows

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kestrelsec/auditkit/gateway"
	"github.com/kestrelsec/auditkit/internal/metrics"
	"github.com/kestrelsec/auditkit/permission"
	"github.com/kestrelsec/auditkit/session"
)

var validate = validator.New()

// Challenge is the credential set submitted to the login endpoint. At most
// one of SecondFactor and RecoveryCode may be present; the server decides
// whether a second factor is required at all.
type Challenge struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required"`
	SecondFactor string `json:"second_factor,omitempty" validate:"omitempty,numeric,excluded_with=RecoveryCode"`
	RecoveryCode string `json:"recovery_code,omitempty"`
}

// principalPayload is the wire shape of a principal as the server sends it.
type principalPayload struct {
	ID             string   `json:"id"`
	DisplayName    string   `json:"display_name"`
	Email          string   `json:"email"`
	Role           string   `json:"role"`
	Permissions    []string `json:"permissions"`
	OrganizationID string   `json:"organization_id"`
}

func (p principalPayload) principal() *permission.Principal {
	tags := make([]permission.Tag, 0, len(p.Permissions))
	for _, t := range p.Permissions {
		tags = append(tags, permission.Tag(t))
	}
	return permission.NewPrincipal(p.ID, p.DisplayName, p.Email, permission.Role(p.Role), tags, p.OrganizationID)
}

// loginPayload is the wire shape of a successful login response.
type loginPayload struct {
	Token     string           `json:"token"`
	IssuedAt  time.Time        `json:"issued_at"`
	ExpiresAt time.Time        `json:"expires_at"`
	Principal principalPayload `json:"principal"`
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	Send    func(ctx context.Context, req gateway.Request) error
	Install func(session.Credential, *permission.Principal)
	Persist func(context.Context, session.Credential) error

	// AuthFailure builds the host's form-scoped authentication error from
	// the server-supplied reason.
	AuthFailure func(reason string) error

	MetricInc func(metrics.MetricID)
	Warn      func(string, ...any)
}

// RunLogin executes the login flow: validate the challenge shape, submit it
// form-scoped, and on success install and persist the credential. Rejections
// come back through deps.AuthFailure with the server's reason untouched.
func RunLogin(ctx context.Context, ch Challenge, deps LoginDeps) (*permission.Principal, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = func(metrics.MetricID) {}
	}
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	if deps.Send == nil || deps.Install == nil || deps.AuthFailure == nil {
		return nil, errors.New("login flow not wired")
	}

	if err := validate.Struct(ch); err != nil {
		deps.MetricInc(metrics.MetricLoginFailure)
		return nil, deps.AuthFailure(challengeReason(err))
	}

	var payload loginPayload
	err := deps.Send(ctx, gateway.Request{
		Method:     http.MethodPost,
		Path:       "/v1/auth/login",
		Body:       ch,
		Out:        &payload,
		FormScoped: true,
	})
	if err != nil {
		deps.MetricInc(metrics.MetricLoginFailure)
		var verr *gateway.ValidationError
		if errors.As(err, &verr) {
			return nil, deps.AuthFailure(verr.Message)
		}
		// Transient and network failures are not authentication verdicts;
		// hand them through classified.
		return nil, err
	}

	cred := session.Credential{
		Token:     payload.Token,
		IssuedAt:  payload.IssuedAt,
		ExpiresAt: payload.ExpiresAt,
	}
	p := payload.Principal.principal()
	deps.Install(cred, p)

	if deps.Persist != nil {
		if err := deps.Persist(ctx, cred); err != nil {
			// The session is live either way; persistence only affects
			// the next start.
			deps.Warn("persisting credential failed", "error", err)
		}
	}

	deps.MetricInc(metrics.MetricLoginSuccess)
	return p, nil
}

// challengeReason maps a shape-validation failure to a stable user-facing
// reason without leaking validator internals.
func challengeReason(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "Email":
			return "a valid email address is required"
		case "Password":
			return "a password is required"
		case "SecondFactor":
			return "provide either a second-factor code or a recovery code, not both"
		}
	}
	return "invalid login request"
}
