// Package guard decides what a navigation surface may render for a route,
// based on session readiness and the route's required permission. It owns
// exactly one rule set so every route behaves the same:
//
//   - session still resolving: Wait. Render nothing, never redirect — the
//     user must not see a flash of the login screen during bootstrap.
//   - no session: RedirectLogin with ReplaceHistory set, so the dead-end
//     entry does not pollute the history stack.
//   - session present and the route's tag is allowed (or the route requires
//     none): Render.
//   - session present but the tag is denied: Forbidden. An explicit refusal
//     the caller can present, not a silent bounce.
package guard

import (
	"github.com/kestrelsec/auditkit/permission"
	"github.com/kestrelsec/auditkit/session"
)

// Action is what the caller should do with the route.
type Action uint8

const (
	ActionWait Action = iota
	ActionRedirectLogin
	ActionRender
	ActionForbidden
)

func (a Action) String() string {
	switch a {
	case ActionWait:
		return "wait"
	case ActionRedirectLogin:
		return "redirect_login"
	case ActionRender:
		return "render"
	case ActionForbidden:
		return "forbidden"
	}
	return "unknown"
}

// Decision is the guard's verdict for one route evaluation.
type Decision struct {
	Action Action
	// ReplaceHistory is set on login redirects: the navigation that led
	// here should be replaced, not stacked.
	ReplaceHistory bool
}

// Guard evaluates routes against the session store. Stateless beyond the
// store reference; safe for concurrent use.
type Guard struct {
	sessions *session.Store
}

func New(sessions *session.Store) *Guard {
	return &Guard{sessions: sessions}
}

// State exposes the raw readiness for callers that render their own
// loading chrome.
func (g *Guard) State() session.Readiness {
	return g.sessions.Readiness()
}

// Decide evaluates a route requiring the given permission tag. A zero tag
// means the route only requires an authenticated session.
func (g *Guard) Decide(tag permission.Tag) Decision {
	switch g.sessions.Readiness() {
	case session.ReadinessLoading:
		return Decision{Action: ActionWait}
	case session.ReadinessUnauthenticated:
		return Decision{Action: ActionRedirectLogin, ReplaceHistory: true}
	}

	if tag == "" {
		return Decision{Action: ActionRender}
	}
	if permission.Allowed(g.sessions.Principal(), tag) {
		return Decision{Action: ActionRender}
	}
	return Decision{Action: ActionForbidden}
}
