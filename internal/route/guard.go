package route

import "net/url"

// Action is the guard's verdict on a navigation.
type Action int

const (
	// Proceed lets the navigation through.
	Proceed Action = iota
	// Redirect diverts the navigation to Decision.Target.
	Redirect
)

// Decision is the outcome of one guard evaluation.
type Decision struct {
	Action Action
	// Target is the redirect path, set when Action is Redirect.
	Target string
	// Query carries the redirect's query parameters, if any.
	Query url.Values
}

// TargetURL renders the redirect destination including its query.
func (d Decision) TargetURL() string {
	if len(d.Query) == 0 {
		return d.Target
	}
	return d.Target + "?" + d.Query.Encode()
}

// AuthState exposes the one bit of session state the guard reads.
type AuthState interface {
	IsAuthenticated() bool
}

// Guard decides, before each navigation, whether to proceed or redirect.
// It is a pure function of the target route's auth requirement and the
// live session state; nothing is retained between evaluations.
type Guard struct {
	auth AuthState
}

// NewGuard creates a guard reading authentication state from auth.
func NewGuard(auth AuthState) *Guard {
	return &Guard{auth: auth}
}

// Evaluate applies the guard table to a navigation target:
//
//   - auth-required route, unauthenticated: redirect to the login page,
//     preserving the attempted path in the redirect query parameter
//   - login page, already authenticated: redirect to the products page
//   - anything else: proceed
func (g *Guard) Evaluate(path string) Decision {
	r := Resolve(path)
	authed := g.auth.IsAuthenticated()

	if r.RequiresAuth && !authed {
		return Decision{
			Action: Redirect,
			Target: PathLogin,
			Query:  url.Values{"redirect": []string{path}},
		}
	}

	if r.Path == PathLogin && authed {
		return Decision{
			Action: Redirect,
			Target: PathProducts,
		}
	}

	return Decision{Action: Proceed}
}
