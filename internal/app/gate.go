package app

import (
	"net/http"
	"strings"

	"github.com/klarity-app/klarity/internal/shared"
)

// GateOutcome is the decision the access gate takes for a request.
type GateOutcome int

const (
	// GateAllow lets the request through to routing.
	GateAllow GateOutcome = iota
	// GateRedirectSignIn bounces the caller to the sign-in page.
	GateRedirectSignIn
	// GateRedirectDashboard bounces the caller to the dashboard.
	GateRedirectDashboard
)

type gateRule struct {
	match   func(path string, authed bool) bool
	outcome GateOutcome
}

// Gate decides, per request, whether to allow routing or redirect based
// on the target path and the caller's authentication state. The decision
// is a pure function of (path, authenticated); no state is kept between
// requests.
type Gate struct {
	signInPath      string
	dashboardPath   string
	protectedPrefix string
	skipPrefixes    []string
	skipExact       []string
	rules           []gateRule
}

// NewGate constructs the gate with the default path layout.
func NewGate() *Gate {
	g := &Gate{
		signInPath:      "/auth/signin",
		dashboardPath:   "/dashboard",
		protectedPrefix: "/dashboard",
		// API routes enforce their own 401s and static assets are not
		// pages; both stay outside the redirect rules entirely.
		skipPrefixes: []string{"/api/", "/static/"},
		skipExact:    []string{"/favicon.ico", "/healthz"},
	}
	g.rules = []gateRule{
		// Public paths. The sign-in page itself falls through so an
		// authenticated caller is bounced to the dashboard below.
		{
			match: func(path string, _ bool) bool {
				if path == "/" || path == "/auth/error" {
					return true
				}
				return strings.HasPrefix(path, "/api/auth")
			},
			outcome: GateAllow,
		},
		{
			match: func(path string, authed bool) bool {
				return !authed && strings.HasPrefix(path, g.protectedPrefix)
			},
			outcome: GateRedirectSignIn,
		},
		{
			match: func(path string, authed bool) bool {
				return authed && path == g.signInPath
			},
			outcome: GateRedirectDashboard,
		},
		{
			match:   func(string, bool) bool { return true },
			outcome: GateAllow,
		},
	}
	return g
}

// SignInPath returns the configured sign-in page path.
func (g *Gate) SignInPath() string { return g.signInPath }

// DashboardPath returns the configured dashboard path.
func (g *Gate) DashboardPath() string { return g.dashboardPath }

// Skips reports whether the path is excluded from gating altogether.
func (g *Gate) Skips(path string) bool {
	for _, exact := range g.skipExact {
		if path == exact {
			return true
		}
	}
	for _, prefix := range g.skipPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Decide evaluates the rule table top-down and returns the first match.
func (g *Gate) Decide(path string, authed bool) GateOutcome {
	for _, rule := range g.rules {
		if rule.match(path, authed) {
			return rule.outcome
		}
	}
	return GateAllow
}

// Middleware applies the gate before any handler runs.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if g.Skips(path) {
			next.ServeHTTP(w, r)
			return
		}
		authed := shared.UserFromContext(r.Context()) != ""
		switch g.Decide(path, authed) {
		case GateRedirectSignIn:
			http.Redirect(w, r, g.signInPath, http.StatusSeeOther)
		case GateRedirectDashboard:
			http.Redirect(w, r, g.dashboardPath, http.StatusSeeOther)
		default:
			next.ServeHTTP(w, r)
		}
	})
}
