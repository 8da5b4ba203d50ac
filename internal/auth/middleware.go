package auth

import (
	"net/http"

	"github.com/klarity-app/klarity/internal/platform/httpx"
	"github.com/klarity-app/klarity/internal/shared"
)

// Middleware decodes the session token, if any, into a request-scoped
// identity. An absent or invalid token leaves the request
// unauthenticated; enforcement happens in RequireUser.
func Middleware(sessions *Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := TokenFromRequest(r); token != "" {
				if userID, err := sessions.Verify(token); err == nil {
					r = r.WithContext(shared.ContextWithUser(r.Context(), userID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser rejects requests without a valid session with a uniform 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shared.UserFromContext(r.Context()) == "" {
			httpx.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
