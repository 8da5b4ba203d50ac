package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/klarity-app/klarity/internal/shared"
)

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "klarity_session"

// Sessions issues and validates stateless signed session tokens. The
// only durable claim is the subject id; there is no revocation list, a
// token is valid until expiry.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	secure bool
}

// NewSessions constructs a Sessions issuer.
func NewSessions(secret string, ttl time.Duration, secure bool) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: ttl, secure: secure}
}

// Issue signs a session token for the user.
func (s *Sessions) Issue(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign session: %w", err)
	}
	return signed, nil
}

// Verify decodes a session token and returns the subject id.
func (s *Sessions) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", shared.ErrUnauthorized
	}
	return claims.Subject, nil
}

// TTL exposes the configured session lifetime.
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// SetCookie attaches the session token to the response.
func (s *Sessions) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(s.ttl),
	})
}

// ClearCookie expires the session cookie. Tokens stay valid until
// expiry; clearing the cookie is all a stateless logout can do.
func (s *Sessions) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// TokenFromRequest extracts the session token from the Authorization
// header or the session cookie. Returns "" when absent.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return token
		}
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}
