package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// SessionCookie carries the anonymous account ID between requests.
	SessionCookie = "mg_session"
	// SessionHeader lets non-browser clients pin their account explicitly.
	SessionHeader = "X-Session-ID"
)

// Session resolves the account identity for every request without ever
// rejecting it. A valid bearer token wins; otherwise the session header,
// then the session cookie; a brand-new visitor gets a fresh ID and a
// cookie so their balance and tasks survive across requests.
func Session(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accountID := accountFromBearer(r, jwtSecret)
			if accountID == "" {
				accountID = sanitizeSessionID(r.Header.Get(SessionHeader))
			}
			if accountID == "" {
				if c, err := r.Cookie(SessionCookie); err == nil {
					accountID = sanitizeSessionID(c.Value)
				}
			}
			if accountID == "" {
				accountID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    accountID,
					Path:     "/",
					Expires:  time.Now().Add(365 * 24 * time.Hour),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), accountID)))
		})
	}
}

func accountFromBearer(r *http.Request, secret string) string {
	if secret == "" {
		return ""
	}
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	claims, err := VerifyJWT(secret, parts[1])
	if err != nil {
		return ""
	}
	return strings.TrimSpace(claims.Sub)
}

// sanitizeSessionID keeps session IDs to a safe shape. Anything that is not
// a short printable token is discarded and replaced.
func sanitizeSessionID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > 128 {
		return ""
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == ':' || r == '.':
		default:
			return ""
		}
	}
	return id
}
