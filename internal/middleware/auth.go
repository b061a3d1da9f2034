package middleware

import (
	"net/http"
	"strings"

	"github.com/hazelwick/spotless/internal/auth"
	"github.com/hazelwick/spotless/internal/store"
)

const (
	SessionCookieName = "spotless_session"
	PortalCookieName  = "spotless_portal"
)

// bearerToken pulls the raw credential from the Authorization header or
// the named cookie. API clients use the header; the browser UI the cookie.
func bearerToken(r *http.Request, cookieName string) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

// RequireAuth validates the panel session credential and populates the
// auth context. An invalid or absent credential is answered with 401;
// a missing session row is never treated as a server error.
func RequireAuth(sessions *store.SessionStore, users *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r, SessionCookieName)
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			sess, err := sessions.FindValidByHash(auth.HashToken(token))
			if err != nil || sess == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := users.GetByID(sess.UserID)
			if err != nil || user == nil {
				// Soft-deleted users lose access immediately even while
				// their session row is still live.
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ac := auth.Context{
				UserID:    user.ID,
				Role:      user.Role,
				SessionID: sess.ID,
			}
			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
		})
	}
}

// RequirePortal validates the customer-portal session credential.
func RequirePortal(sessions *store.PortalSessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r, PortalCookieName)
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			sess, err := sessions.FindValidByHash(auth.HashToken(token))
			if err != nil || sess == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			pc := auth.PortalContext{
				Email:     sess.Email,
				SessionID: sess.ID,
			}
			next.ServeHTTP(w, r.WithContext(auth.WithPortal(r.Context(), pc)))
		})
	}
}

// RequireAdmin checks that the authenticated user has the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
