package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/techpulse/techpulse/internal/auth"
	"github.com/techpulse/techpulse/internal/model"
	"github.com/techpulse/techpulse/internal/store"
)

// SessionCookieName holds the opaque session token on the client side.
const SessionCookieName = "techpulse_session"

// WithSession resolves the session cookie to a principal and stamps session
// activity. Requests without a valid session pass through anonymous; the
// Require* wrappers do the gating.
func WithSession(sessions *store.SessionStore, admins *store.AdminStore, users *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := sessions.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				next.ServeHTTP(w, r)
				return
			}

			p := resolvePrincipal(sess, admins, users)
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}

			sessions.Touch(sess.ID)
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}

func resolvePrincipal(sess *model.Session, admins *store.AdminStore, users *store.UserStore) auth.Principal {
	switch sess.Kind {
	case model.SessionKindAdmin:
		if sess.AdminID == nil {
			return nil
		}
		admin, err := admins.GetByID(*sess.AdminID)
		if err != nil || admin == nil {
			return nil
		}
		return auth.AdminPrincipal{
			AdminID:   admin.ID,
			Username:  admin.Username,
			SessionID: sess.ID,
		}
	case model.SessionKindUser:
		if sess.UserID == nil {
			return nil
		}
		user, err := users.GetByID(*sess.UserID)
		if err != nil || user == nil {
			return nil
		}
		return auth.UserPrincipal{
			UserID:    user.ID,
			Email:     user.Email,
			Name:      user.Name,
			SessionID: sess.ID,
		}
	}
	return nil
}

// RequireAdmin gates admin-only routes. It answers 401 for anonymous and
// user sessions alike, so callers cannot probe for route existence.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser gates routes that need an authenticated end user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.UserFromContext(r.Context()); !ok {
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "Authentication required"})
}
