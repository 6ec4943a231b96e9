// Package auth keeps the signed-in user in a signed session cookie.
package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/tahcohcat/questagram/internal/logger"
)

const (
	sessionName = "questagram-session"
	userIDKey   = "user_id"
	maxAge      = 7 * 24 * 60 * 60
)

type contextKey struct{}

type Manager struct {
	store *sessions.CookieStore
	log   *logger.Log
}

// NewManager signs session cookies with secret. secure restricts the
// cookie to HTTPS.
func NewManager(secret string, secure bool) *Manager {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{store: store, log: logger.Named("auth")}
}

// Start signs userID into the session cookie.
func (m *Manager) Start(w http.ResponseWriter, r *http.Request, userID int) error {
	// A stale or tampered cookie still yields a usable fresh session.
	session, _ := m.store.Get(r, sessionName)
	session.Values[userIDKey] = userID
	return session.Save(r, w)
}

// End clears the session cookie.
func (m *Manager) End(w http.ResponseWriter, r *http.Request) error {
	session, _ := m.store.Get(r, sessionName)
	delete(session.Values, userIDKey)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// UserIDFromRequest returns the user ID held in the request's session.
func (m *Manager) UserIDFromRequest(r *http.Request) (int, bool) {
	session, err := m.store.Get(r, sessionName)
	if err != nil {
		return 0, false
	}
	id, ok := session.Values[userIDKey].(int)
	return id, ok && id > 0
}

// Middleware rejects requests without a session and exposes the user ID to
// the handlers behind it through UserID.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := m.UserIDFromRequest(r)
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
	})
}

// WithUserID returns a context carrying the signed-in user's ID.
func WithUserID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// UserID returns the ID stored by Middleware.
func UserID(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(contextKey{}).(int)
	return id, ok
}
