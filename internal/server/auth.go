package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tetherhq/tether/internal/store"
)

// SessionCookie is the name of the session cookie set on login.
const SessionCookie = "tether_session"

type ctxKey int

const userKey ctxKey = 0

// viewer returns the authenticated user for a request. Handlers behind
// requireAuth may assume it is non-nil.
func viewer(r *http.Request) *store.User {
	u, _ := r.Context().Value(userKey).(*store.User)
	return u
}

// token extracts the session token from the cookie or, failing that,
// a bearer Authorization header.
func token(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// requireAuth rejects requests without a live session before any core
// logic runs.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t := token(r)
		if t == "" {
			s.respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			return
		}
		sess, err := s.db.GetAuthSession(t)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if sess == nil {
			s.respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			return
		}
		u, err := s.db.GetUser(sess.UserID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if u == nil {
			s.respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid json")
		return
	}

	u, err := s.db.Authenticate(req.Username, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if u == nil {
		s.respond(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	sess, err := s.db.CreateAuthSession(u.ID, s.sessionTTL)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.sessionTTL.Seconds()),
	})
	s.respond(w, http.StatusOK, map[string]any{
		"token": sess.Token,
		"user":  u,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if t := token(r); t != "" {
		if err := s.db.DeleteAuthSession(t); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	s.respond(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, viewer(r))
}
