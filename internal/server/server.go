// Package server exposes the tether REST API: CRUD for people,
// conversations, contact attempts and relationships, session auth, and
// the dashboard analytics endpoints.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/tetherhq/tether/internal/store"
)

// Server is the tether HTTP API server.
type Server struct {
	db         *store.DB
	router     chi.Router
	log        *zap.Logger
	version    string
	started    time.Time
	sessionTTL time.Duration
}

// New creates a Server around the given database. The logger must be
// non-nil; tests pass zap.NewNop().
func New(db *store.DB, log *zap.Logger, version string, sessionTTL time.Duration) *Server {
	s := &Server{
		db:         db,
		log:        log,
		version:    version,
		started:    time.Now(),
		sessionTTL: sessionTTL,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Post("/auth/logout", s.handleLogout)
			r.Get("/auth/user", s.handleCurrentUser)

			r.Get("/people", s.handleListPeople)
			r.Post("/people", s.handleCreatePerson)
			r.Get("/people/{id}", s.handleGetPerson)
			r.Put("/people/{id}", s.handleUpdatePerson)
			r.Delete("/people/{id}", s.handleDeletePerson)

			r.Get("/conversations", s.handleListConversations)
			r.Post("/conversations", s.handleCreateConversation)
			r.Get("/conversations/{id}", s.handleGetConversation)
			r.Put("/conversations/{id}", s.handleUpdateConversation)
			r.Delete("/conversations/{id}", s.handleDeleteConversation)

			r.Get("/contact-attempts", s.handleListAttempts)
			r.Post("/contact-attempts", s.handleCreateAttempt)
			r.Get("/contact-attempts/{id}", s.handleGetAttempt)
			r.Put("/contact-attempts/{id}", s.handleUpdateAttempt)
			r.Delete("/contact-attempts/{id}", s.handleDeleteAttempt)

			r.Get("/relationships", s.handleListRelationships)
			r.Post("/relationships", s.handleCreateRelationship)
			r.Get("/relationships/{id}", s.handleGetRelationship)
			r.Put("/relationships/{id}", s.handleUpdateRelationship)
			r.Delete("/relationships/{id}", s.handleDeleteRelationship)

			r.Get("/dashboard", s.handleDashboard)
			r.Get("/birthdays", s.handleBirthdays)

			r.Get("/suggestions/locations", s.handleLocationSuggestions)
			r.Get("/suggestions/companies", s.handleCompanySuggestions)
		})
	})

	s.router = r
}

// logRequests logs one line per request with method, path, status and
// duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	s.respond(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
	})
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// fail maps store errors to the API error taxonomy: validation errors
// become 400 with the offending field, not-found becomes 404, anything
// else is logged and becomes a 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *store.ValidationError
	if errors.As(err, &verr) {
		s.respond(w, http.StatusBadRequest, map[string]string{
			"error": verr.Message,
			"field": verr.Field,
		})
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		s.notFound(w)
		return
	}
	s.log.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	s.respond(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func (s *Server) notFound(w http.ResponseWriter) {
	s.respond(w, http.StatusNotFound, map[string]string{"error": "not found"})
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	s.respond(w, http.StatusBadRequest, map[string]string{"error": msg})
}
