package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tetherhq/tether/internal/store"
	"github.com/tetherhq/tether/internal/visibility"
)

// attemptView is a contact attempt enriched with the person's name.
type attemptView struct {
	store.ContactAttempt
	PersonName string `json:"person_name,omitempty"`
}

func (s *Server) buildAttemptView(a *store.ContactAttempt) (*attemptView, error) {
	v := &attemptView{ContactAttempt: *a}
	p, err := s.db.GetPerson(a.PersonID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		v.PersonName = p.Name
	}
	return v, nil
}

func (s *Server) getVisibleAttempt(r *http.Request) (*store.ContactAttempt, error) {
	a, err := s.db.GetAttempt(chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	if a == nil || !visibility.Attempt(a, viewer(r).ID) {
		return nil, nil
	}
	return a, nil
}

func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := s.db.ListAttempts()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	attempts = visibility.FilterAttempts(attempts, viewer(r).ID)

	views := make([]attemptView, 0, len(attempts))
	for i := range attempts {
		v, err := s.buildAttemptView(&attempts[i])
		if err != nil {
			s.fail(w, r, err)
			return
		}
		views = append(views, *v)
	}
	s.respond(w, http.StatusOK, views)
}

func (s *Server) handleCreateAttempt(w http.ResponseWriter, r *http.Request) {
	var a store.ContactAttempt
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		s.badRequest(w, "invalid json")
		return
	}
	a.CreatedBy = viewer(r).ID

	if err := s.db.CreateAttempt(&a); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, a)
}

func (s *Server) handleGetAttempt(w http.ResponseWriter, r *http.Request) {
	a, err := s.getVisibleAttempt(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if a == nil {
		s.notFound(w)
		return
	}

	v, err := s.buildAttemptView(a)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, v)
}

func (s *Server) handleUpdateAttempt(w http.ResponseWriter, r *http.Request) {
	existing, err := s.getVisibleAttempt(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if existing == nil {
		s.notFound(w)
		return
	}

	var a store.ContactAttempt
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		s.badRequest(w, "invalid json")
		return
	}
	a.ID = existing.ID

	if err := s.db.UpdateAttempt(&a); err != nil {
		s.fail(w, r, err)
		return
	}

	updated, err := s.db.GetAttempt(a.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteAttempt(w http.ResponseWriter, r *http.Request) {
	existing, err := s.getVisibleAttempt(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if existing == nil {
		s.notFound(w)
		return
	}

	if err := s.db.DeleteAttempt(existing.ID); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"status": "deleted"})
}
