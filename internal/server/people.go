package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tetherhq/tether/internal/birthday"
	"github.com/tetherhq/tether/internal/store"
	"github.com/tetherhq/tether/internal/visibility"
)

// personView is a person enriched with derived read-only fields.
type personView struct {
	store.Person
	LastContacted   string `json:"last_contacted,omitempty"`
	BirthdayDisplay string `json:"birthday_display,omitempty"`
	Age             *int   `json:"age,omitempty"`
}

func (s *Server) buildPersonView(p *store.Person, viewerID string, today time.Time) (*personView, error) {
	partial := birthday.Partial{Month: p.BirthdayMonth, Day: p.BirthdayDay, Year: p.BirthdayYear}
	v := &personView{
		Person:          *p,
		BirthdayDisplay: birthday.Display(partial),
	}
	if age, ok := birthday.Age(partial, today); ok {
		v.Age = &age
	}

	convs, err := s.db.ConversationsForPerson(p.ID)
	if err != nil {
		return nil, err
	}
	for _, c := range convs {
		if visibility.Conversation(&c, viewerID) {
			v.LastContacted = c.Date
			break
		}
	}
	return v, nil
}

func (s *Server) handleListPeople(w http.ResponseWriter, r *http.Request) {
	people, err := s.db.ListPeople()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	viewerID := viewer(r).ID
	now := time.Now()
	views := make([]personView, 0, len(people))
	for i := range people {
		v, err := s.buildPersonView(&people[i], viewerID, now)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		views = append(views, *v)
	}
	s.respond(w, http.StatusOK, views)
}

func (s *Server) handleCreatePerson(w http.ResponseWriter, r *http.Request) {
	var p store.Person
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.badRequest(w, "invalid json")
		return
	}
	p.CreatedBy = viewer(r).ID

	if err := s.db.CreatePerson(&p); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, p)
}

func (s *Server) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	p, err := s.db.GetPerson(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if p == nil {
		s.notFound(w)
		return
	}

	v, err := s.buildPersonView(p, viewer(r).ID, time.Now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, v)
}

func (s *Server) handleUpdatePerson(w http.ResponseWriter, r *http.Request) {
	var p store.Person
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.badRequest(w, "invalid json")
		return
	}
	p.ID = chi.URLParam(r, "id")

	if err := s.db.UpdatePerson(&p); err != nil {
		s.fail(w, r, err)
		return
	}

	updated, err := s.db.GetPerson(p.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, updated)
}

func (s *Server) handleDeletePerson(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeletePerson(chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleLocationSuggestions(w http.ResponseWriter, r *http.Request) {
	values, err := s.db.Locations()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string][]string{"suggestions": values})
}

func (s *Server) handleCompanySuggestions(w http.ResponseWriter, r *http.Request) {
	values, err := s.db.Companies()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string][]string{"suggestions": values})
}
