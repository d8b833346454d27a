package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tetherhq/tether/internal/store"
)

// relView is a relationship enriched with the names of both people.
type relView struct {
	store.Relationship
	Person1Name string `json:"person1_name,omitempty"`
	Person2Name string `json:"person2_name,omitempty"`
}

func (s *Server) buildRelView(rel *store.Relationship) (*relView, error) {
	v := &relView{Relationship: *rel}
	if p, err := s.db.GetPerson(rel.Person1ID); err != nil {
		return nil, err
	} else if p != nil {
		v.Person1Name = p.Name
	}
	if p, err := s.db.GetPerson(rel.Person2ID); err != nil {
		return nil, err
	} else if p != nil {
		v.Person2Name = p.Name
	}
	return v, nil
}

func (s *Server) handleListRelationships(w http.ResponseWriter, r *http.Request) {
	var rels []store.Relationship
	var err error
	if pid := r.URL.Query().Get("person"); pid != "" {
		rels, err = s.db.RelationshipsForPerson(pid)
	} else {
		rels, err = s.db.ListRelationships()
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	views := make([]relView, 0, len(rels))
	for i := range rels {
		v, err := s.buildRelView(&rels[i])
		if err != nil {
			s.fail(w, r, err)
			return
		}
		views = append(views, *v)
	}
	s.respond(w, http.StatusOK, views)
}

func (s *Server) handleCreateRelationship(w http.ResponseWriter, r *http.Request) {
	var rel store.Relationship
	if err := json.NewDecoder(r.Body).Decode(&rel); err != nil {
		s.badRequest(w, "invalid json")
		return
	}
	rel.CreatedBy = viewer(r).ID

	if err := s.db.CreateRelationship(&rel); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, rel)
}

func (s *Server) handleGetRelationship(w http.ResponseWriter, r *http.Request) {
	rel, err := s.db.GetRelationship(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if rel == nil {
		s.notFound(w)
		return
	}

	v, err := s.buildRelView(rel)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, v)
}

func (s *Server) handleUpdateRelationship(w http.ResponseWriter, r *http.Request) {
	var rel store.Relationship
	if err := json.NewDecoder(r.Body).Decode(&rel); err != nil {
		s.badRequest(w, "invalid json")
		return
	}
	rel.ID = chi.URLParam(r, "id")

	if err := s.db.UpdateRelationship(&rel); err != nil {
		s.fail(w, r, err)
		return
	}

	updated, err := s.db.GetRelationship(rel.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteRelationship(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteRelationship(chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"status": "deleted"})
}
