package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tetherhq/tether/internal/store"
	"github.com/tetherhq/tether/internal/visibility"
)

// convView is a conversation enriched with participant names.
type convView struct {
	store.Conversation
	ParticipantNames []string `json:"participant_names"`
}

func (s *Server) buildConvView(c *store.Conversation) (*convView, error) {
	v := &convView{Conversation: *c}
	for _, pid := range c.Participants {
		p, err := s.db.GetPerson(pid)
		if err != nil {
			return nil, err
		}
		if p != nil {
			v.ParticipantNames = append(v.ParticipantNames, p.Name)
		}
	}
	return v, nil
}

// getVisibleConversation fetches a conversation and applies the
// visibility filter. An invisible record reads as not found, never
// forbidden.
func (s *Server) getVisibleConversation(r *http.Request) (*store.Conversation, error) {
	c, err := s.db.GetConversation(chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	if c == nil || !visibility.Conversation(c, viewer(r).ID) {
		return nil, nil
	}
	return c, nil
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	var convs []store.Conversation
	var err error
	if pid := r.URL.Query().Get("person"); pid != "" {
		convs, err = s.db.ConversationsForPerson(pid)
	} else {
		convs, err = s.db.ListConversations()
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	convs = visibility.FilterConversations(convs, viewer(r).ID)

	views := make([]convView, 0, len(convs))
	for i := range convs {
		v, err := s.buildConvView(&convs[i])
		if err != nil {
			s.fail(w, r, err)
			return
		}
		views = append(views, *v)
	}
	s.respond(w, http.StatusOK, views)
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var c store.Conversation
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		s.badRequest(w, "invalid json")
		return
	}
	c.CreatedBy = viewer(r).ID

	if err := s.db.CreateConversation(&c); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, c)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	c, err := s.getVisibleConversation(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if c == nil {
		s.notFound(w)
		return
	}

	v, err := s.buildConvView(c)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, v)
}

func (s *Server) handleUpdateConversation(w http.ResponseWriter, r *http.Request) {
	existing, err := s.getVisibleConversation(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if existing == nil {
		s.notFound(w)
		return
	}

	var c store.Conversation
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		s.badRequest(w, "invalid json")
		return
	}
	c.ID = existing.ID

	if err := s.db.UpdateConversation(&c); err != nil {
		s.fail(w, r, err)
		return
	}

	updated, err := s.db.GetConversation(c.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	existing, err := s.getVisibleConversation(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if existing == nil {
		s.notFound(w)
		return
	}

	if err := s.db.DeleteConversation(existing.ID); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"status": "deleted"})
}
