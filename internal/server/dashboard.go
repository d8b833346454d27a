package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/tetherhq/tether/internal/dashboard"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := dashboard.Build(s.db, viewer(r).ID, time.Now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, d)
}

func (s *Server) handleBirthdays(w http.ResponseWriter, r *http.Request) {
	days := 365
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.badRequest(w, "invalid days parameter")
			return
		}
		days = n
	}

	entries, err := dashboard.BirthdayTimeline(s.db, time.Now(), days)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{
		"days":      days,
		"birthdays": entries,
	})
}
