package http

import (
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// dashboardView is the payload for dashboard.html.
type dashboardView struct {
	Summary core.Summary
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.IdentityFromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.render(w, r, "index.html", nil)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	summary, err := s.ledger.Summarize(r.Context(), identity.UserID)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "failed to build dashboard summary",
			log.FieldUserID, identity.UserID, log.FieldError, err.Error())
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "dashboard.html", dashboardView{Summary: summary})
}
