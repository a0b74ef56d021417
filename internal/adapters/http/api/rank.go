package api

import (
	"net/http"
)

// handleRank handles GET /rank/{post_id}.
func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	entry, err := s.deps.PostRank(r.Context(), r.PathValue("post_id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleGetCurator handles GET /curators/{id}.
func (s *Server) handleGetCurator(w http.ResponseWriter, r *http.Request) {
	view, err := s.deps.Curator(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
