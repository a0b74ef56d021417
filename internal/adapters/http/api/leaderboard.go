package api

import (
	"net/http"
)

// handleLeaderboard handles GET /leaderboard?limit=N for posts.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	n, err := s.parseLimit(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	entries, err := s.deps.TopPosts(r.Context(), n)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleCuratorLeaderboard handles GET /curators?limit=N.
func (s *Server) handleCuratorLeaderboard(w http.ResponseWriter, r *http.Request) {
	n, err := s.parseLimit(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	entries, err := s.deps.TopCurators(r.Context(), n)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
