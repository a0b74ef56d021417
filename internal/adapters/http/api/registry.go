package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/cesarion161/clawgic/internal/domain/model"
)

type postRequest struct {
	PostID  string `json:"post_id"`
	Content string `json:"content"`
}

type curatorRequest struct {
	CuratorID string  `json:"curator_id"`
	Stake     float64 `json:"stake"`
}

type goldenRequest struct {
	LeftID  string     `json:"left_id"`
	RightID string     `json:"right_id"`
	Answer  model.Vote `json:"answer"`
}

type createdResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// handlePostPost handles POST /posts.
func (s *Server) handlePostPost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.PostID) == "" {
		s.fail(w, r, fmt.Errorf("%w: missing post_id", ErrBadRequest))
		return
	}
	if err := s.deps.AddPost(r.Context(), req.PostID, req.Content); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: req.PostID, Status: "created"})
}

// handlePostCurator handles POST /curators.
func (s *Server) handlePostCurator(w http.ResponseWriter, r *http.Request) {
	var req curatorRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.CuratorID) == "" {
		s.fail(w, r, fmt.Errorf("%w: missing curator_id", ErrBadRequest))
		return
	}
	if err := s.deps.AddCurator(r.Context(), req.CuratorID, req.Stake); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: req.CuratorID, Status: "created"})
}

// handleReinstate handles POST /curators/{id}/reinstate.
func (s *Server) handleReinstate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.deps.Reinstate(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, createdResponse{ID: id, Status: "reinstated"})
}

// handlePostGolden handles POST /golden.
func (s *Server) handlePostGolden(w http.ResponseWriter, r *http.Request) {
	var req goldenRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.deps.AddGoldenPair(r.Context(), req.LeftID, req.RightID, req.Answer); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: req.LeftID + ":" + req.RightID, Status: "created"})
}
