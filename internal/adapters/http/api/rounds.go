package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/cesarion161/clawgic/internal/adapters/mq/queue"
	"github.com/cesarion161/clawgic/internal/domain/engine"
	"github.com/cesarion161/clawgic/pkg/metrics"
)

// roundRequest is the body of POST /rounds.
type roundRequest struct {
	RequestID   string              `json:"request_id"`
	Subscribers *int                `json:"subscribers"`
	Revenue     float64             `json:"revenue"`
	Golden      []engine.GoldenPair `json:"golden"`
}

func (req roundRequest) validate() error {
	switch {
	case req.Subscribers == nil:
		return fmt.Errorf("%w: missing subscribers", ErrBadRequest)
	case *req.Subscribers < 0:
		return fmt.Errorf("%w: subscribers must not be negative", ErrBadRequest)
	case req.Revenue < 0:
		return fmt.Errorf("%w: revenue must not be negative", ErrBadRequest)
	}
	return nil
}

// handlePostRound handles POST /rounds. The round runs asynchronously; the
// response carries the request id to poll.
func (s *Server) handlePostRound(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		metrics.RecordRequestLimited()
		s.fail(w, r, ErrRateLimited)
		return
	}
	var req roundRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		s.fail(w, r, err)
		return
	}

	st, err := s.deps.SubmitRound(r.Context(), queue.RoundRequest{
		ID:          req.RequestID,
		Subscribers: *req.Subscribers,
		Revenue:     req.Revenue,
		Golden:      req.Golden,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if st.Duplicate {
		writeJSON(w, http.StatusOK, st)
		return
	}
	w.Header().Set("Location", "/requests/"+st.ID)
	writeJSON(w, http.StatusAccepted, st)
}

// handleGetRequest handles GET /requests/{id}.
func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Request(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleGetRound handles GET /rounds/{id}.
func (s *Server) handleGetRound(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: round id must be an integer", ErrBadRequest))
		return
	}
	view, err := s.deps.Round(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
