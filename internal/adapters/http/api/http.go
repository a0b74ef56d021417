// Package api exposes the simulation over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/cesarion161/clawgic/internal/adapters/mq/queue"
	"github.com/cesarion161/clawgic/internal/adapters/repository"
	"github.com/cesarion161/clawgic/internal/domain/model"
	"github.com/cesarion161/clawgic/internal/domain/types"
	"github.com/cesarion161/clawgic/pkg/logger"
)

const (
	defaultMaxLimit   = 100
	defaultRoundRate  = 5
	defaultRoundBurst = 10
)

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// RoundDependencies submit and report rounds.
type RoundDependencies interface {
	SubmitRound(ctx context.Context, req queue.RoundRequest) (types.RequestStatus, error)
	Request(ctx context.Context, id string) (types.RequestStatus, error)
	Round(ctx context.Context, id int) (types.RoundView, error)
}

// LeaderboardDependencies read the post and curator leaderboards.
type LeaderboardDependencies interface {
	TopPosts(ctx context.Context, n int) ([]Entry, error)
	PostRank(ctx context.Context, postID string) (Entry, error)
	TopCurators(ctx context.Context, n int) ([]Entry, error)
	Curator(ctx context.Context, id string) (types.CuratorView, error)
}

// RegistryDependencies register entities.
type RegistryDependencies interface {
	AddCurator(ctx context.Context, id string, stake float64) error
	AddPost(ctx context.Context, id, content string) error
	AddGoldenPair(ctx context.Context, leftID, rightID string, answer model.Vote) error
	Reinstate(ctx context.Context, curatorID string) error
}

// StatsProvider reports simulation statistics.
type StatsProvider interface {
	Stats(ctx context.Context) types.Stats
}

// Dependencies bundles everything the handlers need.
type Dependencies interface {
	RoundDependencies
	LeaderboardDependencies
	RegistryDependencies
	StatsProvider
}

// Server wires HTTP routes for the simulation API.
type Server struct {
	deps     Dependencies
	maxLimit int
	limiter  *rate.Limiter
	logger   logger.Logger
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:     deps,
		maxLimit: defaultMaxLimit,
		limiter:  rate.NewLimiter(defaultRoundRate, defaultRoundBurst),
		logger:   logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", MetricsMiddleware(HandleHealth, "metrics"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.handleStats, "stats"))

	mux.HandleFunc("POST /rounds", MetricsMiddleware(s.handlePostRound, "rounds"))
	mux.HandleFunc("GET /rounds/{id}", MetricsMiddleware(s.handleGetRound, "round"))
	mux.HandleFunc("GET /requests/{id}", MetricsMiddleware(s.handleGetRequest, "request"))

	mux.HandleFunc("GET /leaderboard", MetricsMiddleware(s.handleLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /rank/{post_id}", MetricsMiddleware(s.handleRank, "rank"))
	mux.HandleFunc("GET /curators", MetricsMiddleware(s.handleCuratorLeaderboard, "curators"))
	mux.HandleFunc("GET /curators/{id}", MetricsMiddleware(s.handleGetCurator, "curator"))

	mux.HandleFunc("POST /posts", MetricsMiddleware(s.handlePostPost, "posts"))
	mux.HandleFunc("POST /curators", MetricsMiddleware(s.handlePostCurator, "curators"))
	mux.HandleFunc("POST /curators/{id}/reinstate", MetricsMiddleware(s.handleReinstate, "reinstate"))
	mux.HandleFunc("POST /golden", MetricsMiddleware(s.handlePostGolden, "golden"))
}

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// statusFor maps domain error kinds onto HTTP statuses.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrDuplicateID):
		return http.StatusConflict, "conflict"
	case errors.Is(err, model.ErrUnknownCurator),
		errors.Is(err, model.ErrUnknownPost),
		errors.Is(err, model.ErrUnknownRound),
		errors.Is(err, model.ErrUnknownRequest),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrConfiguration),
		errors.Is(err, model.ErrInvalidVote),
		errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, repository.ErrInvalidValue),
		errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, queue.ErrFull), errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, queue.ErrClosed):
		return http.StatusServiceUnavailable, "shutting_down"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}

// parseLimit reads ?limit=N, defaulting to 10 and capped by maxLimit.
func (s *Server) parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return min(10, s.maxLimit), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest)
	}
	if n > s.maxLimit {
		return 0, fmt.Errorf("%w: limit exceeds maximum of %d", ErrBadRequest, s.maxLimit)
	}
	return n, nil
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}
