// Package service wires the simulation engine to the request pipeline and the
// leaderboards, and implements the dependencies the HTTP API needs.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cesarion161/clawgic/internal/adapters/mq/queue"
	"github.com/cesarion161/clawgic/internal/adapters/mq/worker"
	"github.com/cesarion161/clawgic/internal/adapters/repository"
	"github.com/cesarion161/clawgic/internal/config"
	"github.com/cesarion161/clawgic/internal/domain/dedupe"
	"github.com/cesarion161/clawgic/internal/domain/engine"
	"github.com/cesarion161/clawgic/internal/domain/model"
	"github.com/cesarion161/clawgic/internal/domain/types"
	"github.com/cesarion161/clawgic/pkg/logger"
	"github.com/cesarion161/clawgic/pkg/metrics"
)

const tracerName = "github.com/cesarion161/clawgic/internal/app"

// Service owns one simulation. The engine is single-threaded, so every
// access to it goes through mu; rounds are additionally serialized by the
// single worker.
type Service struct {
	mu sync.RWMutex

	cfg      *config.Config
	engine   *engine.Engine
	posts    repository.RatingStore
	curators repository.RatingStore
	results  map[int][]engine.Result

	// requests tracks submitted round requests; order bounds it like the deduper.
	requests     map[string]*types.RequestStatus
	requestOrder []string

	deduper dedupe.Deduper
	queue   *queue.InMemoryQueue
	worker  *worker.InMemoryWorker

	voter  engine.Voter
	tracer trace.Tracer
	logger logger.Logger

	started bool
}

// New builds a service from cfg, which defaults to config.New() when nil.
// The configured initial balance is deposited into the pool.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.New()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		cfg:      cfg,
		results:  make(map[int][]engine.Result),
		requests: make(map[string]*types.RequestStatus),
		logger:   logger.NewNop(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.voter == nil {
		s.voter = engine.NewSimulatedVoter(cfg.VoterAccuracy, cfg.VoterNoRevealRate)
	}

	eng, err := engine.New(cfg.EngineConfig(),
		engine.WithVoter(s.voter),
		engine.WithLogger(s.logger.Named("engine")),
	)
	if err != nil {
		return nil, err
	}
	if cfg.InitialPoolBalance > 0 {
		if err := eng.Pool().AddSubscription(cfg.InitialPoolBalance); err != nil {
			return nil, err
		}
		metrics.UpdatePoolBalance(eng.Pool().Balance())
	}
	s.engine = eng

	seed := uint64(cfg.RandomSeed)
	s.posts = repository.NewTreapStore(repository.WithKind(types.KindPosts), repository.WithSeed(seed))
	s.curators = repository.NewTreapStore(repository.WithKind(types.KindCurators), repository.WithSeed(seed))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(cfg.DedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(cfg.QueueSize))
	s.worker = worker.NewInMemoryWorker(s.queue, s,
		worker.WithName("rounds"),
		worker.WithLogger(s.logger),
	)
	return s, nil
}

// Start launches the round worker. It runs until ctx ends or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	go s.worker.Run(ctx)
	s.started = true
	s.logger.Info(ctx, "curation service started",
		logger.Int("queue_size", s.cfg.QueueSize),
		logger.Int("dedupe_size", s.cfg.DedupeSize),
		logger.Float64("pool_balance", s.engine.Pool().Balance()),
	)
	return nil
}

// Stop closes the queue and waits for pending rounds to drain, giving up when
// ctx ends. Requests that will never run are marked failed.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()

	_ = s.queue.Close()
	var err error
	if started {
		s.logger.Info(ctx, "stopping curation service", logger.Int("pending", s.queue.Len(ctx)))
		select {
		case <-s.worker.Done():
		case <-ctx.Done():
			err = s.worker.Shutdown(ctx)
		}
	}
	for _, req := range s.queue.Drain(ctx) {
		s.AbandonRequest(ctx, req, worker.ErrStopped)
	}
	if err != nil {
		return err
	}
	if started {
		s.logger.Info(ctx, "curation service stopped")
	}
	return nil
}

// AbandonRequest marks a queued request that will never run as failed. It
// implements worker.RequestAbandoner.
func (s *Service) AbandonRequest(ctx context.Context, req queue.RoundRequest, reason error) {
	s.setStatus(types.RequestStatus{ID: req.ID, State: types.RequestFailed, Error: reason.Error()})
	s.logger.Warn(ctx, "round request not run", logger.String("request_id", req.ID), logger.Error(reason))
}

// Seed registers n curators (c001...) with stake, m posts (p001...) and up to
// golden Golden Set pairs over consecutive posts with the left post correct.
func (s *Service) Seed(ctx context.Context, curators, posts int, stake float64, golden int) error {
	for i := 1; i <= curators; i++ {
		if err := s.AddCurator(ctx, fmt.Sprintf("c%03d", i), stake); err != nil {
			return err
		}
	}
	for i := 1; i <= posts; i++ {
		if err := s.AddPost(ctx, fmt.Sprintf("p%03d", i), ""); err != nil {
			return err
		}
	}
	for i := 0; i < golden && 2*i+2 <= posts; i++ {
		left, right := fmt.Sprintf("p%03d", 2*i+1), fmt.Sprintf("p%03d", 2*i+2)
		if err := s.AddGoldenPair(ctx, left, right, model.VoteLeft); err != nil {
			return err
		}
	}
	s.logger.Info(ctx, "registries seeded",
		logger.Int("curators", curators),
		logger.Int("posts", posts),
		logger.Int("golden_pairs", min(golden, posts/2)),
	)
	return nil
}

// AddCurator registers a curator and puts it on the curator leaderboard.
func (s *Service) AddCurator(ctx context.Context, id string, stake float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := model.NewCurator(id, stake)
	if err := s.engine.AddCurator(c); err != nil {
		return err
	}
	return s.curators.Set(ctx, c.ID, c.EloRating)
}

// AddPost registers a post and puts it on the post leaderboard.
func (s *Service) AddPost(ctx context.Context, id, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := model.NewPost(id, content)
	if err := s.engine.AddPost(p); err != nil {
		return err
	}
	return s.posts.Set(ctx, p.ID, p.EloRating)
}

// AddGoldenPair registers a Golden Set item.
func (s *Service) AddGoldenPair(_ context.Context, leftID, rightID string, answer model.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.AddGoldenPair(leftID, rightID, answer)
}

// Reinstate lifts a curator's suspension.
func (s *Service) Reinstate(ctx context.Context, curatorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.Reinstate(curatorID); err != nil {
		return err
	}
	s.logger.Info(ctx, "curator reinstated", logger.String("curator_id", curatorID))
	return nil
}

// SubmitRound queues req for the worker. A missing id is generated. A request
// id seen before is not queued again; its current status is returned with
// Duplicate set.
func (s *Service) SubmitRound(ctx context.Context, req queue.RoundRequest) (types.RequestStatus, error) {
	if req.Subscribers < 0 {
		return types.RequestStatus{}, fmt.Errorf("%w: negative subscriber count %d", model.ErrConfiguration, req.Subscribers)
	}
	if math.IsNaN(req.Revenue) || math.IsInf(req.Revenue, 0) || req.Revenue < 0 {
		return types.RequestStatus{}, fmt.Errorf("%w: revenue %v", model.ErrConfiguration, req.Revenue)
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	if s.deduper.SeenAndRecord(ctx, req.ID) {
		metrics.RecordRequestDuplicate()
		st, err := s.Request(ctx, req.ID)
		if err != nil {
			// Evicted from the status table; only the id is known.
			st = types.RequestStatus{ID: req.ID, State: types.RequestDone}
		}
		st.Duplicate = true
		return st, nil
	}

	s.setStatus(types.RequestStatus{ID: req.ID, State: types.RequestQueued})
	if err := s.queue.Enqueue(ctx, req); err != nil {
		s.deduper.Unrecord(ctx, req.ID)
		s.dropStatus(req.ID)
		return types.RequestStatus{}, err
	}
	return types.RequestStatus{ID: req.ID, State: types.RequestQueued}, nil
}

// RunRequest plays a queued request. It implements worker.RoundRunner.
func (s *Service) RunRequest(ctx context.Context, req queue.RoundRequest) error {
	s.setStatus(types.RequestStatus{ID: req.ID, State: types.RequestRunning})

	round, err := s.RunRound(ctx, req)
	if err != nil {
		s.setStatus(types.RequestStatus{ID: req.ID, State: types.RequestFailed, Error: err.Error()})
		return err
	}
	s.setStatus(types.RequestStatus{ID: req.ID, State: types.RequestDone, RoundID: round.ID})
	return nil
}

// RunRound deposits the request's revenue, plays one round synchronously and
// refreshes both leaderboards.
func (s *Service) RunRound(ctx context.Context, req queue.RoundRequest) (types.RoundView, error) {
	ctx, span := s.tracer.Start(ctx, "Service.RunRound", trace.WithAttributes(
		attribute.String("request.id", req.ID),
		attribute.Int("round.subscribers", req.Subscribers),
		attribute.Float64("round.revenue", req.Revenue),
		attribute.Int("round.golden_supplied", len(req.Golden)),
	))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Revenue > 0 {
		if err := s.engine.Pool().AddSubscription(req.Revenue); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return types.RoundView{}, err
		}
	}

	round, results, err := s.engine.RunRound(ctx, req.Subscribers, req.Golden)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return types.RoundView{}, err
	}

	ordered := make([]engine.Result, 0, len(results))
	for _, r := range results {
		ordered = append(ordered, r)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].CuratorID < ordered[j].CuratorID })
	s.results[round.ID] = ordered

	if err := s.syncLeaderboards(ctx); err != nil {
		span.RecordError(err)
		return types.RoundView{}, err
	}

	counts := round.Counts()
	span.SetAttributes(
		attribute.Int("round.id", round.ID),
		attribute.Int("round.pairs", counts.Total()),
		attribute.Int("round.ties", counts.Ties),
		attribute.Float64("pool.balance", round.Pool.Balance),
	)
	return types.NewRoundView(round, ordered), nil
}

// syncLeaderboards must be called with s.mu held.
func (s *Service) syncLeaderboards(ctx context.Context) error {
	posts := make(map[string]float64)
	for _, p := range s.engine.Posts() {
		posts[p.ID] = p.EloRating
	}
	if err := s.posts.SetMany(ctx, posts); err != nil {
		return fmt.Errorf("sync post leaderboard: %w", err)
	}
	curators := make(map[string]float64)
	for _, c := range s.engine.Curators() {
		curators[c.ID] = c.EloRating
	}
	if err := s.curators.SetMany(ctx, curators); err != nil {
		return fmt.Errorf("sync curator leaderboard: %w", err)
	}
	return nil
}

// Request returns the status of a submitted round request.
func (s *Service) Request(_ context.Context, id string) (types.RequestStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.requests[id]
	if !ok {
		return types.RequestStatus{}, fmt.Errorf("%w: %s", model.ErrUnknownRequest, id)
	}
	return *st, nil
}

func (s *Service) setStatus(st types.RequestStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[st.ID]; !ok {
		s.requestOrder = append(s.requestOrder, st.ID)
		if limit := s.cfg.DedupeSize; limit > 0 && len(s.requestOrder) > limit {
			delete(s.requests, s.requestOrder[0])
			s.requestOrder = s.requestOrder[1:]
		}
	}
	s.requests[st.ID] = &st
}

func (s *Service) dropStatus(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.requests, id)
	if n := len(s.requestOrder); n > 0 && s.requestOrder[n-1] == id {
		s.requestOrder = s.requestOrder[:n-1]
	}
}

// Round returns a completed round.
func (s *Service) Round(_ context.Context, id int) (types.RoundView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, err := s.engine.Round(id)
	if err != nil {
		return types.RoundView{}, err
	}
	return types.NewRoundView(r, s.results[id]), nil
}

// TopPosts returns the n highest-rated posts.
func (s *Service) TopPosts(ctx context.Context, n int) ([]types.Entry, error) {
	return s.posts.TopN(ctx, n)
}

// PostRank returns a post's leaderboard entry.
func (s *Service) PostRank(ctx context.Context, postID string) (types.Entry, error) {
	entry, err := s.posts.Rank(ctx, postID)
	if errors.Is(err, repository.ErrNotFound) {
		return types.Entry{}, fmt.Errorf("%w: %s", model.ErrUnknownPost, postID)
	}
	return entry, err
}

// TopCurators returns the n highest-rated curators.
func (s *Service) TopCurators(ctx context.Context, n int) ([]types.Entry, error) {
	return s.curators.TopN(ctx, n)
}

// Curator returns a curator's state and leaderboard rank.
func (s *Service) Curator(ctx context.Context, id string) (types.CuratorView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.engine.Curator(id)
	if err != nil {
		return types.CuratorView{}, err
	}
	entry, err := s.curators.Rank(ctx, id)
	if err != nil {
		return types.CuratorView{}, err
	}
	return types.NewCuratorView(c, entry.Rank), nil
}

// Stats summarises the simulation and the request pipeline.
func (s *Service) Stats(ctx context.Context) types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.Stats{
		Statistics:    s.engine.Statistics(),
		QueueLength:   s.queue.Len(ctx),
		QueueCapacity: s.cfg.QueueSize,
		DedupeSize:    s.deduper.Size(),
	}
}
