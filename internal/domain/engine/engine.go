// Package engine runs the curation economy round by round: it pairs posts,
// collects curator votes, updates ratings, scores curators and settles the
// reward pool.
package engine

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cesarion161/clawgic/internal/domain/elo"
	"github.com/cesarion161/clawgic/internal/domain/model"
	"github.com/cesarion161/clawgic/internal/domain/scoring"
	"github.com/cesarion161/clawgic/pkg/logger"
	"github.com/cesarion161/clawgic/pkg/metrics"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithVoter replaces the simulated voter.
func WithVoter(v Voter) Option {
	return func(e *Engine) {
		if v != nil {
			e.voter = v
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithScoringOptions configures the scoring ledger.
func WithScoringOptions(opts ...scoring.Option) Option {
	return func(e *Engine) {
		e.ledgerOpts = append(e.ledgerOpts, opts...)
	}
}

// GoldenPair is a comparison with a known correct side.
type GoldenPair struct {
	LeftID  string     `json:"left_id" validate:"required"`
	RightID string     `json:"right_id" validate:"required,nefield=LeftID"`
	Answer  model.Vote `json:"answer"`
}

// Engine holds one independent simulation. It is not safe for concurrent use.
type Engine struct {
	cfg Config
	rng *rand.Rand
	elo *elo.System

	ledger     *scoring.Ledger
	ledgerOpts []scoring.Option
	pool       *model.GlobalPool
	voter      Voter
	log        logger.Logger

	curators   []*model.Curator
	curatorIdx map[string]*model.Curator
	posts      []*model.Post
	postIdx    map[string]*model.Post
	golden     []GoldenPair

	rounds []*model.Round
}

// New validates cfg and returns an empty simulation.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pool, err := model.NewGlobalPool(cfg.Alpha)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:        cfg,
		rng:        rand.New(rand.NewSource(cfg.RandomSeed)), //nolint:gosec // seeded for reproducible rounds
		elo:        elo.New(cfg.BaseK),
		pool:       pool,
		log:        logger.NewNop(),
		curatorIdx: make(map[string]*model.Curator),
		postIdx:    make(map[string]*model.Post),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.voter == nil {
		e.voter = NewSimulatedVoter(DefaultVoterAccuracy, DefaultNoRevealRate)
	}
	e.ledger = scoring.NewLedger(e.ledgerOpts...)
	return e, nil
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// AddCurator registers c. Its score record is shared with the scoring ledger.
func (e *Engine) AddCurator(c *model.Curator) error {
	if c == nil || c.ID == "" {
		return fmt.Errorf("%w: curator id is required", model.ErrConfiguration)
	}
	if err := checkCurator(c); err != nil {
		return err
	}
	if _, ok := e.curatorIdx[c.ID]; ok {
		return fmt.Errorf("%w: curator %s", model.ErrDuplicateID, c.ID)
	}
	if c.Score == nil {
		c.Score = model.NewCuratorScore(c.ID)
	}
	e.ledger.Track(c.Score)
	e.curators = append(e.curators, c)
	e.curatorIdx[c.ID] = c
	return nil
}

// AddPost registers p.
func (e *Engine) AddPost(p *model.Post) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("%w: post id is required", model.ErrConfiguration)
	}
	if err := checkPost(p); err != nil {
		return err
	}
	if _, ok := e.postIdx[p.ID]; ok {
		return fmt.Errorf("%w: post %s", model.ErrDuplicateID, p.ID)
	}
	e.posts = append(e.posts, p)
	e.postIdx[p.ID] = p
	return nil
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

func checkCurator(c *model.Curator) error {
	if !finite(c.Stake) || c.Stake < 0 {
		return fmt.Errorf("%w: curator %s stake %v must be a finite non-negative number", model.ErrConfiguration, c.ID, c.Stake)
	}
	if !finite(c.EloRating) {
		return fmt.Errorf("%w: curator %s rating %v is not finite", model.ErrConfiguration, c.ID, c.EloRating)
	}
	return nil
}

func checkPost(p *model.Post) error {
	if !finite(p.EloRating) {
		return fmt.Errorf("%w: post %s rating %v is not finite", model.ErrConfiguration, p.ID, p.EloRating)
	}
	return nil
}

// AddGoldenPair registers a Golden Set item sampled when a round brings none.
func (e *Engine) AddGoldenPair(leftID, rightID string, answer model.Vote) error {
	g := GoldenPair{LeftID: leftID, RightID: rightID, Answer: answer}
	if err := e.checkGolden(g); err != nil {
		return err
	}
	e.golden = append(e.golden, g)
	return nil
}

func (e *Engine) checkGolden(g GoldenPair) error {
	if err := validate.Struct(g); err != nil {
		return fmt.Errorf("%w: golden pair: %w", model.ErrConfiguration, err)
	}
	if !g.Answer.Revealed() {
		return fmt.Errorf("%w: golden answer must be left or right, got %s", model.ErrInvalidVote, g.Answer)
	}
	for _, id := range []string{g.LeftID, g.RightID} {
		if _, ok := e.postIdx[id]; !ok {
			return fmt.Errorf("%w: %s", model.ErrUnknownPost, id)
		}
	}
	return nil
}

// Reinstate lifts a curator's suspension. Reinstating an active curator is a no-op.
func (e *Engine) Reinstate(curatorID string) error {
	c, ok := e.curatorIdx[curatorID]
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrUnknownCurator, curatorID)
	}
	if c.Suspended {
		c.Reinstate()
		metrics.RecordReinstatement()
	}
	return nil
}

// Pool returns the reward pool.
func (e *Engine) Pool() *model.GlobalPool { return e.pool }

// Ledger returns the scoring ledger.
func (e *Engine) Ledger() *scoring.Ledger { return e.ledger }

// Curators returns the curators in registration order.
func (e *Engine) Curators() []*model.Curator {
	return append([]*model.Curator(nil), e.curators...)
}

// Posts returns the posts in registration order.
func (e *Engine) Posts() []*model.Post {
	return append([]*model.Post(nil), e.posts...)
}

// GoldenPairs returns the registered Golden Set.
func (e *Engine) GoldenPairs() []GoldenPair {
	return append([]GoldenPair(nil), e.golden...)
}

// Curator looks a curator up by id.
func (e *Engine) Curator(id string) (*model.Curator, error) {
	c, ok := e.curatorIdx[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownCurator, id)
	}
	return c, nil
}

// Post looks a post up by id.
func (e *Engine) Post(id string) (*model.Post, error) {
	p, ok := e.postIdx[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownPost, id)
	}
	return p, nil
}

// Rounds returns the round history, oldest first.
func (e *Engine) Rounds() []*model.Round {
	return append([]*model.Round(nil), e.rounds...)
}

// Round returns round id (1-based).
func (e *Engine) Round(id int) (*model.Round, error) {
	if id < 1 || id > len(e.rounds) {
		return nil, fmt.Errorf("%w: %d", model.ErrUnknownRound, id)
	}
	return e.rounds[id-1], nil
}

func (e *Engine) activeCurators() []*model.Curator {
	var out []*model.Curator
	for _, c := range e.curators {
		if !c.Suspended {
			out = append(out, c)
		}
	}
	return out
}
