// Package scoring keeps the per-curator score ledger and turns a round's votes
// into reward multipliers and slash decisions.
package scoring

import (
	"maps"
	"slices"

	"github.com/cesarion161/clawgic/internal/domain/model"
)

// Default tier configuration.
const (
	defaultFullThreshold     = model.FullRewardsThreshold
	defaultReducedThreshold  = model.ReducedRewardsThreshold
	defaultReducedMultiplier = 0.5
	defaultSlashFraction     = 0.10
)

// Option applies a configuration option to the Ledger.
type Option func(*Ledger)

// WithThresholds sets the full and reduced reward thresholds. Ignored unless full > reduced.
func WithThresholds(full, reduced float64) Option {
	return func(l *Ledger) {
		if full > reduced {
			l.fullThreshold = full
			l.reducedThreshold = reduced
		}
	}
}

// WithReducedMultiplier sets the payout multiplier of the reduced tier.
func WithReducedMultiplier(m float64) Option {
	return func(l *Ledger) {
		if m >= 0 && m <= 1 {
			l.reducedMultiplier = m
		}
	}
}

// WithSlashFraction sets the share of stake forfeited on suspension.
func WithSlashFraction(f float64) Option {
	return func(l *Ledger) {
		if f >= 0 && f <= 1 {
			l.slashFraction = f
		}
	}
}

// WithWeights sets the score weights applied to every score the ledger tracks.
func WithWeights(w model.ScoreWeights) Option {
	return func(l *Ledger) {
		l.weights = w
	}
}

// Decision is the outcome of scoring one curator for one round.
type Decision struct {
	CuratorID   string  `json:"curator_id"`
	Score       float64 `json:"score"`
	Multiplier  float64 `json:"multiplier"`
	Suspend     bool    `json:"suspend"`
	SlashAmount float64 `json:"slash_amount"`
}

// Ledger maps curator ids to their scores. It is not safe for concurrent use.
type Ledger struct {
	scores map[string]*model.CuratorScore

	weights           model.ScoreWeights
	fullThreshold     float64
	reducedThreshold  float64
	reducedMultiplier float64
	slashFraction     float64
}

// NewLedger creates an empty ledger.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		scores:            make(map[string]*model.CuratorScore),
		weights:           model.DefaultScoreWeights(),
		fullThreshold:     defaultFullThreshold,
		reducedThreshold:  defaultReducedThreshold,
		reducedMultiplier: defaultReducedMultiplier,
		slashFraction:     defaultSlashFraction,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Track adopts an existing score record so the ledger and its owner share state.
func (l *Ledger) Track(s *model.CuratorScore) {
	s.Weights = l.weights
	l.scores[s.CuratorID] = s
}

// ScoreFor returns the curator's score, creating a zeroed one on first use.
func (l *Ledger) ScoreFor(curatorID string) *model.CuratorScore {
	if s, ok := l.scores[curatorID]; ok {
		return s
	}
	s := model.NewCuratorScore(curatorID)
	s.Weights = l.weights
	l.scores[curatorID] = s
	return s
}

// CuratorIDs returns the tracked ids, sorted.
func (l *Ledger) CuratorIDs() []string {
	return slices.Sorted(maps.Keys(l.scores))
}

// FlagBehavioralAnomaly records one fraud flag against the curator.
func (l *Ledger) FlagBehavioralAnomaly(curatorID string) {
	l.ScoreFor(curatorID).FraudFlags++
}

// RewardMultiplier maps a score to its payout tier.
func (l *Ledger) RewardMultiplier(score float64) float64 {
	switch {
	case score >= l.fullThreshold:
		return 1
	case score >= l.reducedThreshold:
		return l.reducedMultiplier
	default:
		return 0
	}
}

// ShouldSuspend reports a score below the reduced tier.
func (l *Ledger) ShouldSuspend(score float64) bool {
	return score < l.reducedThreshold
}

// SlashAmount is the stake forfeited at the given score.
func (l *Ledger) SlashAmount(score, stake float64) float64 {
	if !l.ShouldSuspend(score) || stake <= 0 {
		return 0
	}
	return stake * l.slashFraction
}

// ProcessRoundMetrics scores every curator in curators against the round's pairs.
// Each rate is replaced by this round's ratio. Stake is not touched; applying
// the slash is up to the caller. history may be nil.
func (l *Ledger) ProcessRoundMetrics(pairs []*model.Pair, curators []*model.Curator, history History) map[string]Decision {
	metrics := CollectMetrics(pairs, curators, history)
	out := make(map[string]Decision, len(curators))
	for _, c := range curators {
		m := metrics[c.ID]
		s := l.ScoreFor(c.ID)
		s.CalibrationRate = m.CalibrationRate()
		s.AuditPassRate = m.AuditPassRate()
		s.AlignmentStability = m.AlignmentStability()

		score := s.Calculate()
		out[c.ID] = Decision{
			CuratorID:   c.ID,
			Score:       score,
			Multiplier:  l.RewardMultiplier(score),
			Suspend:     l.ShouldSuspend(score),
			SlashAmount: l.SlashAmount(score, c.Stake),
		}
	}
	return out
}
