package engine

import (
	"math/rand"

	"github.com/cesarion161/clawgic/internal/domain/model"
)

// Defaults for the simulated voter.
const (
	DefaultVoterAccuracy = 0.80
	DefaultNoRevealRate  = 0.05
)

// Voter decides a curator's vote on a pair. Implementations must draw any
// randomness from rng so rounds stay reproducible.
type Voter interface {
	CastVote(c *model.Curator, p *model.Pair, rng *rand.Rand) model.Vote
}

// VoterFunc adapts a function to Voter.
type VoterFunc func(c *model.Curator, p *model.Pair, rng *rand.Rand) model.Vote

// CastVote implements Voter.
func (f VoterFunc) CastVote(c *model.Curator, p *model.Pair, rng *rand.Rand) model.Vote {
	return f(c, p, rng)
}

// SimulatedVoter abstains with probability NoRevealRate and otherwise picks
// the better side with probability Accuracy. The better side is the golden
// answer when one exists, else the higher-rated post (left on equal ratings).
type SimulatedVoter struct {
	Accuracy     float64
	NoRevealRate float64
}

// NewSimulatedVoter returns a voter with the given behaviour, clamped to [0, 1].
func NewSimulatedVoter(accuracy, noRevealRate float64) *SimulatedVoter {
	return &SimulatedVoter{
		Accuracy:     min(max(accuracy, 0), 1),
		NoRevealRate: min(max(noRevealRate, 0), 1),
	}
}

// CastVote implements Voter. It always draws two numbers from rng.
func (s *SimulatedVoter) CastVote(_ *model.Curator, p *model.Pair, rng *rand.Rand) model.Vote {
	abstain := rng.Float64()
	correct := rng.Float64()
	if abstain < s.NoRevealRate {
		return model.VoteNoReveal
	}
	better := model.VoteLeft
	switch {
	case p.HasGoldenAnswer():
		better = p.GoldenAnswer
	case p.Right.EloRating > p.Left.EloRating:
		better = model.VoteRight
	}
	if correct < s.Accuracy {
		return better
	}
	return better.Mirror()
}
