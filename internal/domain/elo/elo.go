// Package elo implements the stake-weighted ELO updates applied to posts and curators.
package elo

import (
	"math"

	"github.com/cesarion161/clawgic/internal/domain/model"
)

// DefaultBaseK is the rating-update magnitude with no stake behind a comparison.
const DefaultBaseK = 32.0

// stakeScale is the stake at which K doubles.
const stakeScale = 10000.0

// System computes rating updates. It holds no state besides base K.
type System struct {
	baseK float64
}

// New returns a System with the given base K. Non-positive values fall back to DefaultBaseK.
func New(baseK float64) *System {
	if baseK <= 0 || math.IsNaN(baseK) {
		baseK = DefaultBaseK
	}
	return &System{baseK: baseK}
}

// BaseK returns the configured base K.
func (s *System) BaseK() float64 { return s.baseK }

// ExpectedScore is the probability that a player rated rx beats one rated ry.
func (s *System) ExpectedScore(rx, ry float64) float64 {
	return 1 / (1 + math.Pow(10, (ry-rx)/400))
}

// KFactor scales base K by the stake behind a comparison. Negative stake counts as zero.
func (s *System) KFactor(totalStake float64) float64 {
	return s.baseK * (1 + max(totalStake, 0)/stakeScale)
}

// UpdateRating returns r moved toward the actual outcome.
func (s *System) UpdateRating(r, expected, actual, k float64) float64 {
	return r + k*(actual-expected)
}

// UpdatePostRatings resolves one comparison won by winner. Both sides share one K.
// Win/loss counters are updated in place; the new ratings are returned for the
// caller to assign.
func (s *System) UpdatePostRatings(winner, loser *model.Post, totalStake float64) (newWinner, newLoser float64) {
	k := s.KFactor(totalStake)
	expWinner := s.ExpectedScore(winner.EloRating, loser.EloRating)
	expLoser := s.ExpectedScore(loser.EloRating, winner.EloRating)

	newWinner = s.UpdateRating(winner.EloRating, expWinner, 1, k)
	newLoser = s.UpdateRating(loser.EloRating, expLoser, 0, k)

	winner.Wins++
	winner.TotalComparisons++
	loser.Losses++
	loser.TotalComparisons++
	return newWinner, newLoser
}

// UpdateCuratorRating scores one rated vote against a fixed expectation of 0.5.
// Vote counters are updated in place; the rating is returned for the caller to assign.
func (s *System) UpdateCuratorRating(c *model.Curator, votedCorrectly bool, totalStake float64) float64 {
	actual := 0.0
	c.TotalVotes++
	if votedCorrectly {
		actual = 1
		c.CorrectVotes++
	}
	return s.UpdateRating(c.EloRating, 0.5, actual, s.KFactor(totalStake))
}
