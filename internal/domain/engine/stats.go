package engine

import (
	"math"

	"github.com/cesarion161/clawgic/internal/domain/model"
)

// Curator supply planning: each pair should draw this many reveals and each
// curator is expected to reveal this many times per round.
const (
	targetRevealsPerPair      = 3
	expectedRevealsPerCurator = 6
)

// Statistics is a read-only projection of the simulation state.
type Statistics struct {
	Pool              model.PoolSnapshot `json:"pool"`
	Rounds            int                `json:"rounds"`
	Curators          int                `json:"curators"`
	ActiveCurators    int                `json:"active_curators"`
	SuspendedCurators int                `json:"suspended_curators"`
	Posts             int                `json:"posts"`
	GoldenPairs       int                `json:"golden_pairs"`
	TotalStake        float64            `json:"total_stake"`
	// RequiredCurators is the curator count the last round's pairs called for.
	RequiredCurators int `json:"required_curators"`
	// SupplyRatio is active over required curators, 1 when nothing was required.
	SupplyRatio float64 `json:"supply_ratio"`
}

// Statistics summarises the current state without changing it.
func (e *Engine) Statistics() Statistics {
	s := Statistics{
		Pool:        e.pool.Snapshot(),
		Rounds:      len(e.rounds),
		Curators:    len(e.curators),
		Posts:       len(e.posts),
		GoldenPairs: len(e.golden),
	}
	for _, c := range e.curators {
		s.TotalStake += c.Stake
		if c.Suspended {
			s.SuspendedCurators++
		} else {
			s.ActiveCurators++
		}
	}
	if n := len(e.rounds); n > 0 {
		s.RequiredCurators = RequiredCurators(len(e.rounds[n-1].Pairs))
	}
	s.SupplyRatio = SupplyRatio(s.ActiveCurators, s.RequiredCurators)
	return s
}

// RequiredCurators is ceil(pairs * reveals-per-pair / reveals-per-curator).
func RequiredCurators(pairs int) int {
	if pairs <= 0 {
		return 0
	}
	return int(math.Ceil(float64(pairs*targetRevealsPerPair) / expectedRevealsPerCurator))
}

// SupplyRatio is active/required, 1 when required is zero.
func SupplyRatio(active, required int) float64 {
	if required == 0 {
		return 1
	}
	return float64(active) / float64(required)
}
