package model

// Reward tier thresholds applied to a curator's blended score.
const (
	FullRewardsThreshold    = 0.60
	ReducedRewardsThreshold = 0.40
)

// ScoreWeights are the coefficients of the blended curator score.
type ScoreWeights struct {
	Calibration float64 `json:"calibration"`
	Alignment   float64 `json:"alignment"`
	Audit       float64 `json:"audit"`
	Fraud       float64 `json:"fraud"`
}

// DefaultScoreWeights returns the 0.40/0.25/0.20/0.15 split.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Calibration: 0.40,
		Alignment:   0.25,
		Audit:       0.20,
		Fraud:       0.15,
	}
}

// CuratorScore holds the metrics a curator is judged on. The three rates are
// the ratios observed in the most recent scored round.
type CuratorScore struct {
	CuratorID          string       `json:"curator_id"`
	CalibrationRate    float64      `json:"calibration_rate"`
	AlignmentStability float64      `json:"alignment_stability"`
	AuditPassRate      float64      `json:"audit_pass_rate"`
	FraudFlags         int          `json:"fraud_flags"`
	Weights            ScoreWeights `json:"weights"`
}

// NewCuratorScore returns a zeroed score with default weights.
func NewCuratorScore(curatorID string) *CuratorScore {
	return &CuratorScore{CuratorID: curatorID, Weights: DefaultScoreWeights()}
}

// Calculate returns w1*calibration + w2*alignment + w3*audit - w4*fraudFlags.
// The result is negative once fraud flags outweigh the rates.
func (s *CuratorScore) Calculate() float64 {
	w := s.Weights
	return w.Calibration*s.CalibrationRate +
		w.Alignment*s.AlignmentStability +
		w.Audit*s.AuditPassRate -
		w.Fraud*float64(s.FraudFlags)
}

// IsEligibleForFullRewards reports a score at or above 0.60.
func (s *CuratorScore) IsEligibleForFullRewards() bool {
	return s.Calculate() >= FullRewardsThreshold
}

// IsEligibleForReducedRewards reports a score in [0.40, 0.60).
func (s *CuratorScore) IsEligibleForReducedRewards() bool {
	score := s.Calculate()
	return score >= ReducedRewardsThreshold && score < FullRewardsThreshold
}

// ShouldBeSlashed reports a score below 0.40.
func (s *CuratorScore) ShouldBeSlashed() bool {
	return s.Calculate() < ReducedRewardsThreshold
}

// Curator is a staked participant who votes on pairs.
type Curator struct {
	ID           string  `json:"curator_id"`
	Stake        float64 `json:"stake"`
	EloRating    float64 `json:"elo_rating"`
	TotalVotes   int     `json:"total_votes"`
	CorrectVotes int     `json:"correct_votes"`
	TotalRewards float64 `json:"total_rewards"`
	TotalSlashed float64 `json:"total_slashed"`

	// Suspended curators are skipped when votes are collected.
	Suspended bool `json:"suspended"`
	// SuspendedUntil is the last round a suspension covers; 0 means until reinstated.
	SuspendedUntil int `json:"suspended_until,omitempty"`

	Score *CuratorScore `json:"score"`
}

// NewCurator returns a curator at the default rating with its own score record.
func NewCurator(id string, stake float64) *Curator {
	return &Curator{
		ID:        id,
		Stake:     stake,
		EloRating: DefaultRating,
		Score:     NewCuratorScore(id),
	}
}

// Accuracy is the lifetime share of rated votes that were correct.
func (c *Curator) Accuracy() float64 {
	if c.TotalVotes == 0 {
		return 0
	}
	return float64(c.CorrectVotes) / float64(c.TotalVotes)
}

// Deduct removes up to amount from the stake and returns what was removed.
// Stake never goes below zero.
func (c *Curator) Deduct(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	taken := min(amount, c.Stake)
	c.Stake -= taken
	return taken
}

// Suspend marks the curator suspended through round until (0 = indefinitely).
func (c *Curator) Suspend(until int) {
	c.Suspended = true
	c.SuspendedUntil = until
}

// Reinstate lifts a suspension.
func (c *Curator) Reinstate() {
	c.Suspended = false
	c.SuspendedUntil = 0
}

// SuspensionExpired reports whether a timed suspension no longer covers round.
func (c *Curator) SuspensionExpired(round int) bool {
	return c.Suspended && c.SuspendedUntil > 0 && round > c.SuspendedUntil
}
