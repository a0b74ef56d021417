package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cesarion161/clawgic/internal/domain/model"
	"github.com/cesarion161/clawgic/internal/domain/scoring"
	"github.com/cesarion161/clawgic/pkg/logger"
	"github.com/cesarion161/clawgic/pkg/metrics"
)

// Result is one curator's outcome for a round.
type Result struct {
	CuratorID    string  `json:"curator_id"`
	Rewards      float64 `json:"rewards"`
	Slashed      float64 `json:"slashed"`
	MinorityLoss float64 `json:"minority_loss"`
	Score        float64 `json:"score"`
	Multiplier   float64 `json:"multiplier"`
	Suspended    bool    `json:"suspended"`
	EloRating    float64 `json:"elo_rating"`
}

// RunRound plays one round with numSubscribers driving demand. golden, when
// non-empty, replaces sampling from the registered Golden Set.
//
// The round is rejected without touching registries or the pool if the
// inputs are invalid or the voter returns an invalid vote.
func (e *Engine) RunRound(ctx context.Context, numSubscribers int, golden []GoldenPair) (*model.Round, map[string]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if numSubscribers < 0 {
		return nil, nil, fmt.Errorf("%w: negative subscriber count %d", model.ErrConfiguration, numSubscribers)
	}
	start := time.Now()
	roundID := len(e.rounds) + 1

	// Expired suspensions count as active; they are lifted once the round is accepted.
	var active, reinstated []*model.Curator
	for _, c := range e.curators {
		switch {
		case !c.Suspended:
			active = append(active, c)
		case c.SuspensionExpired(roundID):
			active = append(active, c)
			reinstated = append(reinstated, c)
		}
	}

	// Entities are caller-owned pointers; recheck them so settlement cannot
	// fail once ratings and stakes start moving.
	for _, c := range active {
		if err := checkCurator(c); err != nil {
			return nil, nil, err
		}
	}
	for _, p := range e.posts {
		if err := checkPost(p); err != nil {
			return nil, nil, err
		}
	}

	pairs, err := e.buildPairs(roundID, len(active), numSubscribers, golden)
	if err != nil {
		return nil, nil, err
	}
	if err := e.collectVotes(pairs, active); err != nil {
		return nil, nil, err
	}

	for _, c := range reinstated {
		c.Reinstate()
		metrics.RecordReinstatement()
		e.log.Info(ctx, "curator reinstated", logger.String("curator_id", c.ID), logger.Int("round", roundID))
	}

	results := make(map[string]Result, len(active))
	for _, c := range active {
		results[c.ID] = Result{CuratorID: c.ID}
	}

	e.flagAnomalies(ctx, roundID, pairs, active)
	e.applyRatings(pairs)
	if err := e.applyMinorityLosses(pairs, results); err != nil {
		return nil, nil, err
	}
	if err := e.settle(ctx, roundID, pairs, active, results); err != nil {
		return nil, nil, err
	}

	for _, c := range active {
		r := results[c.ID]
		r.EloRating = c.EloRating
		r.Suspended = c.Suspended
		results[c.ID] = r
	}

	round := model.NewRound(roundID, pairs, active, e.pool.Snapshot())
	e.rounds = append(e.rounds, round)

	e.recordRound(round, time.Since(start))
	e.log.Info(ctx, "round settled",
		logger.Int("round", roundID),
		logger.Int("pairs", len(pairs)),
		logger.Int("curators", len(active)),
		logger.Float64("pool_balance", round.Pool.Balance),
		logger.Duration("took", time.Since(start)),
	)
	return round, results, nil
}

// collectVotes asks the voter for every active curator's vote on every pair.
// It is the second consumer of the rng in a round.
func (e *Engine) collectVotes(pairs []*model.Pair, active []*model.Curator) error {
	for _, p := range pairs {
		for _, c := range active {
			v := e.voter.CastVote(c, p, e.rng)
			if err := p.AddVote(c.ID, v); err != nil {
				metrics.RecordRoundFailure("invalid_vote")
				return fmt.Errorf("curator %s on pair %s: %w", c.ID, p.ID, err)
			}
		}
	}
	return nil
}

// flagAnomalies raises a fraud flag on curators who withheld more than the
// configured share of their votes.
func (e *Engine) flagAnomalies(ctx context.Context, roundID int, pairs []*model.Pair, active []*model.Curator) {
	if len(pairs) == 0 {
		return
	}
	for _, c := range active {
		withheld := 0
		for _, p := range pairs {
			if v, _ := p.VoteOf(c.ID); v == model.VoteNoReveal {
				withheld++
			}
		}
		share := float64(withheld) / float64(len(pairs))
		if share > e.cfg.NoRevealFlagThreshold {
			e.ledger.FlagBehavioralAnomaly(c.ID)
			metrics.RecordFraudFlag()
			e.log.Warn(ctx, "no-reveal anomaly flagged",
				logger.String("curator_id", c.ID),
				logger.Int("round", roundID),
				logger.Float64("no_reveal_share", share),
			)
		}
	}
}

// applyRatings resolves pairs in order so later pairs see earlier updates.
func (e *Engine) applyRatings(pairs []*model.Pair) {
	for _, p := range pairs {
		revealed := p.RevealedVoters()
		stake := 0.0
		for _, id := range revealed {
			stake += e.curatorIdx[id].Stake
		}

		majority, decided := p.Majority()
		if decided {
			winner := p.PostFor(majority)
			loser := p.PostFor(majority.Mirror())
			winner.EloRating, loser.EloRating = e.elo.UpdatePostRatings(winner, loser, stake)
		} else {
			p.Left.TotalComparisons++
			p.Right.TotalComparisons++
		}

		reference, ok := majority, decided
		if p.HasGoldenAnswer() {
			reference, ok = p.GoldenAnswer, true
		}
		if !ok {
			continue
		}
		for _, id := range revealed {
			c := e.curatorIdx[id]
			v, _ := p.VoteOf(id)
			c.EloRating = e.elo.UpdateCuratorRating(c, v == reference, stake)
		}
	}
}

// applyMinorityLosses moves a share of every minority voter's stake into the pool.
func (e *Engine) applyMinorityLosses(pairs []*model.Pair, results map[string]Result) error {
	for _, p := range pairs {
		for _, id := range p.MinorityVoters() {
			c := e.curatorIdx[id]
			lost := c.Deduct(c.Stake * e.cfg.MinorityLossRate)
			if lost == 0 {
				continue
			}
			if err := e.pool.AddMinorityLoss(lost); err != nil {
				return fmt.Errorf("minority loss for %s: %w", id, err)
			}
			metrics.RecordMinorityLoss(lost)
			r := results[id]
			r.MinorityLoss += lost
			results[id] = r
		}
	}
	return nil
}

// settle scores the active curators, applies slashing and pays rewards. The
// base reward is fixed before any withdrawal; a curator whose reward the pool
// cannot cover gets nothing. A round without pairs settles nothing.
func (e *Engine) settle(ctx context.Context, roundID int, pairs []*model.Pair, active []*model.Curator, results map[string]Result) error {
	if len(pairs) == 0 {
		return nil
	}
	history := scoring.NewVoteHistory()
	for _, p := range pairs {
		if !p.IsAuditPair {
			history.RecordPair(p)
		}
	}
	decisions := e.ledger.ProcessRoundMetrics(pairs, active, history)

	for _, c := range active {
		d := decisions[c.ID]
		r := results[c.ID]
		r.Score = d.Score
		r.Multiplier = d.Multiplier
		if d.Suspend {
			slashed := c.Deduct(d.SlashAmount)
			if err := e.pool.AddSlashing(slashed); err != nil {
				return fmt.Errorf("slashing %s: %w", c.ID, err)
			}
			c.TotalSlashed += slashed
			until := 0
			if e.cfg.SuspensionRounds > 0 {
				until = roundID + e.cfg.SuspensionRounds
			}
			c.Suspend(until)
			r.Slashed = slashed

			metrics.RecordSlash(slashed)
			metrics.RecordSuspension()
			e.log.Warn(ctx, "curator slashed and suspended",
				logger.String("curator_id", c.ID),
				logger.Int("round", roundID),
				logger.Float64("score", d.Score),
				logger.Float64("slashed", slashed),
				logger.Int("suspended_until", until),
			)
		}
		results[c.ID] = r
	}

	base := e.pool.CalculateBaseReward(len(pairs))
	for _, c := range active {
		amount := base * decisions[c.ID].Multiplier
		if amount <= 0 {
			continue
		}
		if err := e.pool.Withdraw(amount); err != nil {
			if !errors.Is(err, model.ErrInsufficientBalance) {
				return fmt.Errorf("reward for %s: %w", c.ID, err)
			}
			metrics.RecordRewardStarvation()
			e.log.Warn(ctx, "pool exhausted, reward skipped",
				logger.String("curator_id", c.ID),
				logger.Int("round", roundID),
				logger.Float64("reward", amount),
				logger.Error(err),
			)
			continue
		}
		c.TotalRewards += amount
		metrics.RecordRewardPaid(amount)
		r := results[c.ID]
		r.Rewards = amount
		results[c.ID] = r
	}
	return nil
}

func (e *Engine) recordRound(r *model.Round, took time.Duration) {
	counts := r.Counts()
	metrics.RecordRound(float64(took.Microseconds()) / 1000)
	metrics.RecordPairs(kindGolden, counts.Golden)
	metrics.RecordPairs(kindRegular, counts.Regular)
	metrics.RecordPairs(kindAudit, counts.Audit)
	for range counts.Ties {
		metrics.RecordTie()
	}
	for _, p := range r.Pairs {
		for _, v := range p.Votes() {
			metrics.RecordVote(v.String())
		}
	}
	metrics.UpdatePoolBalance(r.Pool.Balance)
	stats := e.Statistics()
	metrics.UpdateCurators(stats.ActiveCurators, stats.SuspendedCurators)
	metrics.UpdatePosts(stats.Posts)
}
