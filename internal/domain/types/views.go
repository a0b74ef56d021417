package types

import (
	"github.com/cesarion161/clawgic/internal/domain/engine"
	"github.com/cesarion161/clawgic/internal/domain/model"
)

// RequestState is the lifecycle of a submitted round request.
type RequestState string

// Request states.
const (
	RequestQueued  RequestState = "queued"
	RequestRunning RequestState = "running"
	RequestDone    RequestState = "done"
	RequestFailed  RequestState = "failed"
)

// RequestStatus reports what became of a round request.
type RequestStatus struct {
	ID        string       `json:"request_id"`
	State     RequestState `json:"state"`
	RoundID   int          `json:"round_id,omitempty"`
	Error     string       `json:"error,omitempty"`
	Duplicate bool         `json:"duplicate"`
}

// Pair kinds as reported by the API.
const (
	PairGolden  = "golden"
	PairAudit   = "audit"
	PairRegular = "regular"
)

// PairView is the read shape of one compared pair.
type PairView struct {
	ID           string                `json:"pair_id"`
	Kind         string                `json:"kind"`
	LeftID       string                `json:"left_id"`
	RightID      string                `json:"right_id"`
	GoldenAnswer *model.Vote           `json:"golden_answer,omitempty"`
	AuditOf      string                `json:"audit_of,omitempty"`
	Votes        map[string]model.Vote `json:"votes"`
	// Majority is absent on a tie.
	Majority *model.Vote `json:"majority,omitempty"`
}

// NewPairView projects p.
func NewPairView(p *model.Pair) PairView {
	v := PairView{
		ID:      p.ID,
		Kind:    PairRegular,
		LeftID:  p.Left.ID,
		RightID: p.Right.ID,
		AuditOf: p.AuditOf,
		Votes:   p.Votes(),
	}
	switch {
	case p.IsGoldenSet:
		v.Kind = PairGolden
		if p.HasGoldenAnswer() {
			answer := p.GoldenAnswer
			v.GoldenAnswer = &answer
		}
	case p.IsAuditPair:
		v.Kind = PairAudit
	}
	if m, ok := p.Majority(); ok {
		v.Majority = &m
	}
	return v
}

// RoundView is the read shape of a completed round.
type RoundView struct {
	ID       int                `json:"round_id"`
	Counts   model.PairCounts   `json:"counts"`
	Pool     model.PoolSnapshot `json:"pool"`
	Curators []string           `json:"curators"`
	Pairs    []PairView         `json:"pairs"`
	Results  []engine.Result    `json:"results"`
}

// NewRoundView projects r together with its per-curator results.
func NewRoundView(r *model.Round, results []engine.Result) RoundView {
	v := RoundView{
		ID:       r.ID,
		Counts:   r.Counts(),
		Pool:     r.Pool,
		Curators: r.CuratorIDs(),
		Pairs:    make([]PairView, len(r.Pairs)),
		Results:  results,
	}
	for i, p := range r.Pairs {
		v.Pairs[i] = NewPairView(p)
	}
	return v
}

// CuratorView is a curator with its current score and leaderboard rank.
type CuratorView struct {
	model.Curator
	CurrentScore float64 `json:"current_score"`
	Accuracy     float64 `json:"accuracy"`
	Rank         int     `json:"rank"`
}

// NewCuratorView copies c so the view stays stable after later rounds.
func NewCuratorView(c *model.Curator, rank int) CuratorView {
	v := CuratorView{Curator: *c, Accuracy: c.Accuracy(), Rank: rank}
	if c.Score != nil {
		score := *c.Score
		v.Score = &score
		v.CurrentScore = score.Calculate()
	}
	return v
}

// Stats combines the simulation statistics with request pipeline state.
type Stats struct {
	engine.Statistics
	QueueLength   int `json:"queue_length"`
	QueueCapacity int `json:"queue_capacity"`
	DedupeSize    int `json:"dedupe_size"`
}
