package engine

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/cesarion161/clawgic/internal/domain/model"
)

// pairNamespace scopes deterministic pair ids.
var pairNamespace = uuid.MustParse("6f1c8d0e-5b7a-4c1e-9a53-2f0b8e4d7c11")

const (
	kindGolden  = "golden"
	kindRegular = "regular"
	kindAudit   = "audit"
)

// fractionOf returns ceil(n * pct), tolerating float noise in the product.
func fractionOf(n int, pct float64) int {
	if n <= 0 || pct <= 0 {
		return 0
	}
	return int(math.Ceil(float64(n)*pct - 1e-9))
}

func pairID(round, index int, kind, leftID, rightID string) string {
	name := fmt.Sprintf("%d/%d/%s/%s/%s", round, index, kind, leftID, rightID)
	return uuid.NewSHA1(pairNamespace, []byte(name)).String()
}

// targetPairs is the regular-plus-golden pair budget for a round.
// Demand is compared in float space so huge subscriber counts saturate at the
// other caps instead of overflowing.
func (e *Engine) targetPairs(active, numSubscribers int) int {
	if numSubscribers <= 0 {
		return 0
	}
	target := max(min(len(e.posts)/2, active*e.cfg.PairsPerCurator), 0)
	if demand := math.Floor(float64(numSubscribers) * e.cfg.DemandGateK); demand < float64(target) {
		target = int(demand)
	}
	return target
}

// buildPairs lays out golden, regular and audit pairs for round in that order.
// It is the first consumer of the rng in a round.
func (e *Engine) buildPairs(round, active, numSubscribers int, supplied []GoldenPair) ([]*model.Pair, error) {
	for _, g := range supplied {
		if err := e.checkGolden(g); err != nil {
			return nil, err
		}
	}
	target := e.targetPairs(active, numSubscribers)

	golden := append([]GoldenPair(nil), supplied...)
	if len(golden) == 0 && len(e.golden) > 0 {
		n := min(fractionOf(target, e.cfg.GoldenSetPercentage), len(e.golden))
		for _, i := range e.rng.Perm(len(e.golden))[:n] {
			golden = append(golden, e.golden[i])
		}
	}

	pairs := make([]*model.Pair, 0, target+len(golden))
	for _, g := range golden {
		p := model.NewPair(pairID(round, len(pairs), kindGolden, g.LeftID, g.RightID), e.postIdx[g.LeftID], e.postIdx[g.RightID])
		p.IsGoldenSet = true
		p.GoldenAnswer = g.Answer
		pairs = append(pairs, p)
	}

	regularCount := max(target-len(golden), 0)
	order := e.rng.Perm(len(e.posts))
	regular := make([]*model.Pair, 0, regularCount)
	for i := 0; i < regularCount && 2*i+1 < len(order); i++ {
		left, right := e.posts[order[2*i]], e.posts[order[2*i+1]]
		regular = append(regular, model.NewPair(pairID(round, len(pairs)+i, kindRegular, left.ID, right.ID), left, right))
	}
	pairs = append(pairs, regular...)

	auditCount := min(fractionOf(len(regular), e.cfg.AuditPairPercentage), len(regular))
	if auditCount > 0 {
		for _, i := range e.rng.Perm(len(regular))[:auditCount] {
			src := regular[i]
			p := model.NewPair(pairID(round, len(pairs), kindAudit, src.Right.ID, src.Left.ID), src.Right, src.Left)
			p.IsAuditPair = true
			p.AuditOf = src.ID
			pairs = append(pairs, p)
		}
	}
	return pairs, nil
}
