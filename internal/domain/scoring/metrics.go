package scoring

import "github.com/cesarion161/clawgic/internal/domain/model"

// Metrics are one curator's counts for a single round.
type Metrics struct {
	GoldenCorrect   int
	GoldenTotal     int
	AuditConsistent int
	AuditTotal      int
	Aligned         int
	Revealed        int
}

// CalibrationRate is golden-set accuracy, 0 without golden votes.
func (m Metrics) CalibrationRate() float64 { return ratio(m.GoldenCorrect, m.GoldenTotal) }

// AuditPassRate is audit consistency, 0 without audit votes.
func (m Metrics) AuditPassRate() float64 { return ratio(m.AuditConsistent, m.AuditTotal) }

// AlignmentStability is majority agreement, 0 without revealed votes.
func (m Metrics) AlignmentStability() float64 { return ratio(m.Aligned, m.Revealed) }

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// CollectMetrics counts each curator's revealed votes. A vote on a tied pair
// is never aligned. Audit votes are checked against history when it has an
// earlier choice on the same posts, otherwise against the pair's majority.
func CollectMetrics(pairs []*model.Pair, curators []*model.Curator, history History) map[string]*Metrics {
	out := make(map[string]*Metrics, len(curators))
	for _, c := range curators {
		out[c.ID] = &Metrics{}
	}

	for _, p := range pairs {
		majority, decided := p.Majority()
		for id, v := range p.Votes() {
			m, ok := out[id]
			if !ok || !v.Revealed() {
				continue
			}
			agrees := decided && v == majority

			if p.HasGoldenAnswer() {
				m.GoldenTotal++
				if v == p.GoldenAnswer {
					m.GoldenCorrect++
				}
			}
			if p.IsAuditPair {
				m.AuditTotal++
				if auditConsistent(p, id, v, agrees, history) {
					m.AuditConsistent++
				}
			}
			m.Revealed++
			if agrees {
				m.Aligned++
			}
		}
	}
	return out
}

func auditConsistent(p *model.Pair, curatorID string, v model.Vote, agrees bool, history History) bool {
	if history != nil {
		if prior, ok := history.PriorChoice(curatorID, p.Left.ID, p.Right.ID); ok {
			return p.PostFor(v).ID == prior
		}
	}
	return agrees
}
