package scoring

import "github.com/cesarion161/clawgic/internal/domain/model"

// History answers which post a curator picked the last time it compared two posts.
type History interface {
	PriorChoice(curatorID, postA, postB string) (postID string, ok bool)
}

type historyKey struct {
	curator string
	low     string
	high    string
}

func keyFor(curatorID, a, b string) historyKey {
	if b < a {
		a, b = b, a
	}
	return historyKey{curator: curatorID, low: a, high: b}
}

// VoteHistory remembers revealed choices keyed by curator and unordered post pair.
// Later records overwrite earlier ones.
type VoteHistory struct {
	choices map[historyKey]string
}

// NewVoteHistory returns an empty history.
func NewVoteHistory() *VoteHistory {
	return &VoteHistory{choices: make(map[historyKey]string)}
}

// Record stores the post the curator picked on p. NO_REVEAL is not recorded.
func (h *VoteHistory) Record(curatorID string, p *model.Pair, v model.Vote) {
	post := p.PostFor(v)
	if post == nil {
		return
	}
	h.choices[keyFor(curatorID, p.Left.ID, p.Right.ID)] = post.ID
}

// RecordPair stores every revealed vote on p.
func (h *VoteHistory) RecordPair(p *model.Pair) {
	for id, v := range p.Votes() {
		h.Record(id, p, v)
	}
}

// PriorChoice implements History.
func (h *VoteHistory) PriorChoice(curatorID, postA, postB string) (string, bool) {
	id, ok := h.choices[keyFor(curatorID, postA, postB)]
	return id, ok
}

// Len returns the number of remembered choices.
func (h *VoteHistory) Len() int { return len(h.choices) }
