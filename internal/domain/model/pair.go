package model

import (
	"fmt"
	"sort"
)

// Pair is one comparison between two posts. While a round is played the posts
// are borrowed from the engine's registry and ratings written to them are
// visible everywhere; a recorded Round holds copies.
type Pair struct {
	ID    string
	Left  *Post
	Right *Post

	IsGoldenSet bool
	IsAuditPair bool
	// GoldenAnswer is VoteUnknown unless the pair has a known correct side.
	GoldenAnswer Vote
	// AuditOf is the id of the regular pair an audit pair duplicates.
	AuditOf string

	votes map[string]Vote
}

// NewPair returns an untagged pair with no votes.
func NewPair(id string, left, right *Post) *Pair {
	return &Pair{
		ID:    id,
		Left:  left,
		Right: right,
		votes: make(map[string]Vote),
	}
}

// HasGoldenAnswer reports whether the pair is a Golden Set item with a usable answer.
func (p *Pair) HasGoldenAnswer() bool {
	return p.IsGoldenSet && p.GoldenAnswer.Revealed()
}

// AddVote records a curator's vote. Each curator votes at most once.
func (p *Pair) AddVote(curatorID string, v Vote) error {
	if !v.Valid() {
		return fmt.Errorf("%w: %s on pair %s by %s", ErrInvalidVote, v, p.ID, curatorID)
	}
	if _, ok := p.votes[curatorID]; ok {
		return fmt.Errorf("%w: %s already voted on pair %s", ErrInvalidVote, curatorID, p.ID)
	}
	if p.votes == nil {
		p.votes = make(map[string]Vote)
	}
	p.votes[curatorID] = v
	return nil
}

// VoteOf returns the curator's vote on this pair.
func (p *Pair) VoteOf(curatorID string) (Vote, bool) {
	v, ok := p.votes[curatorID]
	return v, ok
}

// Votes returns a copy of the recorded votes.
func (p *Pair) Votes() map[string]Vote {
	out := make(map[string]Vote, len(p.votes))
	for id, v := range p.votes {
		out[id] = v
	}
	return out
}

// VoteCount returns the number of recorded votes, abstentions included.
func (p *Pair) VoteCount() int { return len(p.votes) }

// Tally counts LEFT and RIGHT votes.
func (p *Pair) Tally() (left, right int) {
	for _, v := range p.votes {
		switch v {
		case VoteLeft:
			left++
		case VoteRight:
			right++
		}
	}
	return left, right
}

// Majority returns the side with more votes. NO_REVEAL votes are ignored and
// an exact tie returns false.
func (p *Pair) Majority() (Vote, bool) {
	left, right := p.Tally()
	switch {
	case left > right:
		return VoteLeft, true
	case right > left:
		return VoteRight, true
	default:
		return VoteUnknown, false
	}
}

// PostFor returns the post a side vote points at, nil for NO_REVEAL.
func (p *Pair) PostFor(v Vote) *Post {
	switch v {
	case VoteLeft:
		return p.Left
	case VoteRight:
		return p.Right
	default:
		return nil
	}
}

// MinorityVoters returns, sorted, the curators whose revealed vote differs from
// the majority. It is empty on a tie.
func (p *Pair) MinorityVoters() []string {
	majority, ok := p.Majority()
	if !ok {
		return nil
	}
	return p.votersWhere(func(v Vote) bool { return v.Revealed() && v != majority })
}

// NoRevealVoters returns, sorted, the curators who withheld their vote.
func (p *Pair) NoRevealVoters() []string {
	return p.votersWhere(func(v Vote) bool { return v == VoteNoReveal })
}

// RevealedVoters returns, sorted, the curators who picked a side.
func (p *Pair) RevealedVoters() []string {
	return p.votersWhere(Vote.Revealed)
}

func (p *Pair) votersWhere(keep func(Vote) bool) []string {
	var ids []string
	for id, v := range p.votes {
		if keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
