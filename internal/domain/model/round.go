package model

// Round is the read-only record of one completed round. Its pairs, posts and
// curators are copies taken when the round settled; later rounds do not
// change them.
type Round struct {
	ID       int
	Pairs    []*Pair
	Curators []*Curator
	// Pool is the pool ledger as it stood after the round settled.
	Pool PoolSnapshot
}

// NewRound records a settled round, copying every pair, post and curator.
// A post that appears in several pairs is copied once and shared among them.
func NewRound(id int, pairs []*Pair, curators []*Curator, pool PoolSnapshot) *Round {
	posts := make(map[*Post]*Post)
	postCopy := func(p *Post) *Post {
		if p == nil {
			return nil
		}
		if cp, ok := posts[p]; ok {
			return cp
		}
		cp := *p
		posts[p] = &cp
		return &cp
	}

	r := &Round{
		ID:       id,
		Pairs:    make([]*Pair, len(pairs)),
		Curators: make([]*Curator, len(curators)),
		Pool:     pool,
	}
	for i, p := range pairs {
		cp := *p
		cp.Left, cp.Right = postCopy(p.Left), postCopy(p.Right)
		cp.votes = p.Votes()
		r.Pairs[i] = &cp
	}
	for i, c := range curators {
		cp := *c
		if c.Score != nil {
			score := *c.Score
			cp.Score = &score
		}
		r.Curators[i] = &cp
	}
	return r
}

// PairCounts breaks a round's pairs down by kind.
type PairCounts struct {
	Golden  int `json:"golden"`
	Audit   int `json:"audit"`
	Regular int `json:"regular"`
	Ties    int `json:"ties"`
}

// Total is the number of pairs counted.
func (c PairCounts) Total() int { return c.Golden + c.Audit + c.Regular }

// Counts classifies the round's pairs and counts the ones without a majority.
func (r *Round) Counts() PairCounts {
	var c PairCounts
	for _, p := range r.Pairs {
		switch {
		case p.IsGoldenSet:
			c.Golden++
		case p.IsAuditPair:
			c.Audit++
		default:
			c.Regular++
		}
		if _, ok := p.Majority(); !ok {
			c.Ties++
		}
	}
	return c
}

// CuratorIDs returns the participants' ids in registration order.
func (r *Round) CuratorIDs() []string {
	ids := make([]string, len(r.Curators))
	for i, c := range r.Curators {
		ids[i] = c.ID
	}
	return ids
}
