package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cesarion161/clawgic/internal/domain/model"
)

func newTestPair() *model.Pair {
	return model.NewPair("pair-1", model.NewPost("p1", "first"), model.NewPost("p2", "second"))
}

func TestPair_MajorityAndMinority(t *testing.T) {
	p := newTestPair()
	votes := map[string]model.Vote{
		"c1": model.VoteLeft,
		"c2": model.VoteLeft,
		"c3": model.VoteLeft,
		"c4": model.VoteRight,
		"c5": model.VoteRight,
		"c6": model.VoteNoReveal,
	}
	for id, v := range votes {
		require.NoError(t, p.AddVote(id, v))
	}

	majority, ok := p.Majority()
	require.True(t, ok)
	assert.Equal(t, model.VoteLeft, majority)

	left, right := p.Tally()
	assert.Equal(t, 3, left)
	assert.Equal(t, 2, right)

	assert.Equal(t, []string{"c4", "c5"}, p.MinorityVoters())
	assert.Equal(t, []string{"c6"}, p.NoRevealVoters())
	assert.Equal(t, []string{"c1", "c2", "c3", "c4", "c5"}, p.RevealedVoters())
	assert.NotContains(t, p.MinorityVoters(), "c6")
	assert.Equal(t, 6, p.VoteCount())
	assert.Same(t, p.Left, p.PostFor(majority))
}

func TestPair_Tie(t *testing.T) {
	p := newTestPair()
	require.NoError(t, p.AddVote("a", model.VoteLeft))
	require.NoError(t, p.AddVote("b", model.VoteRight))
	require.NoError(t, p.AddVote("c", model.VoteNoReveal))

	_, ok := p.Majority()
	assert.False(t, ok)
	assert.Empty(t, p.MinorityVoters())
}

func TestPair_AddVoteRejects(t *testing.T) {
	p := newTestPair()
	assert.ErrorIs(t, p.AddVote("a", model.VoteUnknown), model.ErrInvalidVote)
	assert.ErrorIs(t, p.AddVote("a", model.Vote(9)), model.ErrInvalidVote)

	require.NoError(t, p.AddVote("a", model.VoteRight))
	assert.ErrorIs(t, p.AddVote("a", model.VoteLeft), model.ErrInvalidVote)

	v, ok := p.VoteOf("a")
	assert.True(t, ok)
	assert.Equal(t, model.VoteRight, v)

	votes := p.Votes()
	votes["a"] = model.VoteLeft
	v, _ = p.VoteOf("a")
	assert.Equal(t, model.VoteRight, v, "Votes returns a copy")
}

func TestPair_GoldenAnswer(t *testing.T) {
	p := newTestPair()
	assert.False(t, p.HasGoldenAnswer())
	p.IsGoldenSet = true
	assert.False(t, p.HasGoldenAnswer())
	p.GoldenAnswer = model.VoteRight
	assert.True(t, p.HasGoldenAnswer())
	assert.Same(t, p.Right, p.PostFor(p.GoldenAnswer))
	assert.Nil(t, p.PostFor(model.VoteNoReveal))
}

func TestRound_Counts(t *testing.T) {
	regular := newTestPair()
	require.NoError(t, regular.AddVote("a", model.VoteLeft))
	golden := newTestPair()
	golden.IsGoldenSet = true
	golden.GoldenAnswer = model.VoteLeft
	require.NoError(t, golden.AddVote("a", model.VoteLeft))
	audit := newTestPair()
	audit.IsAuditPair = true

	r := &model.Round{
		ID:       1,
		Pairs:    []*model.Pair{golden, regular, audit},
		Curators: []*model.Curator{model.NewCurator("a", 10), model.NewCurator("b", 5)},
	}
	c := r.Counts()
	assert.Equal(t, model.PairCounts{Golden: 1, Audit: 1, Regular: 1, Ties: 1}, c)
	assert.Equal(t, 3, c.Total())
	assert.Equal(t, []string{"a", "b"}, r.CuratorIDs())
}
