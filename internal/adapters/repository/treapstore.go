package repository

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/cesarion161/clawgic/internal/domain/types"
	"github.com/cesarion161/clawgic/pkg/metrics"
)

// Ratings are stored as fixed-point integers so equal ratings compare equal
// and rank together.
const ratingScale = 1_000_000

type ratingFP int64

func toFixedPoint(x float64) ratingFP {
	return ratingFP(math.Round(x * ratingScale))
}

func toFloat(x ratingFP) float64 {
	return float64(x) / ratingScale
}

type node struct {
	id     string
	rating ratingFP
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// before reports whether (aRating, aID) ranks ahead of (bRating, bID).
func before(aRating ratingFP, aID string, bRating ratingFP, bID string) bool {
	if aRating != bRating {
		return aRating > bRating
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n, fresh *node) *node {
	if n == nil {
		return fresh
	}
	if before(fresh.rating, fresh.id, n.rating, n.id) {
		n.left = insert(n.left, fresh)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, fresh)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, rating ratingFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case n.id == id && n.rating == rating:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, rating)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, rating)
		}
	case before(rating, id, n.rating, n.id):
		n.left = deleteNode(n.left, id, rating)
	default:
		n.right = deleteNode(n.right, id, rating)
	}
	fix(n)
	return n
}

// countAbove counts nodes rated strictly higher than rating.
func countAbove(n *node, rating ratingFP) int {
	count := 0
	for n != nil {
		if n.rating > rating {
			count += 1 + nsize(n.left)
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

func collectTopN(n *node, limit int, out *[]types.Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, types.Entry{ID: n.id, Rating: toFloat(n.rating)})
	}
	collectTopN(n.right, limit, out)
}

// TreapStore is an in-memory RatingStore with O(log n) expected updates and
// rank queries. Node priorities are hashes of the id.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]ratingFP

	kind types.Kind
	seed uint64
}

// NewTreapStore constructs an empty store.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		byID: make(map[string]ratingFP),
		kind: types.KindPosts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Kind returns the population the store ranks.
func (s *TreapStore) Kind() types.Kind { return s.kind }

func (s *TreapStore) priority(id string) uint64 {
	var salt [8]byte
	binary.LittleEndian.PutUint64(salt[:], s.seed)
	d := xxhash.New()
	_, _ = d.Write(salt[:])
	_, _ = d.WriteString(id)
	return d.Sum64()
}

// set must be called with s.mu held.
func (s *TreapStore) set(id string, rating float64) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidValue)
	}
	if math.IsNaN(rating) || math.IsInf(rating, 0) {
		return fmt.Errorf("%w: %v for %s", ErrInvalidValue, rating, id)
	}
	fp := toFixedPoint(rating)
	if old, ok := s.byID[id]; ok {
		if old == fp {
			return nil
		}
		s.root = deleteNode(s.root, id, old)
	}
	s.byID[id] = fp
	s.root = insert(s.root, &node{id: id, rating: fp, prio: s.priority(id), size: 1})
	return nil
}

// Set implements RatingStore.
func (s *TreapStore) Set(_ context.Context, id string, rating float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(id, rating)
}

// SetMany implements RatingStore. Entries before a failing one stay applied.
func (s *TreapStore) SetMany(_ context.Context, ratings map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range ratings {
		if err := s.set(id, r); err != nil {
			return err
		}
	}
	metrics.RecordLeaderboardUpdate()
	return nil
}

// Remove implements RatingStore.
func (s *TreapStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.root = deleteNode(s.root, id, old)
	delete(s.byID, id)
	return nil
}

// Rank implements RatingStore.
func (s *TreapStore) Rank(_ context.Context, id string) (types.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fp, ok := s.byID[id]
	if !ok {
		return types.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return types.Entry{Rank: countAbove(s.root, fp) + 1, ID: id, Rating: toFloat(fp)}, nil
}

// TopN implements RatingStore.
func (s *TreapStore) TopN(_ context.Context, n int) ([]types.Entry, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Entry, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, &out)
	assignCompetitionRanks(out)
	return out, nil
}

// Count implements RatingStore.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// assignCompetitionRanks ranks a prefix of the leaderboard: equal ratings
// share a rank and the next distinct rating skips past them (1, 1, 3).
func assignCompetitionRanks(entries []types.Entry) {
	for i := range entries {
		if i > 0 && entries[i].Rating == entries[i-1].Rating {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}
