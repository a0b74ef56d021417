package repository

import "github.com/cesarion161/clawgic/internal/domain/types"

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithKind labels the store with the population it ranks.
func WithKind(kind types.Kind) Option {
	return func(s *TreapStore) {
		if kind != "" {
			s.kind = kind
		}
	}
}

// WithSeed salts the treap priorities.
func WithSeed(seed uint64) Option {
	return func(s *TreapStore) {
		s.seed = seed
	}
}
