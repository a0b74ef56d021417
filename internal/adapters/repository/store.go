// Package repository keeps rating leaderboards for posts and curators.
package repository

import (
	"context"

	"github.com/cesarion161/clawgic/internal/domain/types"
)

// RatingStore ranks ids by rating, highest first, ties broken by id.
type RatingStore interface {
	// Set inserts id or moves it to rating, up or down.
	Set(ctx context.Context, id string, rating float64) error
	// SetMany applies Set for every pair in ratings under one lock.
	SetMany(ctx context.Context, ratings map[string]float64) error
	// Remove drops id. Returns ErrNotFound for unknown ids.
	Remove(ctx context.Context, id string) error

	// Rank returns id's competition rank: one plus the number of strictly
	// higher ratings. Returns ErrNotFound for unknown ids.
	Rank(ctx context.Context, id string) (types.Entry, error)
	// TopN returns up to n entries in rank order.
	TopN(ctx context.Context, n int) ([]types.Entry, error)
	Count(ctx context.Context) int
}
