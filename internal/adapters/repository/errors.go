package repository

import "errors"

// Sentinel kinds for leaderboard errors.
var (
	ErrNotFound     = errors.New("leaderboard entry not found")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrInvalidValue = errors.New("invalid rating")
)
