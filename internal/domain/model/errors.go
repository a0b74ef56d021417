package model

import "errors"

// Sentinel error kinds shared by the domain packages. Callers match them with errors.Is.
var (
	ErrInsufficientBalance = errors.New("insufficient pool balance")
	ErrDuplicateID         = errors.New("duplicate id")
	ErrInvalidVote         = errors.New("invalid vote")
	ErrConfiguration       = errors.New("invalid configuration")
	ErrUnknownCurator      = errors.New("curator not found")
	ErrUnknownPost         = errors.New("post not found")
	ErrUnknownRound        = errors.New("round not found")
	ErrUnknownRequest      = errors.New("round request not found")
)
