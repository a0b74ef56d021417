// Package model contains the entities of the curation economy: posts, curators,
// their scores, compared pairs, rounds and the shared reward pool.
package model

import (
	"fmt"
	"strings"
)

// Vote is a curator's choice on a pair.
type Vote uint8

// Vote choices. The zero value is not a valid vote.
const (
	VoteUnknown Vote = iota
	VoteLeft
	VoteRight
	VoteNoReveal
)

// Valid reports whether v is one of LEFT, RIGHT or NO_REVEAL.
func (v Vote) Valid() bool {
	return v == VoteLeft || v == VoteRight || v == VoteNoReveal
}

// Revealed reports whether v picks a side.
func (v Vote) Revealed() bool {
	return v == VoteLeft || v == VoteRight
}

// Mirror swaps LEFT and RIGHT. NO_REVEAL and unknown votes are returned unchanged.
func (v Vote) Mirror() Vote {
	switch v {
	case VoteLeft:
		return VoteRight
	case VoteRight:
		return VoteLeft
	default:
		return v
	}
}

func (v Vote) String() string {
	switch v {
	case VoteLeft:
		return "left"
	case VoteRight:
		return "right"
	case VoteNoReveal:
		return "no_reveal"
	default:
		return "unknown"
	}
}

// ParseVote parses "left", "right" or "no_reveal" (case-insensitive).
func ParseVote(s string) (Vote, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return VoteLeft, nil
	case "right":
		return VoteRight, nil
	case "no_reveal", "noreveal", "no-reveal":
		return VoteNoReveal, nil
	}
	return VoteUnknown, fmt.Errorf("%w: %q", ErrInvalidVote, s)
}

// MarshalText implements encoding.TextMarshaler.
func (v Vote) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Vote) UnmarshalText(b []byte) error {
	parsed, err := ParseVote(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
