// Package types holds the read models shared by the leaderboards and the HTTP API.
package types

// Entry is one row of a rating leaderboard.
type Entry struct {
	Rank   int     `json:"rank"`
	ID     string  `json:"id"`
	Rating float64 `json:"rating"`
}

// Kind names which population a leaderboard ranks.
type Kind string

// Leaderboard kinds.
const (
	KindPosts    Kind = "posts"
	KindCurators Kind = "curators"
)
