package model

// DefaultRating is the ELO rating every post and curator starts with.
const DefaultRating = 1500.0

// Post is a piece of content ranked by pairwise comparison.
type Post struct {
	ID               string  `json:"post_id"`
	Content          string  `json:"content"`
	EloRating        float64 `json:"elo_rating"`
	Wins             int     `json:"wins"`
	Losses           int     `json:"losses"`
	TotalComparisons int     `json:"total_comparisons"`
}

// NewPost returns a post at the default rating.
func NewPost(id, content string) *Post {
	return &Post{ID: id, Content: content, EloRating: DefaultRating}
}
