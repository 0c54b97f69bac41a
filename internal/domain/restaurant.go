package domain

import (
	"time"
)

// Restaurant represents a ramen restaurant listed in the directory.
// Only the fields the comment subsystem and ranking need are modeled here.
type Restaurant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Area      string    `json:"area,omitempty"`
	Score     float64   `json:"score"`
	Seats     int       `json:"seats,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RestaurantRanking is a ranking list entry: a restaurant with its current
// average comment score and comment count.
type RestaurantRanking struct {
	RestaurantID string  `json:"restaurant_id"`
	Name         string  `json:"name"`
	AverageScore float64 `json:"average_score"`
	CommentCount int     `json:"comment_count"`
}
