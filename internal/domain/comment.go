package domain

import (
	"encoding/json"
	"time"
)

// Text and report bounds enforced on comment submission.
const (
	MinCommentLength = 2
	MaxCommentLength = 1000

	MinScore = 1
	MaxScore = 5

	MinReportReasonLength = 5
	MaxReportReasonLength = 1000
)

// Comment represents a user's review of a restaurant across three aspects,
// with its moderation state and attached photo URLs.
type Comment struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	Username     string `json:"username,omitempty"`
	RestaurantID string `json:"restaurant_id"`

	FoodComment        string `json:"food_comment"`
	VisitingComment    string `json:"visiting_comment"`
	EnvironmentComment string `json:"environment_comment"`

	FoodScore        int `json:"food_score"`
	VisitingScore    int `json:"visiting_score"`
	EnvironmentScore int `json:"environment_score"`
	OverallScore     int `json:"overall_score"`

	Reported     bool       `json:"reported"`
	ReportReason *string    `json:"report_reason,omitempty"`
	ReportedAt   *time.Time `json:"reported_at,omitempty"`
	Approved     bool       `json:"approved"`

	Photos []string `json:"photos"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// AverageScore returns the mean of the three aspect scores. The overall
// score does not participate.
func (c *Comment) AverageScore() float64 {
	return float64(c.FoodScore+c.VisitingScore+c.EnvironmentScore) / 3.0
}

// MarshalJSON adds the derived average_score field to every serialized
// comment. The average is computed at encode time, never stored.
func (c Comment) MarshalJSON() ([]byte, error) {
	type alias Comment
	return json.Marshal(struct {
		alias
		AverageScore float64 `json:"average_score"`
	}{alias(c), c.AverageScore()})
}

// RestaurantPhoto is a photo URL paired with the username of the commenter
// who uploaded it.
type RestaurantPhoto struct {
	URL      string `json:"url"`
	Username string `json:"username"`
}
