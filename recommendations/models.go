// Package recommendations suggests practice problems around a user's current
// rating. Generation draws from the live problemset; the results are stored
// so a user can work through them and mark progress.
package recommendations

import "time"

// Recommendation statuses. A recommendation starts as "recommended" and
// moves forward as the user works on it.
const (
	StatusRecommended = "recommended"
	StatusAttempted   = "attempted"
	StatusSolved      = "solved"
	StatusSkipped     = "skipped"
)

// Recommendation is one suggested problem for a user.
type Recommendation struct {
	ID           int        `json:"id"`
	UserID       int        `json:"userId"`
	ProblemID    string     `json:"problemId"`
	ProblemTitle string     `json:"problemTitle"`
	ProblemURL   string     `json:"problemUrl"`
	CreatedAt    time.Time  `json:"createdAt"`
	Difficulty   *int       `json:"difficulty,omitempty"`
	Tags         []string   `json:"tags"`
	Source       *string    `json:"source,omitempty"`
	Status       string     `json:"status"`
	SolvedOn     *time.Time `json:"solvedOn,omitempty"`
}

// UpdateStatusRequest is a partial update to a recommendation's progress.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// GenerateRequest asks for fresh recommendations for a user.
type GenerateRequest struct {
	UserID int `json:"userId"`
	Count  int `json:"count,omitempty"`
}

func validStatus(status string) bool {
	switch status {
	case StatusRecommended, StatusAttempted, StatusSolved, StatusSkipped:
		return true
	}
	return false
}
