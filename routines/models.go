// Package routines stores personalized study routines. A routine is built
// from a short questionnaire (current rating, target, weekly hours) and an
// AI-generated weekly plan.
package routines

import "time"

// Routine is one stored study routine.
type Routine struct {
	ID                   int                    `json:"id"`
	UserID               int                    `json:"userId"`
	Title                string                 `json:"title"`
	Description          *string                `json:"description,omitempty"`
	CreatedAt            time.Time              `json:"createdAt"`
	UpdatedAt            time.Time              `json:"updatedAt"`
	CurrentRating        *int                   `json:"currentRating,omitempty"`
	TargetRating         *int                   `json:"targetRating,omitempty"`
	StudyHoursPerWeek    *int                   `json:"studyHoursPerWeek,omitempty"`
	ContestParticipation *string                `json:"contestParticipation,omitempty"`
	Answers              map[string]interface{} `json:"answers"`
	Routine              map[string]interface{} `json:"routine"`
}

// CreateRoutineRequest is the questionnaire payload for a new routine.
type CreateRoutineRequest struct {
	UserID               int                    `json:"userId"`
	Title                string                 `json:"title"`
	Description          *string                `json:"description,omitempty"`
	CurrentRating        int                    `json:"currentRating"`
	TargetRating         int                    `json:"targetRating"`
	StudyHoursPerWeek    int                    `json:"studyHoursPerWeek"`
	ContestParticipation string                 `json:"contestParticipation"`
	Answers              map[string]interface{} `json:"answers"`
}
