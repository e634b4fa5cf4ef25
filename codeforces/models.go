// Package codeforces integrates with the public Codeforces API: a thin HTTP
// client for profile and problemset lookups, and the persistence layer for
// per-user profile snapshots. A snapshot holds only the most recent fetch;
// each refresh overwrites the previous one (last-write-wins, no history).
package codeforces

import "time"

// Profile is the stored profile row for a linked Codeforces account.
type Profile struct {
	ID                   int                    `json:"id"`
	UserID               int                    `json:"userId"`
	Handle               string                 `json:"handle"`
	Rating               *int                   `json:"rating,omitempty"`
	MaxRating            *int                   `json:"maxRating,omitempty"`
	Rank                 *string                `json:"rank,omitempty"`
	LastUpdated          time.Time              `json:"lastUpdated"`
	ProblemsSolved       *int                   `json:"problemsSolved,omitempty"`
	ContestsParticipated *int                   `json:"contestsParticipated,omitempty"`
	ProfileData          map[string]interface{} `json:"profileData"`
}

// Snapshot is the result of one fetch from the profile source, before it is
// persisted.
type Snapshot struct {
	Rating               int                    `json:"rating"`
	MaxRating            int                    `json:"maxRating"`
	Rank                 string                 `json:"rank"`
	ProblemsSolved       int                    `json:"problemsSolved"`
	ContestsParticipated int                    `json:"contestsParticipated"`
	ProfileData          map[string]interface{} `json:"profileData"`
}

// Problem is one problemset entry, used for recommendations.
type Problem struct {
	ContestID int      `json:"contestId"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Rating    int      `json:"rating"`
	Tags      []string `json:"tags"`
}

// URL returns the canonical problem page URL.
func (p Problem) URL() string {
	return problemURL(p.ContestID, p.Index)
}

// ID returns the "contestId/index" identifier used across the application.
func (p Problem) ID() string {
	return problemID(p.ContestID, p.Index)
}
