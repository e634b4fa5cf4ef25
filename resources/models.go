// Package resources is the curated learning resource catalog: courses,
// articles, and problem sets, filterable by type, difficulty, and tag.
package resources

import "time"

// Resource is one catalog entry.
type Resource struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	URL          string    `json:"url"`
	CreatedAt    time.Time `json:"createdAt"`
	ResourceType string    `json:"resourceType"`
	Tags         []string  `json:"tags"`
	Difficulty   *string   `json:"difficulty,omitempty"`
	Source       *string   `json:"source,omitempty"`
}

// CreateResourceRequest is the payload for adding a catalog entry.
type CreateResourceRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	URL          string   `json:"url"`
	ResourceType string   `json:"resourceType"`
	Tags         []string `json:"tags"`
	Difficulty   *string  `json:"difficulty,omitempty"`
	Source       *string  `json:"source,omitempty"`
}

// ListFilter narrows a catalog listing. Zero values mean no filtering.
type ListFilter struct {
	ResourceType string
	Difficulty   string
	Tag          string
}
