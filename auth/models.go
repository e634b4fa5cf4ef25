package auth

import "time"

// User is the domain model for an account. HashedPassword is never
// serialized; handlers additionally blank it before writing responses.
type User struct {
	ID             int        `json:"id"`
	Username       string     `json:"username"`
	HashedPassword string     `json:"-"`
	Email          *string    `json:"email,omitempty"`
	DisplayName    *string    `json:"displayName,omitempty"`
	ProfilePicture *string    `json:"profilePicture,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
}
