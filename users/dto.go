// Package users provides user profile management: fetching and updating the
// account fields a signed-in user can see and change.
package users

import "time"

// UserProfileResponse represents the data returned for a user profile.
// @Description User profile information
type UserProfileResponse struct {
	ID             int        `json:"id"`
	Username       string     `json:"username"`
	Email          *string    `json:"email,omitempty"`
	DisplayName    *string    `json:"displayName,omitempty"`
	ProfilePicture *string    `json:"profilePicture,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
}

// UpdateUserProfileRequest represents a partial profile update. Nil fields
// are left untouched.
// @Description Request body for updating user profile
type UpdateUserProfileRequest struct {
	Email          *string `json:"email,omitempty"`
	DisplayName    *string `json:"displayName,omitempty"`
	ProfilePicture *string `json:"profilePicture,omitempty"`
}
