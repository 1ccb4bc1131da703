package models

import (
	"time"
)

/** --------------------ENTITIES-------------------- */
// User represents the user entity
type User struct {
	ID       string `gorm:"type:uuid;primaryKey" json:"id"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Name     string `gorm:"not null" json:"name"`
	// DisplayName overrides Name in every user-facing payload when set.
	DisplayName       string    `json:"displayName,omitempty"`
	ProfilePictureURL string    `json:"profilePictureUrl,omitempty"`
	Password          string    `json:"-"` // bcrypt hash, never serialized
	CreatedAt         time.Time `json:"createdAt"`
}

// Display returns the name shown to other users.
func (u *User) Display() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Name
}

/** -------------------- DTOs -------------------- */
// Request
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest represents the request for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Response
type UserResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Picture  string `json:"picture,omitempty"`
}

// NewUserResponse builds the public identity payload for a user.
func NewUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Name:     u.Display(),
		Username: u.Username,
		Picture:  u.ProfilePictureURL,
	}
}

// LoginResponse represents the response for a successful login
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}
