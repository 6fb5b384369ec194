package dto

import (
	"time"

	"github.com/spec-kit/plantpal-service/internal/domain"
)

// RegisterRequest payload for new users.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ProfileUpdateRequest payload for PUT /api/profile.
type ProfileUpdateRequest struct {
	Username string `json:"username"`
}

// UserResponse is a user without the password hash.
type UserResponse struct {
	ID                string      `json:"_id"`
	Username          string      `json:"username"`
	Email             string      `json:"email"`
	Role              domain.Role `json:"role"`
	ProfilePictureURL string      `json:"profilePictureUrl,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:                u.ID,
		Username:          u.Username,
		Email:             u.Email,
		Role:              u.Role,
		ProfilePictureURL: u.ProfilePictureURL,
		CreatedAt:         u.CreatedAt,
	}
}

// NewUserListResponse maps a slice of users.
func NewUserListResponse(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}
