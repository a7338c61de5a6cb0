package auth

import (
	"time"

	"github.com/gatherhall/community-backend/internal/users"
	"github.com/google/uuid"
)

// RegisterRequest captures the payload for creating a user and founding
// their family.
type RegisterRequest struct {
	FirstName       string     `json:"first_name" validate:"required"`
	LastName        string     `json:"last_name" validate:"required"`
	Email           string     `json:"email" validate:"required,email"`
	Password        string     `json:"password" validate:"required,min=8"`
	ConfirmPassword string     `json:"confirm_password" validate:"required"`
	Phone           *string    `json:"phone,omitempty"`
	Address         *string    `json:"address,omitempty"`
	DateOfBirth     *time.Time `json:"date_of_birth,omitempty"`
	Gender          *string    `json:"gender,omitempty"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// FamilySummary is the minimal family info returned alongside a session.
type FamilySummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// AuthResponse contains the tokens and user produced by a successful
// register, login, or password reset.
type AuthResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
	Family       *FamilySummary `json:"family,omitempty"`
}

// RefreshRequest carries the expired access token and its refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse returns the rotated token pair.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// MeResponse describes the authenticated user and their family, if any.
type MeResponse struct {
	User   *users.UserDTO `json:"user"`
	Family *FamilySummary `json:"family,omitempty"`
}

// ForgotPasswordRequest carries the email to issue a reset token for.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPasswordResult reports the reset link when one was actually issued.
// The raw token only ever travels in this URL, never in storage.
type ForgotPasswordResult struct {
	ResetURL string
}

// ResetPasswordRequest carries the replacement credentials.
type ResetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// UpdatePasswordRequest carries a logged-in password change.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}
