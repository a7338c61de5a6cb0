package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	FamilyID *uuid.UUID
	Roles    []string
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID   uuid.UUID  `json:"user_id"`
	FamilyID *uuid.UUID `json:"family_id,omitempty"`
	Roles    []string   `json:"roles"`
	jwt.RegisteredClaims
}
