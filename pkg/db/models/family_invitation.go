package models

import (
	"time"

	"github.com/google/uuid"
)

// FamilyInvitation is a pending invite to join a family. The email is stored
// exactly as the inviter submitted it; join compares it verbatim against the
// joining user's email. Several invitations for the same address may coexist.
type FamilyInvitation struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	FamilyID  uuid.UUID `gorm:"column:family_id;type:uuid;not null;index"`
	Email     string    `gorm:"column:email;not null"`
	Token     string    `gorm:"column:token;not null;index"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
