package models

import (
	"time"

	"github.com/gatherhall/community-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// User represents the canonical identity entity.
type User struct {
	ID                  uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email               string         `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash        string         `gorm:"column:password_hash;not null"`
	FirstName           string         `gorm:"column:first_name;not null"`
	LastName            string         `gorm:"column:last_name;not null"`
	Phone               *string        `gorm:"column:phone"`
	Address             *string        `gorm:"column:address"`
	DateOfBirth         *time.Time     `gorm:"column:date_of_birth"`
	Gender              *enums.Gender  `gorm:"column:gender;type:text"`
	Roles               pq.StringArray `gorm:"type:text[];column:roles;not null;default:ARRAY['user']::text[]"`
	FamilyID            *uuid.UUID     `gorm:"column:family_id;type:uuid"`
	ResetTokenHash      *string        `gorm:"column:reset_token_hash"`
	ResetTokenExpiresAt *time.Time     `gorm:"column:reset_token_expires_at"`
	CreatedAt           time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// RoleSet exposes the user's roles as a typed additive set.
func (u *User) RoleSet() enums.RoleSet {
	if u == nil {
		return nil
	}
	return enums.RoleSetFromStrings(u.Roles)
}

// HasRole reports whether the user holds the given role.
func (u *User) HasRole(role enums.Role) bool {
	return u.RoleSet().Has(role)
}
