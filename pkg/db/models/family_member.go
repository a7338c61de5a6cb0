package models

import (
	"time"

	"github.com/gatherhall/community-backend/pkg/enums"
	"github.com/google/uuid"
)

// FamilyMember is a person on a family roster. The user reference is nil for
// members without a login.
type FamilyMember struct {
	ID          uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	FamilyID    uuid.UUID    `gorm:"column:family_id;type:uuid;not null;index"`
	UserID      *uuid.UUID   `gorm:"column:user_id;type:uuid"`
	FirstName   string       `gorm:"column:first_name;not null"`
	LastName    string       `gorm:"column:last_name;not null"`
	DateOfBirth time.Time    `gorm:"column:date_of_birth"`
	Gender      enums.Gender `gorm:"column:gender;type:text"`
	Email       *string      `gorm:"column:email"`
	Phone       *string      `gorm:"column:phone"`
	Address     *string      `gorm:"column:address"`
	CreatedAt   time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

// HasAccount reports whether the member is linked to a user login.
func (m *FamilyMember) HasAccount() bool {
	return m != nil && m.UserID != nil
}
