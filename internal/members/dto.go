package members

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gatherhall/community-backend/pkg/db/models"
	"github.com/gatherhall/community-backend/pkg/enums"
)

// MemberDTO is the roster-facing shape with its derived fields included.
type MemberDTO struct {
	ID          uuid.UUID    `json:"id"`
	FamilyID    uuid.UUID    `json:"family_id"`
	UserID      *uuid.UUID   `json:"user_id,omitempty"`
	FirstName   string       `json:"first_name"`
	LastName    string       `json:"last_name"`
	FullName    string       `json:"full_name"`
	DateOfBirth time.Time    `json:"date_of_birth"`
	Age         int          `json:"age"`
	Gender      enums.Gender `json:"gender"`
	Email       *string      `json:"email,omitempty"`
	Phone       *string      `json:"phone,omitempty"`
	Address     *string      `json:"address,omitempty"`
	HasAccount  bool         `json:"has_account"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// CreateMemberDTO holds the data required by the repo to persist a member.
type CreateMemberDTO struct {
	FamilyID    uuid.UUID
	UserID      *uuid.UUID
	FirstName   string
	LastName    string
	DateOfBirth time.Time
	Gender      enums.Gender
	Email       *string
	Phone       *string
	Address     *string
}

func FromModel(m *models.FamilyMember) *MemberDTO {
	if m == nil {
		return nil
	}

	return &MemberDTO{
		ID:          m.ID,
		FamilyID:    m.FamilyID,
		UserID:      m.UserID,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		FullName:    fmt.Sprintf("%s %s", m.FirstName, m.LastName),
		DateOfBirth: m.DateOfBirth,
		Age:         ageAt(m.DateOfBirth, time.Now().UTC()),
		Gender:      m.Gender,
		Email:       m.Email,
		Phone:       m.Phone,
		Address:     m.Address,
		HasAccount:  m.HasAccount(),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func FromModels(found []models.FamilyMember) []MemberDTO {
	out := make([]MemberDTO, 0, len(found))
	for i := range found {
		out = append(out, *FromModel(&found[i]))
	}
	return out
}

func (c CreateMemberDTO) ToModel() *models.FamilyMember {
	return &models.FamilyMember{
		FamilyID:    c.FamilyID,
		UserID:      c.UserID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		DateOfBirth: c.DateOfBirth,
		Gender:      c.Gender,
		Email:       c.Email,
		Phone:       c.Phone,
		Address:     c.Address,
	}
}

func ageAt(dob, now time.Time) int {
	if dob.IsZero() || dob.After(now) {
		return 0
	}
	years := now.Year() - dob.Year()
	anniversary := dob.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}
