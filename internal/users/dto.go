package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/gatherhall/community-backend/pkg/db/models"
	"github.com/gatherhall/community-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID     `json:"id"`
	Email       string        `json:"email"`
	FirstName   string        `json:"first_name"`
	LastName    string        `json:"last_name"`
	Phone       *string       `json:"phone,omitempty"`
	Address     *string       `json:"address,omitempty"`
	DateOfBirth *time.Time    `json:"date_of_birth,omitempty"`
	Gender      *enums.Gender `json:"gender,omitempty"`
	Roles       []string      `json:"roles"`
	FamilyID    *uuid.UUID    `json:"family_id,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        *string
	Address      *string
	DateOfBirth  *time.Time
	Gender       *enums.Gender
	Roles        []enums.Role
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Phone:       u.Phone,
		Address:     u.Address,
		DateOfBirth: u.DateOfBirth,
		Gender:      u.Gender,
		Roles:       append([]string(nil), []string(u.Roles)...),
		FamilyID:    u.FamilyID,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	roles := c.Roles
	if len(roles) == 0 {
		roles = []enums.Role{enums.RoleUser}
	}
	values := make([]string, 0, len(roles))
	for _, role := range roles {
		values = append(values, string(role))
	}

	return &models.User{
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Phone:        c.Phone,
		Address:      c.Address,
		DateOfBirth:  c.DateOfBirth,
		Gender:       c.Gender,
		Roles:        values,
	}
}
