package families

import (
	"time"

	"github.com/google/uuid"

	"github.com/gatherhall/community-backend/internal/members"
	"github.com/gatherhall/community-backend/internal/users"
	"github.com/gatherhall/community-backend/pkg/db/models"
)

// FamilyDTO is the transport shape for a family record.
type FamilyDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	ManagerID uuid.UUID `json:"manager_id"`
	Address   *string   `json:"address,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FamilyDetailDTO bundles the family with its roster and account holders.
type FamilyDetailDTO struct {
	FamilyDTO
	Members     []members.MemberDTO `json:"members"`
	Users       []users.UserDTO     `json:"users"`
	Invitations []InvitationDTO     `json:"invitations,omitempty"`
}

// InvitationDTO is the pending-invitation transport shape. The raw token is
// never included; it travels only in the invite URL handed to the inviter.
type InvitationDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// UpdateFamilyInput captures the allowed family fields for mutation. Nil
// pointers leave fields unchanged.
type UpdateFamilyInput struct {
	Name      *string
	ManagerID *uuid.UUID
	Address   *string
	Phone     *string
	Notes     *string
}

// AddMemberInput captures the data a manager supplies for a new member.
type AddMemberInput struct {
	FirstName   string
	LastName    string
	DateOfBirth time.Time
	Gender      string
	Email       *string
	Phone       *string
	Address     *string
}

// UpdateMemberInput carries the member patch. Nil means leave unchanged;
// a pointer to the empty string is an intentional clear.
type UpdateMemberInput struct {
	FirstName   *string
	LastName    *string
	DateOfBirth *time.Time
	Gender      *string
	Email       *string
	Phone       *string
	Address     *string
}

// InviteResult carries the outcome of an invitation.
type InviteResult struct {
	Email     string
	Token     string
	InviteURL string
	ExpiresAt time.Time
}

func FromModel(f *models.Family) *FamilyDTO {
	if f == nil {
		return nil
	}

	return &FamilyDTO{
		ID:        f.ID,
		Name:      f.Name,
		Slug:      f.Slug,
		ManagerID: f.ManagerID,
		Address:   f.Address,
		Phone:     f.Phone,
		Notes:     f.Notes,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

func invitationsFromModels(found []models.FamilyInvitation) []InvitationDTO {
	out := make([]InvitationDTO, 0, len(found))
	for _, inv := range found {
		out = append(out, InvitationDTO{
			ID:        inv.ID,
			Email:     inv.Email,
			ExpiresAt: inv.ExpiresAt,
			CreatedAt: inv.CreatedAt,
		})
	}
	return out
}

func usersFromModels(found []models.User) []users.UserDTO {
	out := make([]users.UserDTO, 0, len(found))
	for i := range found {
		out = append(out, *users.FromModel(&found[i]))
	}
	return out
}
