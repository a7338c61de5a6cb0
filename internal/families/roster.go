package families

import (
	"context"
	"errors"
	"strings"

	"github.com/gatherhall/community-backend/internal/members"
	"github.com/gatherhall/community-backend/pkg/db/models"
	"github.com/gatherhall/community-backend/pkg/enums"
	pkgerrors "github.com/gatherhall/community-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AddMember creates an accountless roster member in the actor's family.
// Contact fields missing from the input inherit the manager's own profile
// values; an explicit non-empty value always wins.
func (s *service) AddMember(ctx context.Context, actorID uuid.UUID, input AddMemberInput) (*members.MemberDTO, error) {
	actor, family, err := s.loadActorFamily(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !s.isManagerOrAdmin(actor, family) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the family manager may add members")
	}

	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first name and last name are required")
	}

	gender := enums.GenderOther
	if input.Gender != "" {
		parsed, err := enums.ParseGender(input.Gender)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid gender")
		}
		gender = parsed
	}

	dto := members.CreateMemberDTO{
		FamilyID:    family.ID,
		FirstName:   strings.TrimSpace(input.FirstName),
		LastName:    strings.TrimSpace(input.LastName),
		DateOfBirth: input.DateOfBirth,
		Gender:      gender,
		Email:       clearableString(input.Email),
		Phone:       mergeContactDefault(input.Phone, actor.Phone),
		Address:     mergeContactDefault(input.Address, actor.Address),
	}

	member, err := s.repos.Members.Create(ctx, dto)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create member")
	}
	return members.FromModel(member), nil
}

// UpdateMember patches a member in the actor's family. Nil patch fields are
// left unchanged; a pointer to the empty string clears the field. When the
// member is linked to a user account, the same changes are mirrored onto the
// user record best-effort; a mirror failure is logged, never rolled back.
func (s *service) UpdateMember(ctx context.Context, actorID, memberID uuid.UUID, patch UpdateMemberInput) (*members.MemberDTO, error) {
	actor, family, err := s.loadActorFamily(ctx, actorID)
	if err != nil {
		return nil, err
	}

	member, err := s.findMember(ctx, family.ID, memberID)
	if err != nil {
		return nil, err
	}

	selfEdit := member.UserID != nil && *member.UserID == actor.ID
	if !s.isManagerOrAdmin(actor, family) && !selfEdit {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the family manager or the member themselves may edit")
	}

	if patch.Gender != nil {
		parsed, err := enums.ParseGender(*patch.Gender)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid gender")
		}
		member.Gender = parsed
	}
	if patch.FirstName != nil && *patch.FirstName != "" {
		member.FirstName = *patch.FirstName
	}
	if patch.LastName != nil && *patch.LastName != "" {
		member.LastName = *patch.LastName
	}
	if patch.DateOfBirth != nil {
		member.DateOfBirth = *patch.DateOfBirth
	}
	if patch.Email != nil {
		member.Email = clearableString(patch.Email)
	}
	if patch.Phone != nil {
		member.Phone = clearableString(patch.Phone)
	}
	if patch.Address != nil {
		member.Address = clearableString(patch.Address)
	}

	if err := s.repos.Members.Update(ctx, member); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update member")
	}

	if member.UserID != nil {
		s.mirrorPatchToUser(ctx, *member.UserID, patch)
	}

	return members.FromModel(member), nil
}

// DeleteMember removes a member from the actor's family. A linked user is
// detached, never deleted. Removing the last manager-role holder in the
// family is rejected before any mutation happens.
func (s *service) DeleteMember(ctx context.Context, actorID, memberID uuid.UUID) error {
	actor, family, err := s.loadActorFamily(ctx, actorID)
	if err != nil {
		return err
	}
	if !s.isManagerOrAdmin(actor, family) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the family manager may remove members")
	}

	member, err := s.findMember(ctx, family.ID, memberID)
	if err != nil {
		return err
	}

	if member.UserID != nil {
		linked, err := s.repos.Users.FindByID(ctx, *member.UserID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load linked user")
		}
		if linked != nil && linked.HasRole(enums.RoleFamilyManager) {
			count, err := s.repos.Users.CountFamilyManagers(ctx, family.ID, string(enums.RoleFamilyManager))
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count family managers")
			}
			if count <= 1 {
				return pkgerrors.New(pkgerrors.CodeConflict,
					"cannot delete the only family manager; assign a new manager first")
			}
		}
	}

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repos := s.txRepos(tx)
		if member.UserID != nil {
			if err := repos.Users.UpdateFamilyID(ctx, *member.UserID, nil); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach linked user")
			}
		}
		if err := repos.Members.Delete(ctx, member.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete member")
		}
		return nil
	})
}

func (s *service) findMember(ctx context.Context, familyID, memberID uuid.UUID) (*models.FamilyMember, error) {
	member, err := s.repos.Members.FindInFamily(ctx, familyID, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member")
	}
	return member, nil
}

// mirrorPatchToUser applies the member patch onto the linked user profile so
// the roster and the profile stay in step. Failures are logged and swallowed.
func (s *service) mirrorPatchToUser(ctx context.Context, userID uuid.UUID, patch UpdateMemberInput) {
	user, err := s.repos.Users.FindByID(ctx, userID)
	if err != nil {
		s.logg.Error(ctx, "mirror member update: load user", err)
		return
	}

	if patch.FirstName != nil && *patch.FirstName != "" {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil && *patch.LastName != "" {
		user.LastName = *patch.LastName
	}
	if patch.DateOfBirth != nil {
		dob := *patch.DateOfBirth
		user.DateOfBirth = &dob
	}
	if patch.Gender != nil {
		if parsed, err := enums.ParseGender(*patch.Gender); err == nil {
			user.Gender = &parsed
		}
	}
	if patch.Phone != nil {
		user.Phone = clearableString(patch.Phone)
	}
	if patch.Address != nil {
		user.Address = clearableString(patch.Address)
	}

	if err := s.repos.Users.Update(ctx, user); err != nil {
		s.logg.Error(ctx, "mirror member update: save user", err)
	}
}

// mergeContactDefault applies the default-inheritance policy for contact
// fields: a present non-empty override wins, otherwise the manager's own
// profile value is inherited.
func mergeContactDefault(explicit, fallback *string) *string {
	if explicit != nil && *explicit != "" {
		cpy := *explicit
		return &cpy
	}
	if fallback == nil || *fallback == "" {
		return nil
	}
	cpy := *fallback
	return &cpy
}
