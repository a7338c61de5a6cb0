package families

import (
	"context"
	"fmt"
	"time"

	"github.com/gatherhall/community-backend/internal/members"
	"github.com/gatherhall/community-backend/pkg/db"
	"github.com/gatherhall/community-backend/pkg/db/models"
	"github.com/gatherhall/community-backend/pkg/enums"
	pkgerrors "github.com/gatherhall/community-backend/pkg/errors"
	"github.com/gatherhall/community-backend/pkg/slugs"
	"github.com/google/uuid"
)

const (
	slugConstraint  = "idx_families_slug"
	maxSlugAttempts = 50
)

// Bootstrap founds a family for a freshly registered user: a family named
// after the user's last name, a roster member mirroring the user, the
// manager role on the user, and the user's family pointer. Callers run it
// inside a transaction so a failed step leaves no dangling references.
func Bootstrap(ctx context.Context, repos Repos, user *models.User) (*models.Family, *models.FamilyMember, error) {
	if user == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeInternal, "user is required")
	}

	name := fmt.Sprintf("%s Family", user.LastName)
	family, err := createWithUniqueSlug(ctx, repos.Families, name, user.ID)
	if err != nil {
		return nil, nil, err
	}

	member, err := repos.Members.Create(ctx, mirrorMemberDTO(family.ID, user))
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create founding member")
	}

	if err := repos.Users.UpdateFamilyID(ctx, user.ID, &family.ID); err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "attach user to family")
	}
	user.FamilyID = &family.ID

	roles := user.RoleSet().Add(enums.RoleFamilyManager)
	if err := repos.Users.UpdateRoles(ctx, user.ID, roles.Strings()); err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "grant manager role")
	}
	user.Roles = roles.Strings()

	return family, member, nil
}

// createWithUniqueSlug inserts the family, retrying with a numeric suffix
// when the slug unique index rejects the row. Insert-then-retry keeps slug
// allocation atomic under concurrent registration.
func createWithUniqueSlug(ctx context.Context, repo familyRepository, name string, managerID uuid.UUID) (*models.Family, error) {
	base := slugs.Derive(name)
	var lastErr error
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		family := &models.Family{
			Name:      name,
			Slug:      slugs.WithSuffix(base, attempt),
			ManagerID: managerID,
		}
		err := repo.Create(ctx, family)
		if err == nil {
			return family, nil
		}
		if db.IsUniqueViolation(err, slugConstraint) {
			lastErr = err
			continue
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create family")
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, lastErr, "could not allocate a unique family slug")
}

// mirrorMemberDTO copies the user's profile onto a linked roster member.
func mirrorMemberDTO(familyID uuid.UUID, user *models.User) members.CreateMemberDTO {
	dob := time.Time{}
	if user.DateOfBirth != nil {
		dob = *user.DateOfBirth
	}
	gender := enums.GenderOther
	if user.Gender != nil {
		gender = *user.Gender
	}
	email := user.Email

	return members.CreateMemberDTO{
		FamilyID:    familyID,
		UserID:      &user.ID,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		DateOfBirth: dob,
		Gender:      gender,
		Email:       &email,
		Phone:       user.Phone,
		Address:     user.Address,
	}
}
