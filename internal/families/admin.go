package families

import (
	"context"
	"errors"

	pkgerrors "github.com/gatherhall/community-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Admin operations address any family by id. Role gating happens in the
// route middleware; the service only enforces data-level validation.

func (s *service) ListFamilies(ctx context.Context) ([]FamilyDTO, error) {
	found, err := s.repos.Families.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list families")
	}
	out := make([]FamilyDTO, 0, len(found))
	for i := range found {
		out = append(out, *FromModel(&found[i]))
	}
	return out, nil
}

func (s *service) GetFamily(ctx context.Context, id uuid.UUID) (*FamilyDetailDTO, error) {
	family, err := s.repos.Families.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "family not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load family")
	}
	return s.familyDetail(ctx, family, true)
}

func (s *service) UpdateFamily(ctx context.Context, id uuid.UUID, input UpdateFamilyInput) (*FamilyDTO, error) {
	family, err := s.repos.Families.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "family not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load family")
	}
	return s.applyFamilyUpdate(ctx, family, input)
}

// DeleteFamily cascades: every attached user is detached (never deleted),
// all roster members and pending invitations are removed, then the family
// itself. Events are untouched.
func (s *service) DeleteFamily(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repos.Families.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "family not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load family")
	}

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repos := s.txRepos(tx)
		if err := repos.Users.DetachFamily(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach family users")
		}
		if err := repos.Members.DeleteByFamily(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete family members")
		}
		if err := repos.Invitations.DeleteByFamily(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete invitations")
		}
		if err := repos.Families.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete family")
		}
		return nil
	})
}
