package families

import (
	"context"

	"github.com/gatherhall/community-backend/pkg/enums"
	pkgerrors "github.com/gatherhall/community-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransferOwnership hands the family to another account holder in the same
// family. The manager role is additive: the new manager gains it if missing
// and the outgoing manager keeps theirs, so several manager-role holders may
// coexist during a handoff.
func (s *service) TransferOwnership(ctx context.Context, actorID, newManagerID uuid.UUID) (*FamilyDTO, error) {
	actor, family, err := s.loadActorFamily(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !s.isManagerOrAdmin(actor, family) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the family manager may transfer ownership")
	}

	target, err := s.validateManagerCandidate(ctx, family, newManagerID)
	if err != nil {
		return nil, err
	}

	family.ManagerID = target.ID
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repos := s.txRepos(tx)
		if err := repos.Families.Update(ctx, family); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update family manager")
		}
		if !target.HasRole(enums.RoleFamilyManager) {
			roles := target.RoleSet().Add(enums.RoleFamilyManager)
			if err := repos.Users.UpdateRoles(ctx, target.ID, roles.Strings()); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "grant manager role")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(family), nil
}
