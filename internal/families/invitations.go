package families

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gatherhall/community-backend/pkg/db/models"
	pkgerrors "github.com/gatherhall/community-backend/pkg/errors"
	"github.com/gatherhall/community-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invite issues an invitation for an existing account holder to join the
// actor's family. The invitee email is stored exactly as submitted; the join
// step compares it verbatim against the joining user's stored email.
func (s *service) Invite(ctx context.Context, actorID uuid.UUID, email string) (*InviteResult, error) {
	actor, family, err := s.loadActorFamily(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !s.isManagerOrAdmin(actor, family) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the family manager may invite")
	}

	submitted := strings.TrimSpace(email)
	if submitted == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	target, err := s.repos.Users.FindByEmail(ctx, strings.ToLower(submitted))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no user with that email")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup invitee")
	}
	if target.FamilyID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "user already belongs to a family")
	}

	token, err := security.GenerateInviteToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate invite token")
	}

	invitation := &models.FamilyInvitation{
		FamilyID:  family.ID,
		Email:     submitted,
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(s.inviteCfg.TTL),
	}
	if err := s.repos.Invitations.Create(ctx, invitation); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store invitation")
	}

	return &InviteResult{
		Email:     submitted,
		Token:     token,
		InviteURL: s.inviteURL(token),
		ExpiresAt: invitation.ExpiresAt,
	}, nil
}

// Join consumes an invitation token: the user is attached to the inviting
// family, a mirroring roster member is created, and every invitation row
// carrying this token is removed.
func (s *service) Join(ctx context.Context, userID uuid.UUID, token string) (*FamilyDetailDTO, error) {
	user, err := s.loadActor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.FamilyID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "you already belong to a family")
	}
	if strings.TrimSpace(token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired invitation")
	}

	invitation, err := s.repos.Invitations.FindValidByToken(ctx, token, time.Now().UTC())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired invitation")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup invitation")
	}

	if invitation.Email != user.Email {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invitation was issued to a different email")
	}

	family, err := s.repos.Families.FindByID(ctx, invitation.FamilyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired invitation")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load family")
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repos := s.txRepos(tx)
		if err := repos.Invitations.DeleteByToken(ctx, token); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume invitation")
		}
		if _, err := repos.Members.Create(ctx, mirrorMemberDTO(family.ID, user)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create roster member")
		}
		if err := repos.Users.UpdateFamilyID(ctx, user.ID, &family.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach user to family")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	user.FamilyID = &family.ID

	return s.familyDetail(ctx, family, false)
}

func (s *service) inviteURL(token string) string {
	base := strings.TrimRight(s.app.BaseURL, "/")
	return fmt.Sprintf("%s/api/families/join/%s", base, token)
}
