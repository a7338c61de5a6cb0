package families

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gatherhall/community-backend/internal/members"
	"github.com/gatherhall/community-backend/internal/users"
	"github.com/gatherhall/community-backend/pkg/config"
	"github.com/gatherhall/community-backend/pkg/db/models"
	"github.com/gatherhall/community-backend/pkg/enums"
	pkgerrors "github.com/gatherhall/community-backend/pkg/errors"
	"github.com/gatherhall/community-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ListByFamily(ctx context.Context, familyID uuid.UUID) ([]models.User, error)
	CountFamilyManagers(ctx context.Context, familyID uuid.UUID, role string) (int64, error)
	Update(ctx context.Context, user *models.User) error
	UpdateFamilyID(ctx context.Context, id uuid.UUID, familyID *uuid.UUID) error
	UpdateRoles(ctx context.Context, id uuid.UUID, roles []string) error
	DetachFamily(ctx context.Context, familyID uuid.UUID) error
}

type membersRepository interface {
	Create(ctx context.Context, dto members.CreateMemberDTO) (*models.FamilyMember, error)
	FindInFamily(ctx context.Context, familyID, memberID uuid.UUID) (*models.FamilyMember, error)
	ListByFamily(ctx context.Context, familyID uuid.UUID) ([]models.FamilyMember, error)
	Update(ctx context.Context, member *models.FamilyMember) error
	Delete(ctx context.Context, memberID uuid.UUID) error
	DeleteByFamily(ctx context.Context, familyID uuid.UUID) error
}

type familyRepository interface {
	Create(ctx context.Context, family *models.Family) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Family, error)
	List(ctx context.Context) ([]models.Family, error)
	Update(ctx context.Context, family *models.Family) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type invitationsRepository interface {
	Create(ctx context.Context, invitation *models.FamilyInvitation) error
	FindValidByToken(ctx context.Context, token string, now time.Time) (*models.FamilyInvitation, error)
	ListByFamily(ctx context.Context, familyID uuid.UUID) ([]models.FamilyInvitation, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteByFamily(ctx context.Context, familyID uuid.UUID) error
}

// Repos bundles the persistence surfaces the membership workflows touch.
type Repos struct {
	Users       userRepository
	Members     membersRepository
	Families    familyRepository
	Invitations invitationsRepository
}

// DefaultRepos binds the concrete repositories to the provided GORM handle,
// which may be a transaction.
func DefaultRepos(tx *gorm.DB) Repos {
	return Repos{
		Users:       users.NewRepository(tx),
		Members:     members.NewRepository(tx),
		Families:    NewRepository(tx),
		Invitations: NewInvitationsRepository(tx),
	}
}

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ReposFactory builds a repo set bound to the given transaction handle.
type ReposFactory func(tx *gorm.DB) Repos

// Service exposes the family membership workflows.
type Service interface {
	GetMyFamily(ctx context.Context, userID uuid.UUID) (*FamilyDetailDTO, error)
	UpdateMyFamily(ctx context.Context, actorID uuid.UUID, input UpdateFamilyInput) (*FamilyDTO, error)
	Invite(ctx context.Context, actorID uuid.UUID, email string) (*InviteResult, error)
	Join(ctx context.Context, userID uuid.UUID, token string) (*FamilyDetailDTO, error)
	AddMember(ctx context.Context, actorID uuid.UUID, input AddMemberInput) (*members.MemberDTO, error)
	UpdateMember(ctx context.Context, actorID, memberID uuid.UUID, patch UpdateMemberInput) (*members.MemberDTO, error)
	DeleteMember(ctx context.Context, actorID, memberID uuid.UUID) error
	TransferOwnership(ctx context.Context, actorID, newManagerID uuid.UUID) (*FamilyDTO, error)
	ListFamilies(ctx context.Context) ([]FamilyDTO, error)
	GetFamily(ctx context.Context, id uuid.UUID) (*FamilyDetailDTO, error)
	UpdateFamily(ctx context.Context, id uuid.UUID, input UpdateFamilyInput) (*FamilyDTO, error)
	DeleteFamily(ctx context.Context, id uuid.UUID) error
}

type service struct {
	db        TxRunner
	repos     Repos
	txRepos   ReposFactory
	logg      *logger.Logger
	app       config.AppConfig
	inviteCfg config.InvitationsConfig
}

// ServiceParams bundles the dependencies required to build the service.
type ServiceParams struct {
	DB          TxRunner
	Repos       Repos
	TxRepos     ReposFactory
	Logger      *logger.Logger
	App         config.AppConfig
	Invitations config.InvitationsConfig
}

// NewService constructs a membership service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Repos.Users == nil || params.Repos.Members == nil ||
		params.Repos.Families == nil || params.Repos.Invitations == nil {
		return nil, fmt.Errorf("all repositories are required")
	}
	if params.TxRepos == nil {
		params.TxRepos = DefaultRepos
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		db:        params.DB,
		repos:     params.Repos,
		txRepos:   params.TxRepos,
		logg:      params.Logger,
		app:       params.App,
		inviteCfg: params.Invitations,
	}, nil
}

func (s *service) GetMyFamily(ctx context.Context, userID uuid.UUID) (*FamilyDetailDTO, error) {
	actor, family, err := s.loadActorFamily(ctx, userID)
	if err != nil {
		return nil, err
	}
	includeInvites := s.isManagerOrAdmin(actor, family)
	return s.familyDetail(ctx, family, includeInvites)
}

func (s *service) UpdateMyFamily(ctx context.Context, actorID uuid.UUID, input UpdateFamilyInput) (*FamilyDTO, error) {
	actor, family, err := s.loadActorFamily(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !s.isManagerOrAdmin(actor, family) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the family manager may update the family")
	}
	return s.applyFamilyUpdate(ctx, family, input)
}

// applyFamilyUpdate patches the family record. A manager reassignment in the
// payload goes through the same validation as an explicit ownership transfer.
func (s *service) applyFamilyUpdate(ctx context.Context, family *models.Family, input UpdateFamilyInput) (*FamilyDTO, error) {
	if input.Name != nil && *input.Name != "" {
		family.Name = *input.Name
	}
	if input.Address != nil {
		family.Address = clearableString(input.Address)
	}
	if input.Phone != nil {
		family.Phone = clearableString(input.Phone)
	}
	if input.Notes != nil {
		family.Notes = clearableString(input.Notes)
	}

	var newManager *models.User
	if input.ManagerID != nil && *input.ManagerID != family.ManagerID {
		target, err := s.validateManagerCandidate(ctx, family, *input.ManagerID)
		if err != nil {
			return nil, err
		}
		newManager = target
		family.ManagerID = target.ID
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repos := s.txRepos(tx)
		if err := repos.Families.Update(ctx, family); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update family")
		}
		if newManager != nil && !newManager.HasRole(enums.RoleFamilyManager) {
			roles := newManager.RoleSet().Add(enums.RoleFamilyManager)
			if err := repos.Users.UpdateRoles(ctx, newManager.ID, roles.Strings()); err != nil {
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

// validateManagerCandidate ensures the proposed manager already belongs to
// the family. Outsiders must join before they can be promoted.
func (s *service) validateManagerCandidate(ctx context.Context, family *models.Family, candidateID uuid.UUID) (*models.User, error) {
	target, err := s.repos.Users.FindByID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "new manager must belong to this family")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup new manager")
	}
	if target.FamilyID == nil || *target.FamilyID != family.ID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "new manager must belong to this family")
	}
	return target, nil
}

func (s *service) familyDetail(ctx context.Context, family *models.Family, includeInvites bool) (*FamilyDetailDTO, error) {
	roster, err := s.repos.Members.ListByFamily(ctx, family.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list family members")
	}
	holders, err := s.repos.Users.ListByFamily(ctx, family.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list family users")
	}

	detail := &FamilyDetailDTO{
		FamilyDTO: *FromModel(family),
		Members:   members.FromModels(roster),
		Users:     usersFromModels(holders),
	}

	if includeInvites {
		invites, err := s.repos.Invitations.ListByFamily(ctx, family.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invitations")
		}
		detail.Invitations = invitationsFromModels(invites)
	}
	return detail, nil
}

func (s *service) loadActor(ctx context.Context, actorID uuid.UUID) (*models.User, error) {
	actor, err := s.repos.Users.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown user")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	return actor, nil
}

func (s *service) loadActorFamily(ctx context.Context, actorID uuid.UUID) (*models.User, *models.Family, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	if actor.FamilyID == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "family not found")
	}
	family, err := s.repos.Families.FindByID(ctx, *actor.FamilyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "family not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load family")
	}
	return actor, family, nil
}

// isManagerOrAdmin reports whether the actor is the family's manager of
// record or a platform admin. Holding the familyManager role alone is not
// enough; ownership is the manager_id pointer.
func (s *service) isManagerOrAdmin(actor *models.User, family *models.Family) bool {
	if actor == nil || family == nil {
		return false
	}
	if actor.HasRole(enums.RoleAdmin) {
		return true
	}
	return family.ManagerID == actor.ID
}

// clearableString maps a pointer-to-empty patch value to a cleared field
// while keeping non-empty values as-is.
func clearableString(value *string) *string {
	if value == nil || *value == "" {
		return nil
	}
	cpy := *value
	return &cpy
}
