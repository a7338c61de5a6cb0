package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gatherhall/community-backend/internal/families"
	"github.com/gatherhall/community-backend/internal/users"
	"github.com/gatherhall/community-backend/pkg/config"
	"github.com/gatherhall/community-backend/pkg/db/models"
	"github.com/gatherhall/community-backend/pkg/enums"
	pkgerrors "github.com/gatherhall/community-backend/pkg/errors"
	"github.com/gatherhall/community-backend/pkg/security"
	"gorm.io/gorm"
)

// RegisterService handles the registration transaction: user creation plus
// the family bootstrap side effect.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type registerUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

// sessionIssuer is implemented by the auth service so registration can open
// a session without re-verifying the password it just set.
type sessionIssuer interface {
	issueFor(ctx context.Context, user *models.User) (*AuthResponse, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	TxRunner           txRunner
	UserRepoFactory    func(tx *gorm.DB) registerUserRepository
	FamilyReposFactory families.ReposFactory
	SessionIssuer      Service
	PasswordConfig     config.PasswordConfig
}

type registerService struct {
	db          txRunner
	userRepos   func(tx *gorm.DB) registerUserRepository
	familyRepos families.ReposFactory
	sessions    sessionIssuer
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	issuer, ok := params.SessionIssuer.(sessionIssuer)
	if !ok {
		return nil, fmt.Errorf("session issuer is required")
	}
	if params.UserRepoFactory == nil {
		params.UserRepoFactory = func(tx *gorm.DB) registerUserRepository {
			return users.NewRepository(tx)
		}
	}
	if params.FamilyReposFactory == nil {
		params.FamilyReposFactory = families.DefaultRepos
	}
	return &registerService{
		db:          params.TxRunner,
		userRepos:   params.UserRepoFactory,
		familyRepos: params.FamilyReposFactory,
		sessions:    issuer,
		passwordCfg: params.PasswordConfig,
	}, nil
}

// Register creates the user, founds their family, grants the manager role,
// and opens a session. Every write happens in one transaction so a failed
// step leaves neither a family without a manager nor a user with a dangling
// family pointer.
func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if req.Password != req.ConfirmPassword {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "passwords do not match")
	}

	var gender *enums.Gender
	if req.Gender != nil && *req.Gender != "" {
		parsed, err := enums.ParseGender(*req.Gender)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid gender")
		}
		gender = &parsed
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var user *models.User
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.userRepos(tx)
		famRepos := s.familyRepos(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		created, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Phone:        req.Phone,
			Address:      req.Address,
			DateOfBirth:  req.DateOfBirth,
			Gender:       gender,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		user = created

		if _, _, err := families.Bootstrap(ctx, famRepos, user); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.sessions.issueFor(ctx, user)
}

func (s *service) issueFor(ctx context.Context, user *models.User) (*AuthResponse, error) {
	return s.issueSession(ctx, user)
}
