package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/gatherhall/community-backend/pkg/errors"
	"github.com/gatherhall/community-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ForgotPassword issues a short-lived reset token when the email is known.
// The caller always gets a success-shaped result so the endpoint cannot be
// used to probe which emails exist; only the sha256 digest of the token is
// stored.
func (s *service) ForgotPassword(ctx context.Context, email string) (*ForgotPasswordResult, error) {
	input := strings.ToLower(strings.TrimSpace(email))
	if input == "" {
		return &ForgotPasswordResult{}, nil
	}

	user, err := s.users.FindByEmail(ctx, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Info(ctx, "password reset requested for unknown email")
			return &ForgotPasswordResult{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	token, err := security.GenerateResetToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate reset token")
	}

	expiresAt := time.Now().UTC().Add(s.resetCfg.TTL)
	if err := s.users.SetResetToken(ctx, user.ID, security.HashToken(token), expiresAt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store reset token")
	}

	return &ForgotPasswordResult{
		ResetURL: s.resetURL(token),
	}, nil
}

// ResetPassword consumes a reset token: the new credential is stored and the
// token fields are cleared in the same write, then a fresh session opens.
func (s *service) ResetPassword(ctx context.Context, token string, req ResetPasswordRequest) (*AuthResponse, error) {
	if req.Password != req.ConfirmPassword {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "passwords do not match")
	}
	if strings.TrimSpace(token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired reset token")
	}

	user, err := s.users.FindByResetTokenHash(ctx, security.HashToken(token), time.Now().UTC())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired reset token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup reset token")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user.PasswordHash = hash
	user.ResetTokenHash = nil
	user.ResetTokenExpiresAt = nil
	if err := s.users.Update(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}

	return s.issueSession(ctx, user)
}

// UpdatePassword changes the credential for a logged-in user.
func (s *service) UpdatePassword(ctx context.Context, userID uuid.UUID, req UpdatePasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return pkgerrors.New(pkgerrors.CodeValidation, "passwords do not match")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown user")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(req.CurrentPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
	}

	hash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}
	return nil
}

func (s *service) resetURL(token string) string {
	base := strings.TrimRight(s.appCfg.BaseURL, "/")
	return fmt.Sprintf("%s/api/auth/reset-password/%s", base, token)
}
