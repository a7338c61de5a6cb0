package users

import (
	"context"
	"time"

	"github.com/gatherhall/community-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByResetTokenHash loads a user holding an unexpired reset token digest.
func (r *Repository) FindByResetTokenHash(ctx context.Context, digest string, now time.Time) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("reset_token_hash = ? AND reset_token_expires_at > ?", digest, now).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListByFamily returns every account holder attached to the family.
func (r *Repository) ListByFamily(ctx context.Context, familyID uuid.UUID) ([]models.User, error) {
	var found []models.User
	err := r.db.WithContext(ctx).
		Where("family_id = ?", familyID).
		Order("created_at ASC").
		Find(&found).Error
	if err != nil {
		return nil, err
	}
	return found, nil
}

// CountFamilyManagers counts users in the family that carry the manager role.
func (r *Repository) CountFamilyManagers(ctx context.Context, familyID uuid.UUID, role string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("family_id = ? AND ? = ANY(roles)", familyID, role).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Update persists the full user record.
func (r *Repository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// UpdateFamilyID points the user at a family, or detaches them when nil.
func (r *Repository) UpdateFamilyID(ctx context.Context, id uuid.UUID, familyID *uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("family_id", familyID).Error
}

// DetachFamily clears family_id on every user attached to the family.
func (r *Repository) DetachFamily(ctx context.Context, familyID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("family_id = ?", familyID).
		UpdateColumn("family_id", nil).Error
}

// UpdateRoles overwrites the user's roles array.
func (r *Repository) UpdateRoles(ctx context.Context, id uuid.UUID, roles []string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("roles", pq.StringArray(roles)).Error
}

// UpdatePasswordHash replaces the stored credential hash.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("password_hash", hash).Error
}

// SetResetToken stores the hashed reset token and its expiry.
func (r *Repository) SetResetToken(ctx context.Context, id uuid.UUID, digest string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"reset_token_hash":       digest,
			"reset_token_expires_at": expiresAt,
		}).Error
}

// ClearResetToken removes any stored reset token state.
func (r *Repository) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"reset_token_hash":       nil,
			"reset_token_expires_at": nil,
		}).Error
}
