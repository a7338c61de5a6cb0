package families

import (
	"context"
	"time"

	"github.com/gatherhall/community-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvitationsRepository exposes invitation persistence operations.
type InvitationsRepository struct {
	db *gorm.DB
}

// NewInvitationsRepository constructs an invitations repo bound to the provided GORM DB.
func NewInvitationsRepository(db *gorm.DB) *InvitationsRepository {
	return &InvitationsRepository{db: db}
}

// Create inserts a new invitation row.
func (r *InvitationsRepository) Create(ctx context.Context, invitation *models.FamilyInvitation) error {
	return r.db.WithContext(ctx).Create(invitation).Error
}

// FindValidByToken returns the most recently issued unexpired invitation
// carrying the token. Duplicate invitations to the same email may coexist,
// so newest-first ordering decides which entry wins.
func (r *InvitationsRepository) FindValidByToken(ctx context.Context, token string, now time.Time) (*models.FamilyInvitation, error) {
	var invitation models.FamilyInvitation
	err := r.db.WithContext(ctx).
		Where("token = ? AND expires_at > ?", token, now).
		Order("created_at DESC").
		First(&invitation).Error
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

// ListByFamily returns pending invitations for the family.
func (r *InvitationsRepository) ListByFamily(ctx context.Context, familyID uuid.UUID) ([]models.FamilyInvitation, error) {
	var found []models.FamilyInvitation
	err := r.db.WithContext(ctx).
		Where("family_id = ?", familyID).
		Order("created_at ASC").
		Find(&found).Error
	if err != nil {
		return nil, err
	}
	return found, nil
}

// DeleteByToken removes every invitation carrying the token, not just one row.
func (r *InvitationsRepository) DeleteByToken(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).
		Delete(&models.FamilyInvitation{}, "token = ?", token).Error
}

// DeleteByFamily removes every invitation belonging to the family.
func (r *InvitationsRepository) DeleteByFamily(ctx context.Context, familyID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.FamilyInvitation{}, "family_id = ?", familyID).Error
}
