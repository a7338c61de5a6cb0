package members

import (
	"context"

	"github.com/gatherhall/community-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes family-member persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a members repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new family member and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateMemberDTO) (*models.FamilyMember, error) {
	member := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		return nil, err
	}
	return member, nil
}

// FindInFamily loads a member scoped by family id, so a guessed id from
// another family still reads as not found.
func (r *Repository) FindInFamily(ctx context.Context, familyID, memberID uuid.UUID) (*models.FamilyMember, error) {
	var member models.FamilyMember
	err := r.db.WithContext(ctx).
		Where("id = ? AND family_id = ?", memberID, familyID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// ListByFamily returns every member of the family.
func (r *Repository) ListByFamily(ctx context.Context, familyID uuid.UUID) ([]models.FamilyMember, error) {
	var found []models.FamilyMember
	err := r.db.WithContext(ctx).
		Where("family_id = ?", familyID).
		Order("created_at ASC").
		Find(&found).Error
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Update persists the full member record.
func (r *Repository) Update(ctx context.Context, member *models.FamilyMember) error {
	return r.db.WithContext(ctx).Save(member).Error
}

// Delete removes the member row.
func (r *Repository) Delete(ctx context.Context, memberID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.FamilyMember{}, "id = ?", memberID).Error
}

// DeleteByFamily removes every member belonging to the family.
func (r *Repository) DeleteByFamily(ctx context.Context, familyID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.FamilyMember{}, "family_id = ?", familyID).Error
}
