package families

import (
	"context"

	"github.com/gatherhall/community-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes family persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a families repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the family row. Callers handle unique-slug violations.
func (r *Repository) Create(ctx context.Context, family *models.Family) error {
	return r.db.WithContext(ctx).Create(family).Error
}

// FindByID loads a family by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Family, error) {
	var family models.Family
	if err := r.db.WithContext(ctx).First(&family, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &family, nil
}

// List returns every family ordered by creation time.
func (r *Repository) List(ctx context.Context) ([]models.Family, error) {
	var found []models.Family
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&found).Error
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Update persists the full family record.
func (r *Repository) Update(ctx context.Context, family *models.Family) error {
	return r.db.WithContext(ctx).Save(family).Error
}

// Delete removes the family row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.Family{}, "id = ?", id).Error
}
