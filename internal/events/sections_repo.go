package events

import (
	"context"

	"github.com/gatherhall/community-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SectionsRepository exposes event-section persistence operations.
type SectionsRepository struct {
	db *gorm.DB
}

// NewSectionsRepository constructs a sections repo bound to the provided GORM DB.
func NewSectionsRepository(db *gorm.DB) *SectionsRepository {
	return &SectionsRepository{db: db}
}

// Create inserts the section row. Callers handle unique-slug violations,
// which are scoped per event.
func (r *SectionsRepository) Create(ctx context.Context, section *models.EventSection) error {
	return r.db.WithContext(ctx).Create(section).Error
}

// FindBySlug loads a section by its slug within the event.
func (r *SectionsRepository) FindBySlug(ctx context.Context, eventID uuid.UUID, slug string) (*models.EventSection, error) {
	var section models.EventSection
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND slug = ?", eventID, slug).
		First(&section).Error
	if err != nil {
		return nil, err
	}
	return &section, nil
}

// ListByEvent returns the event's sections in creation order.
func (r *SectionsRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.EventSection, error) {
	var found []models.EventSection
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&found).Error
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Update persists the full section record.
func (r *SectionsRepository) Update(ctx context.Context, section *models.EventSection) error {
	return r.db.WithContext(ctx).Save(section).Error
}

// Delete removes the section row.
func (r *SectionsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.EventSection{}, "id = ?", id).Error
}

// DeleteByEvent removes every section belonging to the event.
func (r *SectionsRepository) DeleteByEvent(ctx context.Context, eventID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.EventSection{}, "event_id = ?", eventID).Error
}
