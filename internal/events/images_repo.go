package events

import (
	"context"

	"github.com/gatherhall/community-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ImagesRepository exposes gallery persistence operations.
type ImagesRepository struct {
	db *gorm.DB
}

// NewImagesRepository constructs an images repo bound to the provided GORM DB.
func NewImagesRepository(db *gorm.DB) *ImagesRepository {
	return &ImagesRepository{db: db}
}

// Create inserts a new gallery row.
func (r *ImagesRepository) Create(ctx context.Context, image *models.EventImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

// FindInEvent loads a gallery entry scoped by event id.
func (r *ImagesRepository) FindInEvent(ctx context.Context, eventID, imageID uuid.UUID) (*models.EventImage, error) {
	var image models.EventImage
	err := r.db.WithContext(ctx).
		Where("id = ? AND event_id = ?", imageID, eventID).
		First(&image).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// ListByEvent returns the event's gallery in display order.
func (r *ImagesRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.EventImage, error) {
	var found []models.EventImage
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("position ASC, created_at ASC").
		Find(&found).Error
	if err != nil {
		return nil, err
	}
	return found, nil
}

// CountByEvent reports the gallery size, used to assign positions.
func (r *ImagesRepository) CountByEvent(ctx context.Context, eventID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.EventImage{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes the gallery row.
func (r *ImagesRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.EventImage{}, "id = ?", id).Error
}

// DeleteByEvent removes every gallery row belonging to the event.
func (r *ImagesRepository) DeleteByEvent(ctx context.Context, eventID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.EventImage{}, "event_id = ?", eventID).Error
}
