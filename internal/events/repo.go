package events

import (
	"context"

	"github.com/gatherhall/community-backend/pkg/db/models"
	"github.com/gatherhall/community-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes event persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an events repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the event row. Callers handle unique-slug violations.
func (r *Repository) Create(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// FindBySlug loads an event by its title slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).Where("title_slug = ?", slug).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// List returns a page of events ordered by start time then id. A non-nil
// cursor resumes after that position.
func (r *Repository) List(ctx context.Context, cursor *pagination.Cursor, limit int, publishedOnly bool) ([]models.Event, error) {
	query := r.db.WithContext(ctx).
		Order("starts_at ASC, id ASC").
		Limit(limit)
	if publishedOnly {
		query = query.Where("published = ?", true)
	}
	if cursor != nil {
		query = query.Where(
			"(starts_at > ?) OR (starts_at = ? AND id > ?)",
			cursor.StartsAt, cursor.StartsAt, cursor.ID,
		)
	}

	var found []models.Event
	if err := query.Find(&found).Error; err != nil {
		return nil, err
	}
	return found, nil
}

// Update persists the full event record.
func (r *Repository) Update(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Save(event).Error
}

// Delete removes the event row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.Event{}, "id = ?", id).Error
}
