package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is a community event addressed externally by its title slug.
type Event struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Title       string    `gorm:"column:title;not null"`
	TitleSlug   string    `gorm:"column:title_slug;not null;uniqueIndex"`
	Description string    `gorm:"column:description"`
	Location    string    `gorm:"column:location"`
	StartsAt    time.Time `gorm:"column:starts_at;not null"`
	EndsAt      time.Time `gorm:"column:ends_at;not null"`
	Published   bool      `gorm:"column:published;not null;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
