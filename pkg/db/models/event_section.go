package models

import (
	"time"

	"github.com/google/uuid"
)

// EventSection is a sub-activity of an event, addressed by slug within the
// owning event.
type EventSection struct {
	ID                  uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	EventID             uuid.UUID  `gorm:"column:event_id;type:uuid;not null;index:idx_event_sections_event_slug,unique"`
	Title               string     `gorm:"column:title;not null"`
	Slug                string     `gorm:"column:slug;not null;index:idx_event_sections_event_slug,unique"`
	Description         string     `gorm:"column:description"`
	Capacity            *int       `gorm:"column:capacity"`
	RegistrationOpensAt *time.Time `gorm:"column:registration_opens_at"`
	CreatedAt           time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
