package models

import (
	"time"

	"github.com/google/uuid"
)

// EventImage is one entry of an event's ordered gallery. FileName is the name
// of the file on disk; URL is the public path served to clients.
type EventImage struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	EventID   uuid.UUID `gorm:"column:event_id;type:uuid;not null;index"`
	Position  int       `gorm:"column:position;not null"`
	Name      string    `gorm:"column:name;not null"`
	URL       string    `gorm:"column:url;not null"`
	FileName  string    `gorm:"column:file_name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
