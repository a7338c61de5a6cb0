package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/gatherhall/community-backend/pkg/db/models"
)

// EventDTO is the catalog-facing event shape.
type EventDTO struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	TitleSlug   string    `json:"title_slug"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EventDetailDTO bundles an event with its sections and gallery.
type EventDetailDTO struct {
	EventDTO
	Sections []SectionDTO `json:"sections"`
	Images   []ImageDTO   `json:"images"`
}

// SectionDTO is the transport shape for an event section.
type SectionDTO struct {
	ID                  uuid.UUID  `json:"id"`
	EventID             uuid.UUID  `json:"event_id"`
	Title               string     `json:"title"`
	Slug                string     `json:"slug"`
	Description         string     `json:"description"`
	Capacity            *int       `json:"capacity,omitempty"`
	RegistrationOpensAt *time.Time `json:"registration_opens_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// ImageDTO is one gallery entry.
type ImageDTO struct {
	ID        uuid.UUID `json:"id"`
	EventID   uuid.UUID `json:"event_id"`
	Position  int       `json:"position"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateEventInput captures the payload for a new event. Zero start/end
// times default to now and now plus one day.
type CreateEventInput struct {
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
	EndsAt      time.Time
	Published   *bool
}

// UpdateEventInput carries the event patch. Nil means leave unchanged.
type UpdateEventInput struct {
	Title       *string
	Description *string
	Location    *string
	StartsAt    *time.Time
	EndsAt      *time.Time
	Published   *bool
}

// CreateSectionInput captures the payload for a new section.
type CreateSectionInput struct {
	Title               string
	Description         string
	Capacity            *int
	RegistrationOpensAt *time.Time
}

// UpdateSectionInput carries the section patch. Nil means leave unchanged.
type UpdateSectionInput struct {
	Title               *string
	Description         *string
	Capacity            *int
	RegistrationOpensAt *time.Time
}

// ListResult is one page of events plus the cursor for the next page.
type ListResult struct {
	Events     []EventDTO `json:"events"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func FromModel(e *models.Event) *EventDTO {
	if e == nil {
		return nil
	}
	return &EventDTO{
		ID:          e.ID,
		Title:       e.Title,
		TitleSlug:   e.TitleSlug,
		Description: e.Description,
		Location:    e.Location,
		StartsAt:    e.StartsAt,
		EndsAt:      e.EndsAt,
		Published:   e.Published,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func sectionFromModel(s *models.EventSection) *SectionDTO {
	if s == nil {
		return nil
	}
	return &SectionDTO{
		ID:                  s.ID,
		EventID:             s.EventID,
		Title:               s.Title,
		Slug:                s.Slug,
		Description:         s.Description,
		Capacity:            s.Capacity,
		RegistrationOpensAt: s.RegistrationOpensAt,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}

func imageFromModel(i *models.EventImage) *ImageDTO {
	if i == nil {
		return nil
	}
	return &ImageDTO{
		ID:        i.ID,
		EventID:   i.EventID,
		Position:  i.Position,
		Name:      i.Name,
		URL:       i.URL,
		CreatedAt: i.CreatedAt,
	}
}
