package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gatherhall/community-backend/internal/uploads"
	"github.com/gatherhall/community-backend/pkg/db"
	"github.com/gatherhall/community-backend/pkg/db/models"
	pkgerrors "github.com/gatherhall/community-backend/pkg/errors"
	"github.com/gatherhall/community-backend/pkg/logger"
	"github.com/gatherhall/community-backend/pkg/pagination"
	"github.com/gatherhall/community-backend/pkg/slugs"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const (
	eventSlugConstraint   = "idx_events_title_slug"
	sectionSlugConstraint = "idx_event_sections_event_slug"
	maxSlugAttempts       = 50
)

type eventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	FindBySlug(ctx context.Context, slug string) (*models.Event, error)
	List(ctx context.Context, cursor *pagination.Cursor, limit int, publishedOnly bool) ([]models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type sectionsRepository interface {
	Create(ctx context.Context, section *models.EventSection) error
	FindBySlug(ctx context.Context, eventID uuid.UUID, slug string) (*models.EventSection, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.EventSection, error)
	Update(ctx context.Context, section *models.EventSection) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByEvent(ctx context.Context, eventID uuid.UUID) error
}

type imagesRepository interface {
	Create(ctx context.Context, image *models.EventImage) error
	FindInEvent(ctx context.Context, eventID, imageID uuid.UUID) (*models.EventImage, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.EventImage, error)
	CountByEvent(ctx context.Context, eventID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByEvent(ctx context.Context, eventID uuid.UUID) error
}

type fileStore interface {
	Save(ctx context.Context, input uploads.SaveInput) (*uploads.SavedFile, error)
	Remove(ctx context.Context, fileName string) error
}

// Repos bundles the persistence surfaces the catalog touches.
type Repos struct {
	Events   eventRepository
	Sections sectionsRepository
	Images   imagesRepository
}

// DefaultRepos binds the concrete repositories to the provided GORM handle.
func DefaultRepos(tx *gorm.DB) Repos {
	return Repos{
		Events:   NewRepository(tx),
		Sections: NewSectionsRepository(tx),
		Images:   NewImagesRepository(tx),
	}
}

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ReposFactory builds a repo set bound to the given transaction handle.
type ReposFactory func(tx *gorm.DB) Repos

// UploadInput describes one inbound gallery file.
type UploadInput struct {
	FileName string
	MimeType string
	Size     int64
	Content  io.Reader
}

// Service exposes the event catalog operations. External lookups address
// events by slug, never by id.
type Service interface {
	CreateEvent(ctx context.Context, input CreateEventInput) (*EventDTO, error)
	GetEvent(ctx context.Context, slug string) (*EventDetailDTO, error)
	ListEvents(ctx context.Context, params pagination.Params, publishedOnly bool) (*ListResult, error)
	UpdateEvent(ctx context.Context, slug string, patch UpdateEventInput) (*EventDTO, error)
	DeleteEvent(ctx context.Context, slug string) error
	AddSection(ctx context.Context, eventSlug string, input CreateSectionInput) (*SectionDTO, error)
	UpdateSection(ctx context.Context, eventSlug, sectionSlug string, patch UpdateSectionInput) (*SectionDTO, error)
	DeleteSection(ctx context.Context, eventSlug, sectionSlug string) error
	UploadImage(ctx context.Context, eventSlug string, input UploadInput) (*ImageDTO, error)
	DeleteImage(ctx context.Context, eventSlug string, imageID uuid.UUID) error
}

type service struct {
	db      TxRunner
	repos   Repos
	txRepos ReposFactory
	files   fileStore
	logg    *logger.Logger
}

// ServiceParams bundles the dependencies required to build the catalog service.
type ServiceParams struct {
	DB      TxRunner
	Repos   Repos
	TxRepos ReposFactory
	Files   fileStore
	Logger  *logger.Logger
}

// NewService constructs a catalog service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Repos.Events == nil || params.Repos.Sections == nil || params.Repos.Images == nil {
		return nil, fmt.Errorf("all repositories are required")
	}
	if params.TxRepos == nil {
		params.TxRepos = DefaultRepos
	}
	if params.Files == nil {
		return nil, fmt.Errorf("file store is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		db:      params.DB,
		repos:   params.Repos,
		txRepos: params.TxRepos,
		files:   params.Files,
		logg:    params.Logger,
	}, nil
}

func (s *service) CreateEvent(ctx context.Context, input CreateEventInput) (*EventDTO, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}

	now := time.Now().UTC()
	startsAt := input.StartsAt
	if startsAt.IsZero() {
		startsAt = now
	}
	endsAt := input.EndsAt
	if endsAt.IsZero() {
		endsAt = startsAt.Add(24 * time.Hour)
	}
	if endsAt.Before(startsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must not precede start date")
	}

	event := &models.Event{
		Title:       title,
		Description: input.Description,
		Location:    input.Location,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
	}
	if input.Published != nil {
		event.Published = *input.Published
	}

	if err := s.createWithUniqueSlug(ctx, event); err != nil {
		return nil, err
	}
	return FromModel(event), nil
}

func (s *service) GetEvent(ctx context.Context, slug string) (*EventDetailDTO, error) {
	event, err := s.findEvent(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.eventDetail(ctx, event)
}

func (s *service) ListEvents(ctx context.Context, params pagination.Params, publishedOnly bool) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	found, err := s.repos.Events.List(ctx, cursor, pagination.LimitWithBuffer(params.Limit), publishedOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list events")
	}

	result := &ListResult{Events: make([]EventDTO, 0, limit)}
	for i := range found {
		if i == limit {
			last := found[limit-1]
			result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
				StartsAt: last.StartsAt,
				ID:       last.ID,
			})
			break
		}
		result.Events = append(result.Events, *FromModel(&found[i]))
	}
	return result, nil
}

func (s *service) UpdateEvent(ctx context.Context, slug string, patch UpdateEventInput) (*EventDTO, error) {
	event, err := s.findEvent(ctx, slug)
	if err != nil {
		return nil, err
	}

	retitled := false
	if patch.Title != nil && strings.TrimSpace(*patch.Title) != "" {
		title := strings.TrimSpace(*patch.Title)
		if title != event.Title {
			event.Title = title
			retitled = true
		}
	}
	if patch.Description != nil {
		event.Description = *patch.Description
	}
	if patch.Location != nil {
		event.Location = *patch.Location
	}
	if patch.StartsAt != nil {
		event.StartsAt = *patch.StartsAt
	}
	if patch.EndsAt != nil {
		event.EndsAt = *patch.EndsAt
	}
	if event.EndsAt.Before(event.StartsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must not precede start date")
	}
	if patch.Published != nil {
		event.Published = *patch.Published
	}

	if retitled {
		if err := s.updateWithUniqueSlug(ctx, event); err != nil {
			return nil, err
		}
		return FromModel(event), nil
	}

	if err := s.repos.Events.Update(ctx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update event")
	}
	return FromModel(event), nil
}

// DeleteEvent removes the event, its sections, and its gallery rows in one
// transaction, then deletes the files from disk best-effort. A failed file
// delete is logged, never surfaced; the database rows are already gone.
func (s *service) DeleteEvent(ctx context.Context, slug string) error {
	event, err := s.findEvent(ctx, slug)
	if err != nil {
		return err
	}

	gallery, err := s.repos.Images.ListByEvent(ctx, event.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list gallery")
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repos := s.txRepos(tx)
		if err := repos.Sections.DeleteByEvent(ctx, event.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete sections")
		}
		if err := repos.Images.DeleteByEvent(ctx, event.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete gallery rows")
		}
		if err := repos.Events.Delete(ctx, event.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete event")
		}
		return nil
	})
	if err != nil {
		return err
	}

	var cleanupErr error
	for _, image := range gallery {
		cleanupErr = multierr.Append(cleanupErr, s.files.Remove(ctx, image.FileName))
	}
	if cleanupErr != nil {
		s.logg.Error(ctx, "gallery file cleanup incomplete", cleanupErr)
	}
	return nil
}

func (s *service) AddSection(ctx context.Context, eventSlug string, input CreateSectionInput) (*SectionDTO, error) {
	event, err := s.findEvent(ctx, eventSlug)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}

	section := &models.EventSection{
		EventID:             event.ID,
		Title:               title,
		Description:         input.Description,
		Capacity:            input.Capacity,
		RegistrationOpensAt: input.RegistrationOpensAt,
	}
	if err := s.createSectionWithUniqueSlug(ctx, section); err != nil {
		return nil, err
	}
	return sectionFromModel(section), nil
}

func (s *service) UpdateSection(ctx context.Context, eventSlug, sectionSlug string, patch UpdateSectionInput) (*SectionDTO, error) {
	event, err := s.findEvent(ctx, eventSlug)
	if err != nil {
		return nil, err
	}
	section, err := s.findSection(ctx, event.ID, sectionSlug)
	if err != nil {
		return nil, err
	}

	retitled := false
	if patch.Title != nil && strings.TrimSpace(*patch.Title) != "" {
		title := strings.TrimSpace(*patch.Title)
		if title != section.Title {
			section.Title = title
			retitled = true
		}
	}
	if patch.Description != nil {
		section.Description = *patch.Description
	}
	if patch.Capacity != nil {
		section.Capacity = patch.Capacity
	}
	if patch.RegistrationOpensAt != nil {
		section.RegistrationOpensAt = patch.RegistrationOpensAt
	}

	if retitled {
		if err := s.updateSectionWithUniqueSlug(ctx, section); err != nil {
			return nil, err
		}
		return sectionFromModel(section), nil
	}

	if err := s.repos.Sections.Update(ctx, section); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update section")
	}
	return sectionFromModel(section), nil
}

func (s *service) DeleteSection(ctx context.Context, eventSlug, sectionSlug string) error {
	event, err := s.findEvent(ctx, eventSlug)
	if err != nil {
		return err
	}
	section, err := s.findSection(ctx, event.ID, sectionSlug)
	if err != nil {
		return err
	}
	if err := s.repos.Sections.Delete(ctx, section.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete section")
	}
	return nil
}

func (s *service) UploadImage(ctx context.Context, eventSlug string, input UploadInput) (*ImageDTO, error) {
	event, err := s.findEvent(ctx, eventSlug)
	if err != nil {
		return nil, err
	}

	saved, err := s.files.Save(ctx, uploads.SaveInput{
		EventSlug: event.TitleSlug,
		FileName:  input.FileName,
		MimeType:  input.MimeType,
		Size:      input.Size,
		Content:   input.Content,
	})
	if err != nil {
		return nil, err
	}

	count, err := s.repos.Images.CountByEvent(ctx, event.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count gallery")
	}

	image := &models.EventImage{
		EventID:  event.ID,
		Position: int(count),
		Name:     input.FileName,
		URL:      saved.URL,
		FileName: saved.FileName,
	}
	if err := s.repos.Images.Create(ctx, image); err != nil {
		if removeErr := s.files.Remove(ctx, saved.FileName); removeErr != nil {
			s.logg.Error(ctx, "orphaned upload cleanup failed", removeErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist gallery row")
	}
	return imageFromModel(image), nil
}

func (s *service) DeleteImage(ctx context.Context, eventSlug string, imageID uuid.UUID) error {
	event, err := s.findEvent(ctx, eventSlug)
	if err != nil {
		return err
	}
	image, err := s.repos.Images.FindInEvent(ctx, event.ID, imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "image not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load image")
	}

	if err := s.repos.Images.Delete(ctx, image.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete gallery row")
	}
	if err := s.files.Remove(ctx, image.FileName); err != nil {
		s.logg.Error(ctx, "gallery file cleanup failed", err)
	}
	return nil
}

func (s *service) eventDetail(ctx context.Context, event *models.Event) (*EventDetailDTO, error) {
	sections, err := s.repos.Sections.ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sections")
	}
	images, err := s.repos.Images.ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list gallery")
	}

	detail := &EventDetailDTO{
		EventDTO: *FromModel(event),
		Sections: make([]SectionDTO, 0, len(sections)),
		Images:   make([]ImageDTO, 0, len(images)),
	}
	for i := range sections {
		detail.Sections = append(detail.Sections, *sectionFromModel(&sections[i]))
	}
	for i := range images {
		detail.Images = append(detail.Images, *imageFromModel(&images[i]))
	}
	return detail, nil
}

func (s *service) findEvent(ctx context.Context, slug string) (*models.Event, error) {
	event, err := s.repos.Events.FindBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}
	return event, nil
}

func (s *service) findSection(ctx context.Context, eventID uuid.UUID, slug string) (*models.EventSection, error) {
	section, err := s.repos.Sections.FindBySlug(ctx, eventID, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "section not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load section")
	}
	return section, nil
}

func (s *service) createWithUniqueSlug(ctx context.Context, event *models.Event) error {
	base := slugs.Derive(event.Title)
	var lastErr error
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		event.TitleSlug = slugs.WithSuffix(base, attempt)
		err := s.repos.Events.Create(ctx, event)
		if err == nil {
			return nil
		}
		if db.IsUniqueViolation(err, eventSlugConstraint) {
			lastErr = err
			continue
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create event")
	}
	return pkgerrors.Wrap(pkgerrors.CodeConflict, lastErr, "could not allocate a unique event slug")
}

func (s *service) updateWithUniqueSlug(ctx context.Context, event *models.Event) error {
	base := slugs.Derive(event.Title)
	var lastErr error
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		event.TitleSlug = slugs.WithSuffix(base, attempt)
		err := s.repos.Events.Update(ctx, event)
		if err == nil {
			return nil
		}
		if db.IsUniqueViolation(err, eventSlugConstraint) {
			lastErr = err
			continue
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update event")
	}
	return pkgerrors.Wrap(pkgerrors.CodeConflict, lastErr, "could not allocate a unique event slug")
}

func (s *service) createSectionWithUniqueSlug(ctx context.Context, section *models.EventSection) error {
	base := slugs.Derive(section.Title)
	var lastErr error
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		section.Slug = slugs.WithSuffix(base, attempt)
		err := s.repos.Sections.Create(ctx, section)
		if err == nil {
			return nil
		}
		if db.IsUniqueViolation(err, sectionSlugConstraint) {
			lastErr = err
			continue
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create section")
	}
	return pkgerrors.Wrap(pkgerrors.CodeConflict, lastErr, "could not allocate a unique section slug")
}

func (s *service) updateSectionWithUniqueSlug(ctx context.Context, section *models.EventSection) error {
	base := slugs.Derive(section.Title)
	var lastErr error
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		section.Slug = slugs.WithSuffix(base, attempt)
		err := s.repos.Sections.Update(ctx, section)
		if err == nil {
			return nil
		}
		if db.IsUniqueViolation(err, sectionSlugConstraint) {
			lastErr = err
			continue
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update section")
	}
	return pkgerrors.Wrap(pkgerrors.CodeConflict, lastErr, "could not allocate a unique section slug")
}
