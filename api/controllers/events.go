package controllers

import (
	"net/http"
	"time"

	"github.com/gatherhall/community-backend/api/middleware"
	"github.com/gatherhall/community-backend/api/responses"
	"github.com/gatherhall/community-backend/api/validators"
	"github.com/gatherhall/community-backend/internal/events"
	"github.com/gatherhall/community-backend/pkg/config"
	"github.com/gatherhall/community-backend/pkg/enums"
	pkgerrors "github.com/gatherhall/community-backend/pkg/errors"
	"github.com/gatherhall/community-backend/pkg/logger"
	"github.com/gatherhall/community-backend/pkg/pagination"
)

const uploadFormField = "image"

type createEventRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Published   *bool     `json:"published,omitempty"`
}

type updateEventRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Location    *string    `json:"location,omitempty"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	Published   *bool      `json:"published,omitempty"`
}

type createSectionRequest struct {
	Title               string     `json:"title" validate:"required"`
	Description         string     `json:"description,omitempty"`
	Capacity            *int       `json:"capacity,omitempty"`
	RegistrationOpensAt *time.Time `json:"registration_opens_at,omitempty"`
}

type updateSectionRequest struct {
	Title               *string    `json:"title,omitempty"`
	Description         *string    `json:"description,omitempty"`
	Capacity            *int       `json:"capacity,omitempty"`
	RegistrationOpensAt *time.Time `json:"registration_opens_at,omitempty"`
}

// EventList pages through the catalog. Unprivileged callers only ever see
// published events; managers and admins see drafts too.
func EventList(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		publishedOnly := true
		if middleware.HasRole(r.Context(), string(enums.RoleAdmin)) ||
			middleware.HasRole(r.Context(), string(enums.RoleFamilyManager)) {
			publishedOnly, err = validators.ParseQueryBool(r, "published_only", false)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		result, err := svc.ListEvents(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}, publishedOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// EventGet returns an event with its sections and gallery, addressed by slug.
func EventGet(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug, err := validators.StringParam(r, "slug")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetEvent(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// EventCreate adds an event to the catalog.
func EventCreate(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createEventRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event, err := svc.CreateEvent(r.Context(), events.CreateEventInput{
			Title:       body.Title,
			Description: body.Description,
			Location:    body.Location,
			StartsAt:    body.StartsAt,
			EndsAt:      body.EndsAt,
			Published:   body.Published,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, event)
	}
}

// EventUpdate patches an event. The slug only changes when the title does.
func EventUpdate(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug, err := validators.StringParam(r, "slug")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateEventRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event, err := svc.UpdateEvent(r.Context(), slug, events.UpdateEventInput{
			Title:       body.Title,
			Description: body.Description,
			Location:    body.Location,
			StartsAt:    body.StartsAt,
			EndsAt:      body.EndsAt,
			Published:   body.Published,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, event)
	}
}

// EventDelete removes an event with its sections and gallery.
func EventDelete(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug, err := validators.StringParam(r, "slug")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteEvent(r.Context(), slug); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// SectionCreate adds a section under an event.
func SectionCreate(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug, err := validators.StringParam(r, "slug")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createSectionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		section, err := svc.AddSection(r.Context(), slug, events.CreateSectionInput{
			Title:               body.Title,
			Description:         body.Description,
			Capacity:            body.Capacity,
			RegistrationOpensAt: body.RegistrationOpensAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, section)
	}
}

// SectionUpdate patches a section, addressed by event and section slugs.
func SectionUpdate(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug, err := validators.StringParam(r, "slug")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sectionSlug, err := validators.StringParam(r, "sectionSlug")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateSectionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		section, err := svc.UpdateSection(r.Context(), slug, sectionSlug, events.UpdateSectionInput{
			Title:               body.Title,
			Description:         body.Description,
			Capacity:            body.Capacity,
			RegistrationOpensAt: body.RegistrationOpensAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, section)
	}
}

// SectionDelete removes a section.
func SectionDelete(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug, err := validators.StringParam(r, "slug")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sectionSlug, err := validators.StringParam(r, "sectionSlug")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteSection(r.Context(), slug, sectionSlug); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// EventUploadImage accepts a multipart image and appends it to the gallery.
func EventUploadImage(svc events.Service, uploads config.UploadsConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug, err := validators.StringParam(r, "slug")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		maxBytes := uploads.MaxUploadBytes()
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1024)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart payload"))
			return
		}

		file, header, err := r.FormFile(uploadFormField)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "image file is required").WithDetails(map[string]any{"field": uploadFormField}))
			return
		}
		defer file.Close()

		image, err := svc.UploadImage(r.Context(), slug, events.UploadInput{
			FileName: header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			Size:     header.Size,
			Content:  file,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, image)
	}
}

// EventDeleteImage removes a gallery entry and its file.
func EventDeleteImage(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug, err := validators.StringParam(r, "slug")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		imageID, err := validators.UUIDParam(r, "imageId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteImage(r.Context(), slug, imageID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
