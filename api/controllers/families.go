package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gatherhall/community-backend/api/responses"
	"github.com/gatherhall/community-backend/api/validators"
	"github.com/gatherhall/community-backend/internal/families"
	"github.com/gatherhall/community-backend/pkg/config"
	"github.com/gatherhall/community-backend/pkg/logger"
)

type updateFamilyRequest struct {
	Name      *string    `json:"name,omitempty"`
	ManagerID *uuid.UUID `json:"manager_id,omitempty"`
	Address   *string    `json:"address,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
}

func (req updateFamilyRequest) toInput() families.UpdateFamilyInput {
	return families.UpdateFamilyInput{
		Name:      req.Name,
		ManagerID: req.ManagerID,
		Address:   req.Address,
		Phone:     req.Phone,
		Notes:     req.Notes,
	}
}

type inviteRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type addMemberRequest struct {
	FirstName   string    `json:"first_name" validate:"required"`
	LastName    string    `json:"last_name" validate:"required"`
	DateOfBirth time.Time `json:"date_of_birth"`
	Gender      string    `json:"gender,omitempty"`
	Email       *string   `json:"email,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	Address     *string   `json:"address,omitempty"`
}

type updateMemberRequest struct {
	FirstName   *string    `json:"first_name,omitempty"`
	LastName    *string    `json:"last_name,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Gender      *string    `json:"gender,omitempty"`
	Email       *string    `json:"email,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	Address     *string    `json:"address,omitempty"`
}

// MyFamily returns the actor's family with roster and account holders.
func MyFamily(svc families.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetMyFamily(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// UpdateMyFamily lets the family manager patch the family record.
func UpdateMyFamily(svc families.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateFamilyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		family, err := svc.UpdateMyFamily(r.Context(), userID, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, family)
	}
}

// FamilyInvite issues an invitation to an existing account holder. The raw
// invite URL is exposed in dev only; no mailer is wired.
func FamilyInvite(svc families.Service, app config.AppConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body inviteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Invite(r.Context(), userID, body.Email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := map[string]any{
			"email":      result.Email,
			"expires_at": result.ExpiresAt,
		}
		if app.IsDev() {
			payload["invite_url"] = result.InviteURL
		}
		responses.WriteSuccess(w, payload)
	}
}

// FamilyJoin redeems an invitation token for the authenticated user.
func FamilyJoin(svc families.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token, err := validators.StringParam(r, "token")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Join(r.Context(), userID, token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// FamilyAddMember appends a member to the actor's family roster.
func FamilyAddMember(svc families.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addMemberRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		member, err := svc.AddMember(r.Context(), userID, families.AddMemberInput{
			FirstName:   body.FirstName,
			LastName:    body.LastName,
			DateOfBirth: body.DateOfBirth,
			Gender:      body.Gender,
			Email:       body.Email,
			Phone:       body.Phone,
			Address:     body.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, member)
	}
}

// FamilyUpdateMember patches a roster entry. Members may edit their own
// linked entry; everything else is manager-only.
func FamilyUpdateMember(svc families.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		memberID, err := validators.UUIDParam(r, "memberId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateMemberRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		member, err := svc.UpdateMember(r.Context(), userID, memberID, families.UpdateMemberInput{
			FirstName:   body.FirstName,
			LastName:    body.LastName,
			DateOfBirth: body.DateOfBirth,
			Gender:      body.Gender,
			Email:       body.Email,
			Phone:       body.Phone,
			Address:     body.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, member)
	}
}

// FamilyDeleteMember removes a roster entry, detaching any linked account.
func FamilyDeleteMember(svc families.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		memberID, err := validators.UUIDParam(r, "memberId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteMember(r.Context(), userID, memberID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// FamilyTransferOwnership reassigns the manager pointer to another user in
// the same family.
func FamilyTransferOwnership(svc families.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		targetID, err := validators.UUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		family, err := svc.TransferOwnership(r.Context(), userID, targetID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, family)
	}
}

// AdminFamilyList returns all families.
func AdminFamilyList(svc families.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		found, err := svc.ListFamilies(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, found)
	}
}

// AdminFamilyGet returns one family with roster and invitations.
func AdminFamilyGet(svc families.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		familyID, err := validators.UUIDParam(r, "familyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetFamily(r.Context(), familyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// AdminFamilyUpdate patches any family record.
func AdminFamilyUpdate(svc families.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		familyID, err := validators.UUIDParam(r, "familyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateFamilyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		family, err := svc.UpdateFamily(r.Context(), familyID, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, family)
	}
}

// AdminFamilyDelete removes a family, detaching users and cascading to
// members and invitations. Events are untouched.
func AdminFamilyDelete(svc families.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		familyID, err := validators.UUIDParam(r, "familyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteFamily(r.Context(), familyID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
