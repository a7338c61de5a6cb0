package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/gatherhall/community-backend/api/middleware"
	pkgerrors "github.com/gatherhall/community-backend/pkg/errors"
)

// actorID recovers the authenticated user id seeded by the auth middleware.
func actorID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	return id, nil
}
