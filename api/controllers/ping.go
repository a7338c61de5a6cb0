package controllers

import (
	"net/http"

	"github.com/gatherhall/community-backend/api/middleware"
	"github.com/gatherhall/community-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "private", "status": "ok"}
		if family := middleware.FamilyIDFromContext(r.Context()); family != "" {
			payload["family_id"] = family
		}
		responses.WriteSuccess(w, payload)
	}
}
