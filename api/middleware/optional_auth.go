package middleware

import (
	"net/http"
	"strings"

	pkgAuth "github.com/gatherhall/community-backend/pkg/auth"
	"github.com/gatherhall/community-backend/pkg/auth/session"
	"github.com/gatherhall/community-backend/pkg/config"
	"github.com/gatherhall/community-backend/pkg/logger"
)

// OptionalAuth seeds the context with claims when a valid bearer token is
// present but lets anonymous requests through untouched. Used on public
// surfaces whose responses widen for privileged callers.
func OptionalAuth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil || claims.ID == "" {
				next.ServeHTTP(w, r)
				return
			}
			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil || !ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			ctx := WithUserID(r.Context(), claims.UserID.String())
			ctx = WithRoles(ctx, claims.Roles)
			ctx = WithAccessID(ctx, claims.ID)
			if claims.FamilyID != nil {
				ctx = WithFamilyID(ctx, claims.FamilyID.String())
			}
			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
