package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gatherhall/community-backend/pkg/enums"
	"github.com/gatherhall/community-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireAnyRoleAllowsHolder(t *testing.T) {
	var called bool
	handler := RequireAnyRole(testLogger(), string(enums.RoleFamilyManager), string(enums.RoleAdmin))(okHandler(&called))

	r := httptest.NewRequest("GET", "/", nil)
	r = r.WithContext(WithRoles(r.Context(), []string{string(enums.RoleUser), string(enums.RoleFamilyManager)}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if !called || w.Code != http.StatusNoContent {
		t.Fatalf("expected handler reached, called=%v status=%d", called, w.Code)
	}
}

func TestRequireAnyRoleRejectsOutsider(t *testing.T) {
	var called bool
	handler := RequireAnyRole(testLogger(), string(enums.RoleAdmin))(okHandler(&called))

	r := httptest.NewRequest("GET", "/", nil)
	r = r.WithContext(WithRoles(r.Context(), []string{string(enums.RoleUser)}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if called {
		t.Fatal("handler must not run without the role")
	}
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestRequireRoleRejectsAnonymous(t *testing.T) {
	var called bool
	handler := RequireRole(string(enums.RoleAdmin), testLogger())(okHandler(&called))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if called || w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for anonymous request, called=%v status=%d", called, w.Code)
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := WithUserID(nil, "user-1")
	ctx = WithFamilyID(ctx, "family-1")
	ctx = WithRoles(ctx, []string{string(enums.RoleUser)})
	ctx = WithAccessID(ctx, "jti-1")

	if got := UserIDFromContext(ctx); got != "user-1" {
		t.Fatalf("user id = %q", got)
	}
	if got := FamilyIDFromContext(ctx); got != "family-1" {
		t.Fatalf("family id = %q", got)
	}
	if got := AccessIDFromContext(ctx); got != "jti-1" {
		t.Fatalf("access id = %q", got)
	}
	if !HasRole(ctx, string(enums.RoleUser)) || HasRole(ctx, string(enums.RoleAdmin)) {
		t.Fatalf("unexpected role set %v", RolesFromContext(ctx))
	}
}

func TestContextAccessorsTolerateEmptyContext(t *testing.T) {
	if UserIDFromContext(nil) != "" || FamilyIDFromContext(nil) != "" || AccessIDFromContext(nil) != "" {
		t.Fatal("expected empty values for nil context")
	}
	if RolesFromContext(nil) != nil {
		t.Fatal("expected nil roles for nil context")
	}
}
