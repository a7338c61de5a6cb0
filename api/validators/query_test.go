package validators

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/gatherhall/community-backend/pkg/errors"
)

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/?limit=30", nil)
	value, err := ParseQueryInt(r, "limit", 25, 1, 100)
	if err != nil || value != 30 {
		t.Fatalf("expected 30, got %d (%v)", value, err)
	}

	r = httptest.NewRequest("GET", "/", nil)
	value, err = ParseQueryInt(r, "limit", 25, 1, 100)
	if err != nil || value != 25 {
		t.Fatalf("expected default 25, got %d (%v)", value, err)
	}

	r = httptest.NewRequest("GET", "/?limit=abc", nil)
	if _, err := ParseQueryInt(r, "limit", 25, 1, 100); err == nil {
		t.Fatal("expected error for non-numeric value")
	}

	r = httptest.NewRequest("GET", "/?limit=500", nil)
	_, err = ParseQueryInt(r, "limit", 25, 1, 100)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for out-of-range value, got %v", err)
	}
}

func TestParseQueryBool(t *testing.T) {
	r := httptest.NewRequest("GET", "/?published=true", nil)
	value, err := ParseQueryBool(r, "published", false)
	if err != nil || !value {
		t.Fatalf("expected true, got %v (%v)", value, err)
	}

	r = httptest.NewRequest("GET", "/", nil)
	value, err = ParseQueryBool(r, "published", true)
	if err != nil || !value {
		t.Fatalf("expected default true, got %v (%v)", value, err)
	}

	r = httptest.NewRequest("GET", "/?published=maybe", nil)
	if _, err := ParseQueryBool(r, "published", false); err == nil {
		t.Fatal("expected error for non-boolean value")
	}
}

func withURLParam(key, value string) context.Context {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return context.WithValue(context.Background(), chi.RouteCtxKey, rctx)
}

func TestUUIDParam(t *testing.T) {
	id := uuid.New()
	r := httptest.NewRequest("GET", "/", nil)
	r = r.WithContext(withURLParam("userID", id.String()))

	parsed, err := UUIDParam(r, "userID")
	if err != nil || parsed != id {
		t.Fatalf("expected %s, got %s (%v)", id, parsed, err)
	}

	r = httptest.NewRequest("GET", "/", nil)
	r = r.WithContext(withURLParam("userID", "not-a-uuid"))
	if _, err := UUIDParam(r, "userID"); err == nil {
		t.Fatal("expected error for malformed uuid")
	}

	r = httptest.NewRequest("GET", "/", nil)
	if _, err := UUIDParam(r, "userID"); err == nil {
		t.Fatal("expected error for missing parameter")
	}
}

func TestStringParam(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r = r.WithContext(withURLParam("slug", "  summer-picnic  "))

	value, err := StringParam(r, "slug")
	if err != nil || value != "summer-picnic" {
		t.Fatalf("expected trimmed slug, got %q (%v)", value, err)
	}

	r = httptest.NewRequest("GET", "/", nil)
	if _, err := StringParam(r, "slug"); err == nil {
		t.Fatal("expected error for missing parameter")
	}
}
