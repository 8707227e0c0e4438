package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// WithPrincipal injects an authenticated principal into the request
// context, bypassing the bearer middleware in handler tests.
func WithPrincipal(r *http.Request, p models.Principal) *http.Request {
	return r.WithContext(auth.WithPrincipal(r.Context(), p))
}

// AdminPrincipal returns a principal with the global admin role.
func AdminPrincipal() models.Principal {
	return models.Principal{
		ID:    primitive.NewObjectID(),
		Email: "admin@test.com",
		Role:  models.RoleAdmin,
	}
}

// MemberPrincipal returns a principal with the global member role.
func MemberPrincipal() models.Principal {
	return models.Principal{
		ID:    primitive.NewObjectID(),
		Email: "member@test.com",
		Role:  models.RoleMember,
	}
}

// PrincipalFor returns a principal matching an existing user document.
func PrincipalFor(u models.User) models.Principal {
	return models.Principal{ID: u.ID, Email: u.Email, Role: u.Role}
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}
