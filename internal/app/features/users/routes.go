// internal/app/features/users/routes.go
package users

import (
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted under /users.
func Routes(h *Handler, v *auth.Verifier) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(v.RequireSignedIn)
		pr.Use(auth.RequireRole(models.RoleAdmin, models.RoleMember))

		pr.Get("/me", h.HandleMe)
		pr.Patch("/me", h.HandleUpdateMe)
	})

	return r
}
