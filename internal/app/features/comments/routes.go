// internal/app/features/comments/routes.go
package comments

import (
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted under /comments. Task-scoped
// list/create are wired by the tasks feature.
func Routes(h *Handler, v *auth.Verifier) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(v.RequireSignedIn)
		pr.Use(auth.RequireRole(models.RoleAdmin, models.RoleMember))

		pr.Patch("/{id}", h.HandleUpdate)
		pr.Delete("/{id}", h.HandleDelete)
	})

	return r
}
