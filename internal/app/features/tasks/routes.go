// internal/app/features/tasks/routes.go
package tasks

import (
	"github.com/dalemusser/taskboard/internal/app/features/comments"
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted under /tasks. The task-scoped
// comment endpoints live here so {id} resolves once.
func Routes(h *Handler, c *comments.Handler, v *auth.Verifier) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(v.RequireSignedIn)
		pr.Use(auth.RequireRole(models.RoleAdmin, models.RoleMember))

		pr.Get("/", h.HandleList)
		pr.Post("/", h.HandleCreate)
		pr.Get("/{id}", h.HandleGet)
		pr.Patch("/{id}", h.HandleUpdate)
		pr.Delete("/{id}", h.HandleDelete)

		pr.Get("/{id}/comments", c.HandleListByTask)
		pr.Post("/{id}/comments", c.HandleCreate)
	})

	return r
}
