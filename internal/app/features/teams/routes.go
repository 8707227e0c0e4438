// internal/app/features/teams/routes.go
package teams

import (
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted under /teams. Everything
// requires a signed-in caller.
func Routes(h *Handler, v *auth.Verifier) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(v.RequireSignedIn)
		pr.Use(auth.RequireRole(models.RoleAdmin, models.RoleMember))

		pr.Get("/", h.HandleList)
		pr.Post("/", h.HandleCreate)
		pr.Get("/{id}", h.HandleGet)
		pr.Patch("/{id}", h.HandleUpdate)
		pr.Delete("/{id}", h.HandleDelete)

		// Membership lifecycle
		pr.Post("/{id}/invitations", h.HandleInvite)
		pr.Post("/{id}/invitations/accept", h.HandleAccept)
		pr.Post("/{id}/invitations/decline", h.HandleDecline)
		pr.Post("/{id}/members/{userID}/approve", h.HandleApprove)
		pr.Post("/{id}/members/{userID}/reject", h.HandleReject)
	})

	return r
}
