// internal/app/features/authapi/routes.go
package authapi

import (
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted under /auth.
func Routes(h *Handler, v *auth.Verifier) chi.Router {
	r := chi.NewRouter()

	r.Post("/otp/request", h.HandleRequestOTP)
	r.Post("/otp/verify", h.HandleVerifyOTP)
	r.Post("/refresh", h.HandleRefresh)

	r.Group(func(pr chi.Router) {
		pr.Use(v.RequireSignedIn)
		pr.Post("/logout", h.HandleLogout)
	})

	return r
}
