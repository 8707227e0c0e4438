// internal/app/features/users/handler.go
//
// Package users serves the signed-in user's own profile.
package users

import (
	"net/http"

	userstore "github.com/dalemusser/taskboard/internal/app/store/users"
	"github.com/dalemusser/taskboard/internal/app/system/apperr"
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/app/system/sanitize"
	"github.com/dalemusser/taskboard/internal/app/system/webutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the users feature.
type Handler struct {
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Log: logger}
}

// HandleMe handles GET /users/me.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentUser(r)

	u, err := h.Users.GetByID(r.Context(), p.ID)
	if err == mongo.ErrNoDocuments {
		apperr.Write(w, h.Log, apperr.NotFound("user not found"))
		return
	}
	if err != nil {
		apperr.Write(w, h.Log, apperr.Upstream("could not load user", err))
		return
	}
	webutil.Respond(w, http.StatusOK, u)
}

// HandleUpdateMe handles PATCH /users/me. Only name and phone are
// editable; empty fields are left unchanged.
func (h *Handler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentUser(r)

	var req struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := webutil.Decode(r, &req); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	matched, err := h.Users.UpdateProfile(r.Context(), p.ID, userstore.ProfileUpdate{
		Name:  sanitize.Text(req.Name),
		Phone: req.Phone,
	})
	if err == userstore.ErrDuplicateContact {
		apperr.Write(w, h.Log, apperr.Conflict("phone already in use"))
		return
	}
	if err != nil {
		apperr.Write(w, h.Log, apperr.Upstream("could not update profile", err))
		return
	}
	if matched == 0 {
		apperr.Write(w, h.Log, apperr.NotFound("user not found"))
		return
	}

	u, err := h.Users.GetByID(r.Context(), p.ID)
	if err != nil {
		apperr.Write(w, h.Log, apperr.Upstream("could not load user", err))
		return
	}
	webutil.Respond(w, http.StatusOK, u)
}
