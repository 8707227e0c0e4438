// internal/app/features/authapi/handler.go
//
// Package authapi is the JSON surface for the passwordless login flow.
// The issued code travels only on the otp.requested event, never in the
// HTTP response.
package authapi

import (
	"net/http"

	"github.com/dalemusser/taskboard/internal/app/events"
	"github.com/dalemusser/taskboard/internal/app/services/authsvc"
	"github.com/dalemusser/taskboard/internal/app/system/apperr"
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/app/system/sanitize"
	"github.com/dalemusser/taskboard/internal/app/system/webutil"
	"go.uber.org/zap"
)

// Handler holds the login feature's dependencies.
type Handler struct {
	Svc        *authsvc.Service
	Dispatcher *events.Dispatcher
	Log        *zap.Logger
}

func NewHandler(svc *authsvc.Service, d *events.Dispatcher, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, Dispatcher: d, Log: logger}
}

// HandleRequestOTP handles POST /auth/otp/request.
func (h *Handler) HandleRequestOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
	}
	if err := webutil.Decode(r, &req); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	evs, err := h.Svc.RequestOTP(r.Context(), req.Identifier)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	// The dispatcher logs publish failures; the code is already stored,
	// so the caller still gets an accepted response.
	_ = h.Dispatcher.Dispatch(r.Context(), evs)

	webutil.Respond(w, http.StatusAccepted, map[string]string{"message": "code sent"})
}

// HandleVerifyOTP handles POST /auth/otp/verify. Mode "register"
// conflicts when the identifier is already taken; login (the default)
// creates the user on first success.
func (h *Handler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
		Code       string `json:"code"`
		Name       string `json:"name"`
		Mode       string `json:"mode"`
	}
	if err := webutil.Decode(r, &req); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	res, err := h.Svc.VerifyOTP(r.Context(), req.Identifier, req.Code, sanitize.Text(req.Name), req.Mode)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	webutil.Respond(w, http.StatusOK, res)
}

// HandleRefresh handles POST /auth/refresh.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := webutil.Decode(r, &req); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	pair, err := h.Svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	webutil.Respond(w, http.StatusOK, pair)
}

// HandleLogout handles POST /auth/logout. Requires a signed-in caller;
// the presented access token is blacklisted for its remaining life.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(r)
	if !ok {
		apperr.Write(w, h.Log, apperr.Forbidden("not signed in"))
		return
	}

	if err := h.Svc.Logout(r.Context(), p, auth.BearerToken(r)); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	webutil.Respond(w, http.StatusOK, map[string]string{"message": "signed out"})
}
