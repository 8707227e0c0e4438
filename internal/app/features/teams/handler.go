// internal/app/features/teams/handler.go
//
// Package teams is the JSON surface for team CRUD and the membership
// lifecycle (invite, approve, reject, accept, decline).
package teams

import (
	"net/http"

	"github.com/dalemusser/taskboard/internal/app/events"
	"github.com/dalemusser/taskboard/internal/app/services/teamsvc"
	"github.com/dalemusser/taskboard/internal/app/system/apperr"
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/app/system/paging"
	"github.com/dalemusser/taskboard/internal/app/system/sanitize"
	"github.com/dalemusser/taskboard/internal/app/system/webutil"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the teams feature.
type Handler struct {
	Svc        *teamsvc.Service
	Dispatcher *events.Dispatcher
	Log        *zap.Logger
}

func NewHandler(svc *teamsvc.Service, d *events.Dispatcher, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, Dispatcher: d, Log: logger}
}

// HandleCreate handles POST /teams.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentUser(r)

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := webutil.Decode(r, &req); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	team, err := h.Svc.Create(r.Context(), p, sanitize.Text(req.Name), sanitize.Text(req.Description))
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	webutil.Respond(w, http.StatusCreated, team)
}

// HandleList handles GET /teams?search=&page=&limit=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentUser(r)

	teams, meta, err := h.Svc.List(r.Context(), p, r.URL.Query().Get("search"), paging.FromRequest(r))
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	webutil.Respond(w, http.StatusOK, map[string]any{"teams": teams, "meta": meta})
}

// HandleGet handles GET /teams/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentUser(r)

	id, err := webutil.IDParam(r, "id")
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	team, err := h.Svc.GetByID(r.Context(), p, id)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	webutil.Respond(w, http.StatusOK, team)
}

// HandleUpdate handles PATCH /teams/{id}. Absent fields are left
// unchanged.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentUser(r)

	id, err := webutil.IDParam(r, "id")
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := webutil.Decode(r, &req); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	var in teamsvc.UpdateInput
	if req.Name != nil {
		name := sanitize.Text(*req.Name)
		in.Name = &name
	}
	if req.Description != nil {
		desc := sanitize.Text(*req.Description)
		in.Description = &desc
	}

	team, err := h.Svc.Update(r.Context(), p, id, in)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	webutil.Respond(w, http.StatusOK, team)
}

// HandleDelete handles DELETE /teams/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentUser(r)

	id, err := webutil.IDParam(r, "id")
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	if err := h.Svc.Delete(r.Context(), p, id); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
