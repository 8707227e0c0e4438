// internal/app/features/projects/handler.go
//
// Package projects is the JSON surface for project CRUD. Deleting a
// project cascades to its tasks and their comments.
package projects

import (
	"net/http"

	"github.com/dalemusser/taskboard/internal/app/services/projectsvc"
	"github.com/dalemusser/taskboard/internal/app/system/apperr"
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/app/system/paging"
	"github.com/dalemusser/taskboard/internal/app/system/sanitize"
	"github.com/dalemusser/taskboard/internal/app/system/webutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the projects feature.
type Handler struct {
	Svc *projectsvc.Service
	Log *zap.Logger
}

func NewHandler(svc *projectsvc.Service, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, Log: logger}
}

// optionalID parses a hex id that may be absent.
func optionalID(s, field string) (*primitive.ObjectID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return nil, apperr.Validation("invalid id", map[string]string{field: "must be a valid object id"})
	}
	return &id, nil
}

func idList(hexes []string, field string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, apperr.Validation("invalid id list", map[string]string{field: "must be valid object ids"})
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// HandleCreate handles POST /projects.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentUser(r)

	var req struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		TeamID      string   `json:"team_id"`
		Members     []string `json:"members"`
	}
	if err := webutil.Decode(r, &req); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	teamID, err := optionalID(req.TeamID, "team_id")
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	members, err := idList(req.Members, "members")
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	project, err := h.Svc.Create(r.Context(), p, projectsvc.CreateInput{
		Name:        sanitize.Text(req.Name),
		Description: sanitize.Text(req.Description),
		TeamID:      teamID,
		Members:     members,
	})
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	webutil.Respond(w, http.StatusCreated, project)
}

// HandleList handles GET /projects?search=&status=&team_id=&page=&limit=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentUser(r)

	q := r.URL.Query()
	teamID, err := optionalID(q.Get("team_id"), "team_id")
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	projects, meta, err := h.Svc.List(r.Context(), p, projectsvc.ListInput{
		Search: q.Get("search"),
		Status: q.Get("status"),
		TeamID: teamID,
	}, paging.FromRequest(r))
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	webutil.Respond(w, http.StatusOK, map[string]any{"projects": projects, "meta": meta})
}

// HandleGet handles GET /projects/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentUser(r)

	id, err := webutil.IDParam(r, "id")
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	project, err := h.Svc.GetByID(r.Context(), p, id)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	webutil.Respond(w, http.StatusOK, project)
}

// HandleUpdate handles PATCH /projects/{id}. Absent fields are left
// unchanged; the team reference is not editable.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentUser(r)

	id, err := webutil.IDParam(r, "id")
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	var req struct {
		Name        *string   `json:"name"`
		Description *string   `json:"description"`
		Status      *string   `json:"status"`
		Members     *[]string `json:"members"`
	}
	if err := webutil.Decode(r, &req); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	in := projectsvc.UpdateInput{Status: req.Status}
	if req.Name != nil {
		name := sanitize.Text(*req.Name)
		in.Name = &name
	}
	if req.Description != nil {
		desc := sanitize.Text(*req.Description)
		in.Description = &desc
	}
	if req.Members != nil {
		members, err := idList(*req.Members, "members")
		if err != nil {
			apperr.Write(w, h.Log, err)
			return
		}
		in.Members = &members
	}

	project, err := h.Svc.Update(r.Context(), p, id, in)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	webutil.Respond(w, http.StatusOK, project)
}

// HandleDelete handles DELETE /projects/{id}.
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
