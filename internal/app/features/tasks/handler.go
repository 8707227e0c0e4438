// internal/app/features/tasks/handler.go
//
// Package tasks is the JSON surface for task CRUD. A task's team
// reference is inherited from its project, never supplied by the
// caller.
package tasks

import (
	"net/http"
	"time"

	"github.com/dalemusser/taskboard/internal/app/events"
	"github.com/dalemusser/taskboard/internal/app/services/tasksvc"
	"github.com/dalemusser/taskboard/internal/app/system/apperr"
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/app/system/paging"
	"github.com/dalemusser/taskboard/internal/app/system/sanitize"
	"github.com/dalemusser/taskboard/internal/app/system/webutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the tasks feature.
type Handler struct {
	Svc        *tasksvc.Service
	Dispatcher *events.Dispatcher
	Log        *zap.Logger
}

func NewHandler(svc *tasksvc.Service, d *events.Dispatcher, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, Dispatcher: d, Log: logger}
}

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

func parseDue(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, apperr.Validation("invalid due date", map[string]string{"due_date": "must be RFC3339"})
	}
	return &t, nil
}

// HandleCreate handles POST /tasks.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentUser(r)

	var req struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Status      string   `json:"status"`
		Priority    string   `json:"priority"`
		ProjectID   string   `json:"project_id"`
		AssignedTo  string   `json:"assigned_to"`
		Tags        []string `json:"tags"`
		DueDate     string   `json:"due_date"`
	}
	if err := webutil.Decode(r, &req); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	projectID, err := primitive.ObjectIDFromHex(req.ProjectID)
	if err != nil {
		apperr.Write(w, h.Log, apperr.Validation("invalid id", map[string]string{"project_id": "must be a valid object id"}))
		return
	}
	assignee, err := optionalID(req.AssignedTo, "assigned_to")
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	due, err := parseDue(req.DueDate)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	task, evs, err := h.Svc.Create(r.Context(), p, tasksvc.CreateInput{
		Title:       sanitize.Text(req.Title),
		Description: sanitize.Text(req.Description),
		Status:      req.Status,
		Priority:    req.Priority,
		ProjectID:   projectID,
		AssignedTo:  assignee,
		Tags:        req.Tags,
		DueDate:     due,
	})
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	_ = h.Dispatcher.Dispatch(r.Context(), evs)

	webutil.Respond(w, http.StatusCreated, task)
}

// HandleList handles GET /tasks with search, status, priority,
// project_id, team_id, and assigned_to filters.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentUser(r)

	q := r.URL.Query()
	in := tasksvc.ListInput{
		Search:   q.Get("search"),
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
	}
	var err error
	if in.ProjectID, err = optionalID(q.Get("project_id"), "project_id"); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	if in.TeamID, err = optionalID(q.Get("team_id"), "team_id"); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	if in.AssignedTo, err = optionalID(q.Get("assigned_to"), "assigned_to"); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	tasks, meta, err := h.Svc.List(r.Context(), p, in, paging.FromRequest(r))
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	webutil.Respond(w, http.StatusOK, map[string]any{"tasks": tasks, "meta": meta})
}

// HandleGet handles GET /tasks/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentUser(r)

	id, err := webutil.IDParam(r, "id")
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	task, err := h.Svc.GetByID(r.Context(), p, id)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	webutil.Respond(w, http.StatusOK, task)
}

// HandleUpdate handles PATCH /tasks/{id}. Absent fields are unchanged.
// assigned_to and due_date use "" to clear the value.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentUser(r)

	id, err := webutil.IDParam(r, "id")
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	var req struct {
		Title       *string   `json:"title"`
		Description *string   `json:"description"`
		Status      *string   `json:"status"`
		Priority    *string   `json:"priority"`
		AssignedTo  *string   `json:"assigned_to"`
		Tags        *[]string `json:"tags"`
		DueDate     *string   `json:"due_date"`
	}
	if err := webutil.Decode(r, &req); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	in := tasksvc.UpdateInput{Status: req.Status, Priority: req.Priority, Tags: req.Tags}
	if req.Title != nil {
		title := sanitize.Text(*req.Title)
		in.Title = &title
	}
	if req.Description != nil {
		desc := sanitize.Text(*req.Description)
		in.Description = &desc
	}
	if req.AssignedTo != nil {
		assignee, err := optionalID(*req.AssignedTo, "assigned_to")
		if err != nil {
			apperr.Write(w, h.Log, err)
			return
		}
		in.AssignedTo = &assignee
	}
	if req.DueDate != nil {
		due, err := parseDue(*req.DueDate)
		if err != nil {
			apperr.Write(w, h.Log, err)
			return
		}
		in.DueDate = &due
	}

	task, evs, err := h.Svc.Update(r.Context(), p, id, in)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	_ = h.Dispatcher.Dispatch(r.Context(), evs)

	webutil.Respond(w, http.StatusOK, task)
}

// HandleDelete handles DELETE /tasks/{id}.
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
