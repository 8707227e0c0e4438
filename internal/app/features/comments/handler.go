// internal/app/features/comments/handler.go
//
// Package comments is the JSON surface for task comments. List and
// create are task-scoped and mounted from the tasks feature; edit and
// delete address a comment directly.
package comments

import (
	"net/http"

	"github.com/dalemusser/taskboard/internal/app/events"
	"github.com/dalemusser/taskboard/internal/app/services/commentsvc"
	"github.com/dalemusser/taskboard/internal/app/system/apperr"
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/app/system/paging"
	"github.com/dalemusser/taskboard/internal/app/system/sanitize"
	"github.com/dalemusser/taskboard/internal/app/system/webutil"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the comments feature.
type Handler struct {
	Svc        *commentsvc.Service
	Dispatcher *events.Dispatcher
	Log        *zap.Logger
}

func NewHandler(svc *commentsvc.Service, d *events.Dispatcher, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, Dispatcher: d, Log: logger}
}

// HandleCreate handles POST /tasks/{id}/comments.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentUser(r)

	taskID, err := webutil.IDParam(r, "id")
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := webutil.Decode(r, &req); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	comment, evs, err := h.Svc.Create(r.Context(), p, taskID, sanitize.Text(req.Content))
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	_ = h.Dispatcher.Dispatch(r.Context(), evs)

	webutil.Respond(w, http.StatusCreated, comment)
}

// HandleListByTask handles GET /tasks/{id}/comments, oldest first.
func (h *Handler) HandleListByTask(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentUser(r)

	taskID, err := webutil.IDParam(r, "id")
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	comments, meta, err := h.Svc.ListByTask(r.Context(), p, taskID, paging.FromRequest(r))
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	webutil.Respond(w, http.StatusOK, map[string]any{"comments": comments, "meta": meta})
}

// HandleUpdate handles PATCH /comments/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentUser(r)

	id, err := webutil.IDParam(r, "id")
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := webutil.Decode(r, &req); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	comment, err := h.Svc.Update(r.Context(), p, id, sanitize.Text(req.Content))
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	webutil.Respond(w, http.StatusOK, comment)
}

// HandleDelete handles DELETE /comments/{id}.
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
