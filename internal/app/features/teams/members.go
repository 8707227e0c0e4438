// internal/app/features/teams/members.go
package teams

import (
	"net/http"

	"github.com/dalemusser/taskboard/internal/app/system/apperr"
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/app/system/webutil"
)

// HandleInvite handles POST /teams/{id}/invitations. Admin only; the
// invitee gets a pending entry and a team.invitation event.
func (h *Handler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentUser(r)

	id, err := webutil.IDParam(r, "id")
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	var req struct {
		Identifier string `json:"identifier"`
		Role       string `json:"role"`
	}
	if err := webutil.Decode(r, &req); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	evs, err := h.Svc.Invite(r.Context(), p, id, req.Identifier, req.Role)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	_ = h.Dispatcher.Dispatch(r.Context(), evs)

	webutil.Respond(w, http.StatusCreated, map[string]string{"message": "invitation sent"})
}

// HandleApprove handles POST /teams/{id}/members/{userID}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentUser(r)

	id, err := webutil.IDParam(r, "id")
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	userID, err := webutil.IDParam(r, "userID")
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	evs, err := h.Svc.Approve(r.Context(), p, id, userID)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	_ = h.Dispatcher.Dispatch(r.Context(), evs)

	webutil.Respond(w, http.StatusOK, map[string]string{"message": "member approved"})
}

// HandleReject handles POST /teams/{id}/members/{userID}/reject.
// Removes a pending entry from both sides.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentUser(r)

	id, err := webutil.IDParam(r, "id")
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	userID, err := webutil.IDParam(r, "userID")
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	if err := h.Svc.Reject(r.Context(), p, id, userID); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	webutil.Respond(w, http.StatusOK, map[string]string{"message": "invitation rejected"})
}

// HandleAccept handles POST /teams/{id}/invitations/accept, where the
// caller is the invitee.
func (h *Handler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentUser(r)

	id, err := webutil.IDParam(r, "id")
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	evs, err := h.Svc.AcceptInvitation(r.Context(), p, id)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	_ = h.Dispatcher.Dispatch(r.Context(), evs)

	webutil.Respond(w, http.StatusOK, map[string]string{"message": "invitation accepted"})
}

// HandleDecline handles POST /teams/{id}/invitations/decline.
func (h *Handler) HandleDecline(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentUser(r)

	id, err := webutil.IDParam(r, "id")
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	if err := h.Svc.DeclineInvitation(r.Context(), p, id); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	webutil.Respond(w, http.StatusOK, map[string]string{"message": "invitation declined"})
}
