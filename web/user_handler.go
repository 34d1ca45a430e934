package web

import (
	"net/http"

	"github.com/neighborhq/neighbor/types"
)

func (h *Handler) blockUser(w http.ResponseWriter, r *http.Request) {
	err := h.Service.BlockUser(r.Context(), types.BlockUser{
		TargetUserID: r.PathValue("userID"),
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	h.respond(w, r, nil, http.StatusNoContent)
}

func (h *Handler) unblockUser(w http.ResponseWriter, r *http.Request) {
	err := h.Service.UnblockUser(r.Context(), types.UnblockUser{
		TargetUserID: r.PathValue("userID"),
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	h.respond(w, r, nil, http.StatusNoContent)
}

func (h *Handler) userPresence(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.UserPresence(r.Context(), r.PathValue("userID"))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	h.respond(w, r, out, http.StatusOK)
}

func (h *Handler) heartbeat(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Heartbeat(r.Context()); err != nil {
		h.respondErr(w, r, err)
		return
	}

	h.respond(w, r, nil, http.StatusNoContent)
}

func (h *Handler) setPresence(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status types.PresenceStatus `json:"status"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.respondErr(w, r, err)
		return
	}

	if err := h.Service.SetPresence(r.Context(), body.Status); err != nil {
		h.respondErr(w, r, err)
		return
	}

	h.respond(w, r, nil, http.StatusNoContent)
}
