package web

import (
	"net/http"

	"github.com/neighborhq/neighbor/types"
)

func (h *Handler) notifications(w http.ResponseWriter, r *http.Request) {
	pageArgs, err := parsePageArgs(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	out, err := h.Service.Notifications(r.Context(), types.ListNotifications{PageArgs: pageArgs})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	h.respond(w, r, out, http.StatusOK)
}

func (h *Handler) readNotification(w http.ResponseWriter, r *http.Request) {
	err := h.Service.ReadNotification(r.Context(), types.ReadNotification{
		NotificationID: r.PathValue("notificationID"),
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	h.respond(w, r, nil, http.StatusNoContent)
}

func (h *Handler) readAllNotifications(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.ReadAllNotifications(r.Context()); err != nil {
		h.respondErr(w, r, err)
		return
	}

	h.respond(w, r, nil, http.StatusNoContent)
}

func (h *Handler) savePushSubscription(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Endpoint string `json:"endpoint"`
		Keys     struct {
			P256dh string `json:"p256dh"`
			Auth   string `json:"auth"`
		} `json:"keys"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.respondErr(w, r, err)
		return
	}

	err := h.Service.SavePushSubscription(r.Context(), types.SavePushSubscription{
		Endpoint: body.Endpoint,
		P256dh:   body.Keys.P256dh,
		Auth:     body.Keys.Auth,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	h.respond(w, r, nil, http.StatusNoContent)
}
