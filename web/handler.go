// Package web exposes the messaging service as a JSON API plus a pair
// of websocket event streams. Authentication happens upstream: an
// identity-aware gateway injects the logged-in user as headers, and
// this layer mirrors the user locally and stuffs it into the request
// context.
package web

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neighborhq/neighbor/service"
)

type Handler struct {
	Service *service.Service
	Logger  *slog.Logger

	handler http.Handler
	once    sync.Once
}

func (h *Handler) init() {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/conversations", h.conversations)
	mux.HandleFunc("POST /api/conversations/direct", h.directConversation)
	mux.HandleFunc("POST /api/conversations/group", h.createGroupConversation)
	mux.HandleFunc("GET /api/conversations/{conversationID}", h.conversation)
	mux.HandleFunc("DELETE /api/conversations/{conversationID}", h.deleteConversation)
	mux.HandleFunc("PATCH /api/conversations/{conversationID}/settings", h.updateConversationSettings)
	mux.HandleFunc("POST /api/conversations/{conversationID}/participants", h.addParticipant)
	mux.HandleFunc("GET /api/conversations/{conversationID}/messages", h.messages)
	mux.HandleFunc("POST /api/conversations/{conversationID}/messages", h.createMessage)
	mux.HandleFunc("GET /api/conversations/{conversationID}/stream", h.conversationStream)
	mux.HandleFunc("POST /api/attachments", h.uploadAttachments)
	mux.HandleFunc("GET /api/notifications", h.notifications)
	mux.HandleFunc("POST /api/notifications/{notificationID}/read", h.readNotification)
	mux.HandleFunc("POST /api/notifications/read-all", h.readAllNotifications)
	mux.HandleFunc("POST /api/users/{userID}/block", h.blockUser)
	mux.HandleFunc("DELETE /api/users/{userID}/block", h.unblockUser)
	mux.HandleFunc("GET /api/users/{userID}/presence", h.userPresence)
	mux.HandleFunc("POST /api/presence/heartbeat", h.heartbeat)
	mux.HandleFunc("PUT /api/presence", h.setPresence)
	mux.HandleFunc("POST /api/push-subscriptions", h.savePushSubscription)
	mux.HandleFunc("GET /api/stream", h.userStream)
	mux.Handle("GET /metrics", promhttp.Handler())

	h.handler = mux
	h.handler = h.withUser(h.handler)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.once.Do(h.init)
	h.handler.ServeHTTP(w, r)
}
