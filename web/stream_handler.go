package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/neighborhq/neighbor/types"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Auth comes from the gateway headers; cross-origin browsers never
	// reach this hop directly.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// conversationStream upgrades to a websocket carrying the change
// events of a single conversation.
func (h *Handler) conversationStream(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, func(ctx context.Context) (<-chan types.ChangeEvent, error) {
		return h.Service.ConversationStream(ctx, r.PathValue("conversationID"))
	})
}

// userStream upgrades to a websocket carrying the logged-in user's
// cross-conversation events.
func (h *Handler) userStream(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, h.Service.UserStream)
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request, subscribe func(ctx context.Context) (<-chan types.ChangeEvent, error)) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Subscribe before the upgrade so authorization failures still go
	// out as plain HTTP errors.
	evs, err := subscribe(ctx)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Error("websocket upgrade", "req_url", r.URL.String(), "err", err)
		return
	}
	defer conn.Close()

	// Reader goroutine only services control frames and surfaces the
	// peer going away.
	go func() {
		defer cancel()
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case ev, ok := <-evs:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}
