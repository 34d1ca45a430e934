package web

import (
	"fmt"
	"net/http"

	"github.com/neighborhq/neighbor/auth"
	"github.com/neighborhq/neighbor/types"
)

// Identity headers set by the authenticating gateway. Requests missing
// them proceed unauthenticated and fail per-endpoint.
const (
	headerUserID     = "X-User-Id"
	headerUserName   = "X-User-Name"
	headerUserAvatar = "X-User-Avatar"
)

func (h *Handler) withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(headerUserID)
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}

		user := types.User{
			ID:   userID,
			Name: r.Header.Get(headerUserName),
		}
		if avatar := r.Header.Get(headerUserAvatar); avatar != "" {
			user.AvatarURL = &avatar
		}

		ctx := r.Context()

		// Refresh the local mirror so enrichment joins see current
		// names and avatars.
		if err := h.Service.EnsureUser(ctx, user); err != nil {
			h.respondErr(w, r, fmt.Errorf("ensure user: %w", err))
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(ctx, user)))
	})
}
