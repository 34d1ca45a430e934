package service

import (
	"context"

	"github.com/neighborhq/neighbor/auth"
	"github.com/neighborhq/neighbor/errs"
	"github.com/neighborhq/neighbor/types"
)

// Heartbeat keeps the logged-in user online. Clients send one roughly
// every thirty seconds while the app has focus.
func (svc *Service) Heartbeat(ctx context.Context) error {
	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return errs.Unauthenticated
	}

	svc.Presence.Heartbeat(loggedInUser.ID)
	return nil
}

// SetPresence applies an explicit client signal, e.g. away on window
// blur or offline on clean shutdown.
func (svc *Service) SetPresence(ctx context.Context, status types.PresenceStatus) error {
	if !status.Valid() {
		return errs.NewInvalidArgumentError("Status", "Presence status is invalid")
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return errs.Unauthenticated
	}

	svc.Presence.Set(loggedInUser.ID, status)
	return nil
}

// UserPresence reports another user's current presence. Unknown users
// read as offline rather than erroring; presence is advisory.
func (svc *Service) UserPresence(ctx context.Context, userID string) (types.Presence, error) {
	if _, loggedIn := auth.UserFromContext(ctx); !loggedIn {
		return types.Presence{}, errs.Unauthenticated
	}

	return svc.Presence.Get(userID), nil
}
