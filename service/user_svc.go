package service

import (
	"context"

	"github.com/neighborhq/neighbor/auth"
	"github.com/neighborhq/neighbor/errs"
	"github.com/neighborhq/neighbor/types"
	"github.com/neighborhq/neighbor/validator"
)

// EnsureUser refreshes the local mirror of an identity-provider user.
// Identities are managed elsewhere; the mirror exists so conversation
// and message reads can join display names and avatars locally. The
// transport layer calls this once per authenticated request.
func (svc *Service) EnsureUser(ctx context.Context, user types.User) error {
	v := validator.New()
	if user.ID == "" {
		v.AddError("ID", "User ID is required")
	}
	if user.Name == "" {
		v.AddError("Name", "User name is required")
	}
	if err := v.AsError(); err != nil {
		return err
	}

	return svc.Store.UpsertUser(ctx, user)
}

func (svc *Service) User(ctx context.Context, userID string) (types.User, error) {
	if _, loggedIn := auth.UserFromContext(ctx); !loggedIn {
		return types.User{}, errs.Unauthenticated
	}

	return svc.Store.User(ctx, userID)
}
