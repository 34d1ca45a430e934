package service

import (
	"context"

	"github.com/neighborhq/neighbor/auth"
	"github.com/neighborhq/neighbor/errs"
	"github.com/neighborhq/neighbor/types"
)

// BlockUser writes the directed block edge. Existing conversations
// and messages stay where they are; only future sends and direct
// conversation creation are suppressed.
func (svc *Service) BlockUser(ctx context.Context, in types.BlockUser) error {
	if err := in.Validate(); err != nil {
		return err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return errs.Unauthenticated
	}

	if in.TargetUserID == loggedInUser.ID {
		return errs.NewInvalidArgumentError("TargetUserID", "Cannot block yourself")
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	return svc.Store.CreateBlock(ctx, in)
}

func (svc *Service) UnblockUser(ctx context.Context, in types.UnblockUser) error {
	if err := in.Validate(); err != nil {
		return err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	return svc.Store.DeleteBlock(ctx, in)
}
