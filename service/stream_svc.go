package service

import (
	"context"
	"fmt"

	"github.com/neighborhq/neighbor/auth"
	"github.com/neighborhq/neighbor/errs"
	"github.com/neighborhq/neighbor/types"
)

// ConversationStream delivers change events scoped to one conversation
// in realtime: messages, read receipts, and membership changes. The
// caller must be a participant; the subscription lives until ctx ends.
func (svc *Service) ConversationStream(ctx context.Context, conversationID string) (<-chan types.ChangeEvent, error) {
	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return nil, errs.Unauthenticated
	}

	// A NotFound here covers both missing conversations and
	// non-participants, so membership is never leaked.
	if _, err := svc.Store.Conversation(ctx, retrieveConversationAs(conversationID, loggedInUser.ID)); err != nil {
		return nil, err
	}

	evs := make(chan types.ChangeEvent)
	sub, err := svc.Broker.SubscribeConversation(conversationID, func(ev types.ChangeEvent) {
		select {
		case evs <- ev:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to conversation events: %w", err)
	}

	go func() {
		<-ctx.Done()
		if err := sub.Unsubscribe(); err != nil {
			svc.Logger.Error("unsubscribe from conversation events", "conversation_id", conversationID, "error", err)
		}
		close(evs)
	}()

	return evs, nil
}

// UserStream delivers the logged-in user's cross-conversation events:
// new conversations, unread counter changes, notifications, and
// presence transitions of their contacts.
func (svc *Service) UserStream(ctx context.Context) (<-chan types.ChangeEvent, error) {
	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return nil, errs.Unauthenticated
	}

	evs := make(chan types.ChangeEvent)
	sub, err := svc.Broker.SubscribeUser(loggedInUser.ID, func(ev types.ChangeEvent) {
		select {
		case evs <- ev:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to user events: %w", err)
	}

	go func() {
		<-ctx.Done()
		if err := sub.Unsubscribe(); err != nil {
			svc.Logger.Error("unsubscribe from user events", "user_id", loggedInUser.ID, "error", err)
		}
		close(evs)
	}()

	return evs, nil
}
