package service

import (
	"context"

	"github.com/neighborhq/neighbor/auth"
	"github.com/neighborhq/neighbor/errs"
	"github.com/neighborhq/neighbor/types"
)

func (svc *Service) Conversations(ctx context.Context, in types.ListConversations) (types.Page[types.Conversation], error) {
	var out types.Page[types.Conversation]

	if err := in.PageArgs.Validate(); err != nil {
		return out, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	err := svc.withRetry(ctx, func(ctx context.Context) error {
		var err error
		out, err = svc.Store.Conversations(ctx, in)
		return err
	})
	return out, err
}

func (svc *Service) Conversation(ctx context.Context, in types.RetrieveConversation) (types.Conversation, error) {
	var out types.Conversation

	if err := in.Validate(); err != nil {
		return out, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	err := svc.withRetry(ctx, func(ctx context.Context) error {
		var err error
		out, err = svc.Store.Conversation(ctx, in)
		return err
	})
	return out, err
}

// DirectConversation returns the single direct conversation between
// the logged-in user and the other user, creating it if it does not
// exist yet. Creation is idempotent under concurrency: the loser of
// the direct-key race re-queries and returns the winner's row.
func (svc *Service) DirectConversation(ctx context.Context, in types.RetrieveDirectConversation) (types.Conversation, error) {
	var out types.Conversation

	if err := in.Validate(); err != nil {
		return out, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	if in.OtherUserID == loggedInUser.ID {
		return out, errs.NewInvalidArgumentError("OtherUserID", "Cannot start a conversation with yourself")
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	out, err := svc.Store.DirectConversation(ctx, in)
	if err == nil {
		return out, nil
	}

	if !errs.IsNotFound(err) {
		return out, err
	}

	// Surface block state instead of silently creating; a block-only
	// relationship must not leave a conversation row behind.
	blocked, err := svc.Store.BlockedEither(ctx, loggedInUser.ID, in.OtherUserID)
	if err != nil {
		return out, err
	}

	if blocked {
		return out, errs.NewBlockedError("cannot message a user who has blocked you or whom you have blocked")
	}

	if _, err := svc.Store.User(ctx, in.OtherUserID); err != nil {
		return out, err
	}

	out, err = svc.Store.CreateDirectConversation(ctx, in)
	if errs.IsAlreadyExists(err) {
		// Lost the creation race. The winner's conversation is the
		// conversation; recover instead of erroring.
		return svc.Store.DirectConversation(ctx, in)
	}

	if err != nil {
		return out, err
	}

	for _, userID := range []string{loggedInUser.ID, in.OtherUserID} {
		svc.publishUser(userID, types.ChangeEvent{
			Event:  types.EventInsert,
			Table:  types.TableConversations,
			Record: out,
		})
	}

	return out, nil
}

func (svc *Service) CreateGroupConversation(ctx context.Context, in types.CreateGroupConversation) (types.Conversation, error) {
	var out types.Conversation

	if err := in.Validate(); err != nil {
		return out, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	out, err := svc.Store.CreateGroupConversation(ctx, in)
	if err != nil {
		return out, err
	}

	svc.publishConversation(out.ID, types.ChangeEvent{
		Event:  types.EventInsert,
		Table:  types.TableConversations,
		Record: out,
	})
	for _, memberID := range append(in.MemberIDs, loggedInUser.ID) {
		svc.publishUser(memberID, types.ChangeEvent{
			Event:  types.EventInsert,
			Table:  types.TableConversations,
			Record: out,
		})
	}

	return out, nil
}

func (svc *Service) AddParticipant(ctx context.Context, in types.AddParticipant) error {
	if err := in.Validate(); err != nil {
		return err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	if err := svc.Store.AddParticipant(ctx, in); err != nil {
		return err
	}

	svc.publishConversation(in.ConversationID, types.ChangeEvent{
		Event: types.EventInsert,
		Table: types.TableParticipants,
		Record: types.Participant{
			ConversationID: in.ConversationID,
			UserID:         in.NewMemberID,
		},
	})
	svc.publishUser(in.NewMemberID, types.ChangeEvent{
		Event: types.EventInsert,
		Table: types.TableParticipants,
		Record: types.Participant{
			ConversationID: in.ConversationID,
			UserID:         in.NewMemberID,
		},
	})

	return nil
}

// DeleteConversation removes the caller from the conversation. The
// last participant out takes the conversation and its messages along.
func (svc *Service) DeleteConversation(ctx context.Context, in types.DeleteConversation) error {
	if err := in.Validate(); err != nil {
		return err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	purged, err := svc.Store.LeaveConversation(ctx, in)
	if err != nil {
		return err
	}

	event := types.ChangeEvent{
		Event: types.EventDelete,
		Table: types.TableParticipants,
		Record: types.Participant{
			ConversationID: in.ConversationID,
			UserID:         loggedInUser.ID,
		},
	}
	if purged {
		event = types.ChangeEvent{
			Event:  types.EventDelete,
			Table:  types.TableConversations,
			Record: types.Conversation{ID: in.ConversationID},
		}
	}

	svc.publishConversation(in.ConversationID, event)
	svc.publishUser(loggedInUser.ID, event)

	return nil
}

// UpdateMetadata patches the caller's own pin/mute/archive settings.
// It deliberately publishes to the caller's user scope only; other
// participants never observe it.
func (svc *Service) UpdateMetadata(ctx context.Context, in types.UpdateParticipantSettings) (types.Participant, error) {
	var out types.Participant

	if err := in.Validate(); err != nil {
		return out, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	out, err := svc.Store.UpdateParticipantSettings(ctx, in)
	if err != nil {
		return out, err
	}

	svc.publishUser(loggedInUser.ID, types.ChangeEvent{
		Event:  types.EventUpdate,
		Table:  types.TableParticipants,
		Record: out,
	})

	return out, nil
}

func (svc *Service) publishConversation(conversationID string, ev types.ChangeEvent) {
	if err := svc.Broker.PublishConversation(conversationID, ev); err != nil {
		svc.Logger.Error("publish conversation event", "conversation_id", conversationID, "error", err)
	}
}

func (svc *Service) publishUser(userID string, ev types.ChangeEvent) {
	if err := svc.Broker.PublishUser(userID, ev); err != nil {
		svc.Logger.Error("publish user event", "user_id", userID, "error", err)
	}
}
