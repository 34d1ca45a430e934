package service

import (
	"context"

	"github.com/neighborhq/neighbor/auth"
	"github.com/neighborhq/neighbor/errs"
	"github.com/neighborhq/neighbor/types"
)

// CreateMessage persists a message and kicks off propagation and
// notification fan-out. The store transaction already covered the
// sender's receipt, the conversation bump, and the unread counters.
func (svc *Service) CreateMessage(ctx context.Context, in types.CreateMessage) (types.Message, error) {
	var out types.Message

	if err := in.Validate(); err != nil {
		return out, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	conversation, err := svc.Store.Conversation(ctx, retrieveConversationAs(in.ConversationID, loggedInUser.ID))
	if err != nil {
		return out, err
	}

	if conversation.Type == types.ConversationTypeDirect && len(conversation.OtherParticipants) != 0 {
		blocked, err := svc.Store.BlockedEither(ctx, loggedInUser.ID, conversation.OtherParticipants[0].ID)
		if err != nil {
			return out, err
		}

		if blocked {
			return out, errs.NewBlockedError("cannot message a user who has blocked you or whom you have blocked")
		}
	}

	out, err = svc.Store.CreateMessage(ctx, in)
	if err != nil {
		return out, err
	}

	svc.publishConversation(out.ConversationID, types.ChangeEvent{
		Event:  types.EventInsert,
		Table:  types.TableMessages,
		Record: out,
	})

	msg := out
	sender := loggedInUser
	svc.background(func(ctx context.Context) error {
		return svc.dispatchMessageNotifications(ctx, msg, sender)
	})

	return out, nil
}

// Messages lists a page of the conversation's history, oldest first
// for display. Listing doubles as the read sweep: receipts are
// upserted and the caller's unread counter drops to zero, so the
// conversation list updates everywhere the caller is signed in.
func (svc *Service) Messages(ctx context.Context, in types.ListMessages) (types.Page[types.Message], error) {
	var out types.Page[types.Message]

	if err := in.Validate(); err != nil {
		return out, err
	}
	if err := in.PageArgs.Validate(); err != nil {
		return out, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	// The sweep is idempotent, so a transient-failure retry is safe.
	err := svc.withRetry(ctx, func(ctx context.Context) error {
		var err error
		out, err = svc.Store.Messages(ctx, in)
		return err
	})
	if err != nil {
		return out, err
	}

	for _, msg := range out.Items {
		if msg.SenderID == loggedInUser.ID {
			continue
		}
		svc.publishConversation(in.ConversationID, types.ChangeEvent{
			Event: types.EventInsert,
			Table: types.TableReadReceipts,
			Record: types.ReadReceipt{
				MessageID: msg.ID,
				UserID:    loggedInUser.ID,
			},
		})
	}

	svc.publishUser(loggedInUser.ID, types.ChangeEvent{
		Event: types.EventUpdate,
		Table: types.TableParticipants,
		Record: types.Participant{
			ConversationID: in.ConversationID,
			UserID:         loggedInUser.ID,
		},
	})

	return out, nil
}

// UploadAttachments validates and stores pending attachments,
// returning the references to embed in a message. Validation failures
// never reach the attachment store.
func (svc *Service) UploadAttachments(ctx context.Context, files []*types.UploadAttachment) ([]types.Attachment, error) {
	if _, loggedIn := auth.UserFromContext(ctx); !loggedIn {
		return nil, errs.Unauthenticated
	}

	for _, file := range files {
		if err := file.Validate(); err != nil {
			return nil, err
		}
	}

	attachments, _, err := svc.Blobs.UploadMany(ctx, files)
	if err != nil {
		return nil, err
	}

	return attachments, nil
}

func retrieveConversationAs(conversationID, userID string) types.RetrieveConversation {
	in := types.RetrieveConversation{ConversationID: conversationID}
	in.SetLoggedInUserID(userID)
	return in
}
