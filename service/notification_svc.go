package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/neighborhq/neighbor/auth"
	"github.com/neighborhq/neighbor/errs"
	"github.com/neighborhq/neighbor/textutil"
	"github.com/neighborhq/neighbor/types"
	"github.com/neighborhq/neighbor/webpush"
)

// previewLimit caps notification bodies.
const previewLimit = 120

func (svc *Service) Notifications(ctx context.Context, in types.ListNotifications) (types.Page[types.Notification], error) {
	var out types.Page[types.Notification]

	if err := in.PageArgs.Validate(); err != nil {
		return out, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetUserID(loggedInUser.ID)

	err := svc.withRetry(ctx, func(ctx context.Context) error {
		var err error
		out, err = svc.Store.Notifications(ctx, in)
		return err
	})
	return out, err
}

func (svc *Service) ReadNotification(ctx context.Context, in types.ReadNotification) error {
	if err := in.Validate(); err != nil {
		return err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return errs.Unauthenticated
	}

	in.SetUserID(loggedInUser.ID)

	return svc.Store.ReadNotification(ctx, in)
}

func (svc *Service) ReadAllNotifications(ctx context.Context) error {
	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return errs.Unauthenticated
	}

	return svc.Store.ReadAllNotifications(ctx, loggedInUser.ID)
}

func (svc *Service) SavePushSubscription(ctx context.Context, in types.SavePushSubscription) error {
	if err := in.Validate(); err != nil {
		return err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	return svc.Store.SavePushSubscription(ctx, in)
}

// dispatchMessageNotifications runs once per persisted message, for
// every participant but the sender. A muted participant keeps their
// unread counter (already incremented in the insert transaction) but
// gets neither the in-app record nor the push. Notification read
// state stays independent of read receipts in both directions.
func (svc *Service) dispatchMessageNotifications(ctx context.Context, msg types.Message, sender types.User) error {
	participants, err := svc.Store.Participants(ctx, msg.ConversationID)
	if err != nil {
		return fmt.Errorf("list participants for notification fan-out: %w", err)
	}

	preview := textutil.Truncate(textutil.SmartTrim(msg.Content), previewLimit)
	if preview == "" && len(msg.Attachments) != 0 {
		preview = "Sent an attachment"
	}

	var errsAcc []error
	for _, participant := range participants {
		if participant.UserID == msg.SenderID {
			continue
		}

		// The unread counter changed for this participant; let their
		// other sessions refresh the conversation list.
		svc.publishUser(participant.UserID, types.ChangeEvent{
			Event: types.EventUpdate,
			Table: types.TableParticipants,
			Record: types.Participant{
				ConversationID: msg.ConversationID,
				UserID:         participant.UserID,
			},
		})

		if participant.Muted {
			continue
		}

		notification, err := svc.Store.CreateNotification(ctx, types.CreateNotification{
			UserID:         participant.UserID,
			Kind:           types.NotificationKindMessage,
			Title:          sender.Name,
			Message:        preview,
			ConversationID: &msg.ConversationID,
			MessageID:      &msg.ID,
		})
		if err != nil {
			errsAcc = append(errsAcc, fmt.Errorf("create notification for %s: %w", participant.UserID, err))
			continue
		}

		svc.publishUser(participant.UserID, types.ChangeEvent{
			Event:  types.EventInsert,
			Table:  types.TableNotifications,
			Record: notification,
		})

		if err := svc.pushToUser(ctx, participant.UserID, webpush.Payload{
			Title: sender.Name,
			Body:  preview,
			Tag:   msg.ConversationID,
			Link:  svc.appBaseURL + "/conversations/" + msg.ConversationID,
		}); err != nil {
			errsAcc = append(errsAcc, err)
		}
	}

	return errors.Join(errsAcc...)
}

// pushToUser is best effort: a failed push never fails the message.
func (svc *Service) pushToUser(ctx context.Context, userID string, payload webpush.Payload) error {
	if svc.Push == nil || !svc.Push.Enabled() {
		return nil
	}

	subs, err := svc.Store.PushSubscriptions(ctx, userID)
	if err != nil {
		return fmt.Errorf("list push subscriptions for %s: %w", userID, err)
	}

	for _, sub := range subs {
		err := svc.Push.Send(ctx, sub, payload)
		if errors.Is(err, webpush.ErrSubscriptionGone) {
			if err := svc.Store.DeletePushSubscription(ctx, userID, sub.Endpoint); err != nil {
				svc.Logger.Error("delete gone push subscription", "user_id", userID, "error", err)
			}
			continue
		}

		if err != nil {
			svc.Logger.Error("send web push", "user_id", userID, "error", err)
		}
	}

	return nil
}
