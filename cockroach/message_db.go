package cockroach

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/neighborhq/neighbor/errs"
	"github.com/neighborhq/neighbor/id"
	"github.com/neighborhq/neighbor/types"
)

// CreateMessage persists the message and its bookkeeping in one
// transaction: the sender's own read receipt, the conversation's
// updated_at bump, and every other participant's unread counter.
func (c *Cockroach) CreateMessage(ctx context.Context, in types.CreateMessage) (types.Message, error) {
	var out types.Message
	return out, c.db.RunTx(ctx, func(ctx context.Context) error {
		isParticipant, err := c.IsParticipant(ctx, in.ConversationID, in.LoggedInUserID())
		if err != nil {
			return err
		}

		if !isParticipant {
			return errs.NewPermissionDeniedError("you are not a participant of this conversation")
		}

		out, err = c.insertMessage(ctx, in.ConversationID, in.LoggedInUserID(), in.Content, in.Type, in.Attachments)
		return err
	})
}

func (c *Cockroach) insertSystemMessage(ctx context.Context, conversationID, actorID, content string) (types.Message, error) {
	return c.insertMessage(ctx, conversationID, actorID, content, types.MessageTypeSystem, nil)
}

func (c *Cockroach) insertMessage(ctx context.Context, conversationID, senderID, content string, messageType types.MessageType, attachments []types.Attachment) (types.Message, error) {
	var out types.Message

	if attachments == nil {
		attachments = []types.Attachment{}
	}

	const q = `
		INSERT INTO messages (id, conversation_id, sender_id, content, type, attachments)
		VALUES (@message_id, @conversation_id, @sender_id, @content, @type, @attachments)
		RETURNING *
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"message_id":      id.Generate(),
		"conversation_id": conversationID,
		"sender_id":       senderID,
		"content":         content,
		"type":            messageType,
		"attachments":     attachments,
	})
	if err != nil {
		return out, fmt.Errorf("sql insert message: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Message])
	if err != nil {
		return out, fmt.Errorf("sql collect inserted message: %w", err)
	}

	// The sender has read their own message by definition.
	if err := c.insertReadReceipts(ctx, []string{out.ID}, senderID); err != nil {
		return out, err
	}

	if err := c.touchConversation(ctx, conversationID); err != nil {
		return out, err
	}

	if err := c.incrementUnread(ctx, conversationID, senderID); err != nil {
		return out, err
	}

	return out, nil
}

// Messages lists a page of the conversation's messages, newest page
// first, items in ascending created_at order for display. Listing is a
// read sweep: it upserts receipts for every returned message the
// caller didn't send and zeroes the caller's unread counter, all in
// the same transaction.
func (c *Cockroach) Messages(ctx context.Context, in types.ListMessages) (types.Page[types.Message], error) {
	var out types.Page[types.Message]
	return out, c.db.RunTx(ctx, func(ctx context.Context) error {
		isParticipant, err := c.IsParticipant(ctx, in.ConversationID, in.LoggedInUserID())
		if err != nil {
			return err
		}

		if !isParticipant {
			return errs.NewPermissionDeniedError("you are not a participant of this conversation")
		}

		pageArgs, err := ParsePageArgs(in.PageArgs)
		if err != nil {
			return err
		}

		// Message history always paginates backward from the newest.
		if pageArgs.Last == nil && pageArgs.First == nil {
			size := pageArgs.Size()
			pageArgs.Last = &size
		}

		query := `
			SELECT messages.*,
				json_build_object(
					'id', users.id,
					'name', users.name,
					'avatarURL', users.avatar
				) AS sender
			FROM messages
			INNER JOIN users ON users.id = messages.sender_id
			WHERE messages.conversation_id = @conversation_id
		`
		args := pgx.StrictNamedArgs{
			"conversation_id": in.ConversationID,
			"limit":           pageArgs.Size() + 1,
		}

		if pageArgs.Before != nil {
			query += `
				AND (messages.created_at, messages.id) < (@before_value, @before_id)
			`
			args["before_value"] = pageArgs.Before.Value
			args["before_id"] = pageArgs.Before.ID
		}

		query += `
			ORDER BY messages.created_at DESC, messages.id DESC
			LIMIT @limit
		`

		rows, err := c.db.Query(ctx, query, args)
		if err != nil {
			return fmt.Errorf("sql select messages: %w", err)
		}

		out.Items, err = pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.Message])
		if err != nil {
			return fmt.Errorf("sql collect messages: %w", err)
		}

		if err := applyPageInfo(&out, pageArgs, func(m types.Message) Cursor {
			return Cursor{ID: m.ID, Value: m.CreatedAt}
		}); err != nil {
			return err
		}

		var unreadIDs []string
		for _, msg := range out.Items {
			if msg.SenderID != in.LoggedInUserID() {
				unreadIDs = append(unreadIDs, msg.ID)
			}
		}

		if len(unreadIDs) != 0 {
			if err := c.insertReadReceipts(ctx, unreadIDs, in.LoggedInUserID()); err != nil {
				return err
			}
		}

		return c.resetUnread(ctx, in.ConversationID, in.LoggedInUserID())
	})
}

// insertReadReceipts is an idempotent upsert: re-reading the same
// message from another tab is a no-op.
func (c *Cockroach) insertReadReceipts(ctx context.Context, messageIDs []string, userID string) error {
	const q = `
		INSERT INTO read_receipts (message_id, user_id)
		SELECT unnest(@message_ids::VARCHAR[]), @user_id
		ON CONFLICT (message_id, user_id) DO NOTHING
	`

	_, err := c.db.Exec(ctx, q, pgx.StrictNamedArgs{
		"message_ids": messageIDs,
		"user_id":     userID,
	})
	if err != nil {
		return fmt.Errorf("sql insert read receipts: %w", err)
	}

	return nil
}

func (c *Cockroach) touchConversation(ctx context.Context, conversationID string) error {
	_, err := c.db.Exec(ctx, `
		UPDATE conversations
		SET updated_at = now()
		WHERE id = @conversation_id
	`, pgx.StrictNamedArgs{
		"conversation_id": conversationID,
	})
	if err != nil {
		return fmt.Errorf("sql touch conversation: %w", err)
	}

	return nil
}

func (c *Cockroach) incrementUnread(ctx context.Context, conversationID, senderID string) error {
	_, err := c.db.Exec(ctx, `
		UPDATE participants
		SET unread_count = unread_count + 1,
			updated_at = now()
		WHERE conversation_id = @conversation_id
			AND user_id != @sender_id
	`, pgx.StrictNamedArgs{
		"conversation_id": conversationID,
		"sender_id":       senderID,
	})
	if err != nil {
		return fmt.Errorf("sql increment unread counters: %w", err)
	}

	return nil
}

func (c *Cockroach) resetUnread(ctx context.Context, conversationID, userID string) error {
	_, err := c.db.Exec(ctx, `
		UPDATE participants
		SET unread_count = 0,
			last_read_at = now(),
			updated_at = now()
		WHERE conversation_id = @conversation_id
			AND user_id = @user_id
	`, pgx.StrictNamedArgs{
		"conversation_id": conversationID,
		"user_id":         userID,
	})
	if err != nil {
		return fmt.Errorf("sql reset unread counter: %w", err)
	}

	return nil
}
