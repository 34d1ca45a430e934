package cockroach

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/nicolasparada/go-db"
	"github.com/neighborhq/neighbor/errs"
	"github.com/neighborhq/neighbor/id"
	"github.com/neighborhq/neighbor/types"
)

var conversationColumns = [...]string{
	"conversations.id",
	"conversations.type",
	"conversations.name",
	"conversations.description",
	"conversations.created_by",
	"conversations.created_at",
	"conversations.updated_at",
}

var conversationColumnsStr = strings.Join(conversationColumns[:], ", ")

const participationJSON = `
	json_build_object(
		'conversationID', participants.conversation_id,
		'userID', participants.user_id,
		'lastReadAt', participants.last_read_at,
		'pinned', participants.pinned,
		'muted', participants.muted,
		'archived', participants.archived,
		'unreadCount', participants.unread_count,
		'createdAt', participants.created_at,
		'updatedAt', participants.updated_at
	) AS participation
`

const otherParticipantsJSON = `
	(
		SELECT COALESCE(json_agg(json_build_object(
			'id', users.id,
			'name', users.name,
			'avatarURL', users.avatar
		) ORDER BY users.name), '[]')
		FROM participants AS others
		INNER JOIN users ON users.id = others.user_id
		WHERE others.conversation_id = conversations.id
			AND others.user_id != @user_id
	) AS other_participants
`

const lastMessageJSON = `
	(
		SELECT json_build_object(
			'id', messages.id,
			'senderID', messages.sender_id,
			'content', LEFT(messages.content, 120),
			'type', messages.type,
			'createdAt', messages.created_at
		)
		FROM messages
		WHERE messages.conversation_id = conversations.id
		ORDER BY messages.created_at DESC, messages.id DESC
		LIMIT 1
	) AS last_message
`

// DirectKey is the order-independent identity of a direct
// conversation's participant pair.
func DirectKey(userID, otherUserID string) string {
	if otherUserID < userID {
		userID, otherUserID = otherUserID, userID
	}
	return userID + ":" + otherUserID
}

func (c *Cockroach) DirectConversation(ctx context.Context, in types.RetrieveDirectConversation) (types.Conversation, error) {
	var out types.Conversation

	query := `
		SELECT ` + conversationColumnsStr + `,
			` + participationJSON + `,
			` + otherParticipantsJSON + `,
			` + lastMessageJSON + `
		FROM conversations
		INNER JOIN participants ON participants.conversation_id = conversations.id
			AND participants.user_id = @user_id
		WHERE conversations.direct_key = @direct_key
	`

	rows, err := c.db.Query(ctx, query, pgx.StrictNamedArgs{
		"user_id":    in.LoggedInUserID(),
		"direct_key": DirectKey(in.LoggedInUserID(), in.OtherUserID),
	})
	if err != nil {
		return out, fmt.Errorf("sql select direct conversation: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Conversation])
	if db.IsNotFoundError(err) {
		return out, errs.NewNotFoundError("conversation not found")
	}

	if err != nil {
		return out, fmt.Errorf("sql collect direct conversation: %w", err)
	}

	return out, nil
}

// CreateDirectConversation inserts the conversation and both
// participant rows in one transaction. A concurrent creator loses on
// the direct_key unique index and gets an already-exists error; the
// caller recovers by re-querying.
func (c *Cockroach) CreateDirectConversation(ctx context.Context, in types.RetrieveDirectConversation) (types.Conversation, error) {
	var out types.Conversation
	return out, c.db.RunTx(ctx, func(ctx context.Context) error {
		const q = `
			INSERT INTO conversations (id, type, created_by, direct_key)
			VALUES (@conversation_id, @type, @created_by, @direct_key)
		`

		conversationID := id.Generate()
		_, err := c.db.Exec(ctx, q, pgx.StrictNamedArgs{
			"conversation_id": conversationID,
			"type":            types.ConversationTypeDirect,
			"created_by":      in.LoggedInUserID(),
			"direct_key":      DirectKey(in.LoggedInUserID(), in.OtherUserID),
		})
		if isUniqueViolation(err) {
			return errs.NewAlreadyExistsError("direct conversation already exists")
		}

		if err != nil {
			return fmt.Errorf("sql insert direct conversation: %w", err)
		}

		if _, err := c.insertParticipants(ctx, conversationID, in.LoggedInUserID(), in.OtherUserID); err != nil {
			return err
		}

		out, err = c.DirectConversation(ctx, in)
		return err
	})
}

// insertParticipants reports how many participant rows were actually
// inserted; existing members conflict away.
func (c *Cockroach) insertParticipants(ctx context.Context, conversationID string, userIDs ...string) (int64, error) {
	const q = `
		INSERT INTO participants (conversation_id, user_id)
		SELECT @conversation_id, unnest(@user_ids::VARCHAR[])
		ON CONFLICT (conversation_id, user_id) DO NOTHING
	`

	tag, err := c.db.Exec(ctx, q, pgx.StrictNamedArgs{
		"conversation_id": conversationID,
		"user_ids":        userIDs,
	})
	if err != nil {
		return 0, fmt.Errorf("sql insert participants: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (c *Cockroach) Conversation(ctx context.Context, in types.RetrieveConversation) (types.Conversation, error) {
	var out types.Conversation

	query := `
		SELECT ` + conversationColumnsStr + `,
			` + participationJSON + `,
			` + otherParticipantsJSON + `,
			` + lastMessageJSON + `
		FROM conversations
		INNER JOIN participants ON participants.conversation_id = conversations.id
			AND participants.user_id = @user_id
		WHERE conversations.id = @conversation_id
	`

	rows, err := c.db.Query(ctx, query, pgx.StrictNamedArgs{
		"conversation_id": in.ConversationID,
		"user_id":         in.LoggedInUserID(),
	})
	if err != nil {
		return out, fmt.Errorf("sql select conversation: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Conversation])
	if db.IsNotFoundError(err) {
		return out, errs.NewNotFoundError("conversation not found")
	}

	if err != nil {
		return out, fmt.Errorf("sql collect conversation: %w", err)
	}

	return out, nil
}

// Conversations lists the caller's non-archived conversations, pinned
// first, then most recently active. Pinned rows all ride along with
// the first page; the cursor walks the unpinned ordering only.
// Anchoring the cursor on a pinned row would skip every unpinned
// conversation more recent than it.
func (c *Cockroach) Conversations(ctx context.Context, in types.ListConversations) (types.Page[types.Conversation], error) {
	var out types.Page[types.Conversation]

	pageArgs, err := ParsePageArgs(in.PageArgs)
	if err != nil {
		return out, err
	}

	var pinned []types.Conversation
	if pageArgs.After == nil {
		pinned, err = c.pinnedConversations(ctx, in.LoggedInUserID())
		if err != nil {
			return out, err
		}
	}

	query := `
		SELECT ` + conversationColumnsStr + `,
			` + participationJSON + `,
			` + otherParticipantsJSON + `,
			` + lastMessageJSON + `
		FROM conversations
		INNER JOIN participants ON participants.conversation_id = conversations.id
			AND participants.user_id = @user_id
		WHERE NOT participants.archived
			AND NOT participants.pinned
	`
	args := pgx.StrictNamedArgs{
		"user_id": in.LoggedInUserID(),
		"limit":   pageArgs.Size() + 1,
	}

	if pageArgs.After != nil {
		query += `
			AND (conversations.updated_at, conversations.id) < (@after_value, @after_id)
		`
		args["after_value"] = pageArgs.After.Value
		args["after_id"] = pageArgs.After.ID
	}

	query += `
		ORDER BY conversations.updated_at DESC, conversations.id DESC
		LIMIT @limit
	`

	rows, err := c.db.Query(ctx, query, args)
	if err != nil {
		return out, fmt.Errorf("sql select conversations: %w", err)
	}

	out.Items, err = pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.Conversation])
	if err != nil {
		return out, fmt.Errorf("sql collect conversations: %w", err)
	}

	err = applyPageInfo(&out, pageArgs, func(c types.Conversation) Cursor {
		return Cursor{ID: c.ID, Value: c.UpdatedAt}
	})
	if err != nil {
		return out, err
	}

	out.Items = append(pinned, out.Items...)
	return out, nil
}

func (c *Cockroach) pinnedConversations(ctx context.Context, userID string) ([]types.Conversation, error) {
	query := `
		SELECT ` + conversationColumnsStr + `,
			` + participationJSON + `,
			` + otherParticipantsJSON + `,
			` + lastMessageJSON + `
		FROM conversations
		INNER JOIN participants ON participants.conversation_id = conversations.id
			AND participants.user_id = @user_id
		WHERE NOT participants.archived
			AND participants.pinned
		ORDER BY conversations.updated_at DESC, conversations.id DESC
	`

	rows, err := c.db.Query(ctx, query, pgx.StrictNamedArgs{
		"user_id": userID,
	})
	if err != nil {
		return nil, fmt.Errorf("sql select pinned conversations: %w", err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.Conversation])
	if err != nil {
		return nil, fmt.Errorf("sql collect pinned conversations: %w", err)
	}

	return out, nil
}

func (c *Cockroach) CreateGroupConversation(ctx context.Context, in types.CreateGroupConversation) (types.Conversation, error) {
	var out types.Conversation
	return out, c.db.RunTx(ctx, func(ctx context.Context) error {
		const q = `
			INSERT INTO conversations (id, type, name, description, created_by)
			VALUES (@conversation_id, @type, @name, @description, @created_by)
		`

		conversationID := id.Generate()
		_, err := c.db.Exec(ctx, q, pgx.StrictNamedArgs{
			"conversation_id": conversationID,
			"type":            types.ConversationTypeGroup,
			"name":            in.Name,
			"description":     in.Description,
			"created_by":      in.LoggedInUserID(),
		})
		if err != nil {
			return fmt.Errorf("sql insert group conversation: %w", err)
		}

		memberIDs := append([]string{in.LoggedInUserID()}, in.MemberIDs...)
		if _, err := c.insertParticipants(ctx, conversationID, memberIDs...); err != nil {
			return err
		}

		creator, err := c.User(ctx, in.LoggedInUserID())
		if err != nil {
			return err
		}

		if _, err := c.insertSystemMessage(ctx, conversationID, in.LoggedInUserID(),
			fmt.Sprintf("%s created the group %q", creator.Name, in.Name),
		); err != nil {
			return err
		}

		out, err = c.Conversation(ctx, retrieveConversationAs(conversationID, in.LoggedInUserID()))
		return err
	})
}

func (c *Cockroach) AddParticipant(ctx context.Context, in types.AddParticipant) error {
	return c.db.RunTx(ctx, func(ctx context.Context) error {
		var conversationType types.ConversationType
		err := c.db.QueryRow(ctx, `
			SELECT conversations.type
			FROM conversations
			INNER JOIN participants ON participants.conversation_id = conversations.id
				AND participants.user_id = @user_id
			WHERE conversations.id = @conversation_id
		`, pgx.StrictNamedArgs{
			"conversation_id": in.ConversationID,
			"user_id":         in.LoggedInUserID(),
		}).Scan(&conversationType)
		if db.IsNotFoundError(err) {
			return errs.NewNotFoundError("conversation not found")
		}

		if err != nil {
			return fmt.Errorf("sql select conversation type: %w", err)
		}

		if conversationType != types.ConversationTypeGroup {
			return errs.NewPermissionDeniedError("cannot add participants to a direct conversation")
		}

		inserted, err := c.insertParticipants(ctx, in.ConversationID, in.NewMemberID)
		if err != nil {
			return err
		}

		// Re-adding an existing member must not announce a second join.
		if inserted == 0 {
			return nil
		}

		member, err := c.User(ctx, in.NewMemberID)
		if err != nil {
			return err
		}

		_, err = c.insertSystemMessage(ctx, in.ConversationID, in.LoggedInUserID(),
			fmt.Sprintf("%s joined the conversation", member.Name),
		)
		return err
	})
}

// LeaveConversation removes the caller's participant row. The last
// participant out purges the conversation; its messages go with it via
// cascade. Reports whether the conversation was purged.
func (c *Cockroach) LeaveConversation(ctx context.Context, in types.DeleteConversation) (bool, error) {
	var purged bool
	return purged, c.db.RunTx(ctx, func(ctx context.Context) error {
		tag, err := c.db.Exec(ctx, `
			DELETE FROM participants
			WHERE conversation_id = @conversation_id
				AND user_id = @user_id
		`, pgx.StrictNamedArgs{
			"conversation_id": in.ConversationID,
			"user_id":         in.LoggedInUserID(),
		})
		if err != nil {
			return fmt.Errorf("sql delete participant: %w", err)
		}

		if tag.RowsAffected() == 0 {
			return errs.NewNotFoundError("conversation not found")
		}

		var remaining int
		err = c.db.QueryRow(ctx, `
			SELECT COUNT(*) FROM participants
			WHERE conversation_id = @conversation_id
		`, pgx.StrictNamedArgs{
			"conversation_id": in.ConversationID,
		}).Scan(&remaining)
		if err != nil {
			return fmt.Errorf("sql count remaining participants: %w", err)
		}

		if remaining > 0 {
			return nil
		}

		if _, err := c.db.Exec(ctx, `
			DELETE FROM conversations WHERE id = @conversation_id
		`, pgx.StrictNamedArgs{
			"conversation_id": in.ConversationID,
		}); err != nil {
			return fmt.Errorf("sql delete conversation: %w", err)
		}

		purged = true
		return nil
	})
}

func (c *Cockroach) Participants(ctx context.Context, conversationID string) ([]types.Participant, error) {
	const q = `
		SELECT participants.*,
			json_build_object(
				'id', users.id,
				'name', users.name,
				'avatarURL', users.avatar
			) AS user
		FROM participants
		INNER JOIN users ON users.id = participants.user_id
		WHERE participants.conversation_id = @conversation_id
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"conversation_id": conversationID,
	})
	if err != nil {
		return nil, fmt.Errorf("sql select participants: %w", err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.Participant])
	if err != nil {
		return nil, fmt.Errorf("sql collect participants: %w", err)
	}

	return out, nil
}

func (c *Cockroach) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	var exists bool
	err := c.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM participants
			WHERE conversation_id = @conversation_id
				AND user_id = @user_id
		)
	`, pgx.StrictNamedArgs{
		"conversation_id": conversationID,
		"user_id":         userID,
	}).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sql check participant exists: %w", err)
	}

	return exists, nil
}

func (c *Cockroach) UpdateParticipantSettings(ctx context.Context, in types.UpdateParticipantSettings) (types.Participant, error) {
	var out types.Participant

	const q = `
		UPDATE participants
		SET pinned = COALESCE(@pinned, pinned),
			muted = COALESCE(@muted, muted),
			archived = COALESCE(@archived, archived),
			updated_at = now()
		WHERE conversation_id = @conversation_id
			AND user_id = @user_id
		RETURNING *
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"conversation_id": in.ConversationID,
		"user_id":         in.LoggedInUserID(),
		"pinned":          in.Pinned,
		"muted":           in.Muted,
		"archived":        in.Archived,
	})
	if err != nil {
		return out, fmt.Errorf("sql update participant settings: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Participant])
	if db.IsNotFoundError(err) {
		return out, errs.NewNotFoundError("conversation not found")
	}

	if err != nil {
		return out, fmt.Errorf("sql collect updated participant settings: %w", err)
	}

	return out, nil
}

func retrieveConversationAs(conversationID, userID string) types.RetrieveConversation {
	in := types.RetrieveConversation{ConversationID: conversationID}
	in.SetLoggedInUserID(userID)
	return in
}
