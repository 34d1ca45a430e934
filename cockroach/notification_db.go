package cockroach

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/neighborhq/neighbor/errs"
	"github.com/neighborhq/neighbor/id"
	"github.com/neighborhq/neighbor/types"
)

func (c *Cockroach) CreateNotification(ctx context.Context, in types.CreateNotification) (types.Notification, error) {
	var out types.Notification

	const q = `
		INSERT INTO notifications (id, user_id, kind, title, message, conversation_id, message_id)
		VALUES (@notification_id, @user_id, @kind, @title, @message, @conversation_id, @message_id)
		RETURNING *
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"notification_id": id.Generate(),
		"user_id":         in.UserID,
		"kind":            in.Kind,
		"title":           in.Title,
		"message":         in.Message,
		"conversation_id": in.ConversationID,
		"message_id":      in.MessageID,
	})
	if err != nil {
		return out, fmt.Errorf("sql insert notification: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Notification])
	if err != nil {
		return out, fmt.Errorf("sql collect inserted notification: %w", err)
	}

	return out, nil
}

func (c *Cockroach) Notifications(ctx context.Context, in types.ListNotifications) (types.Page[types.Notification], error) {
	var out types.Page[types.Notification]

	pageArgs, err := ParsePageArgs(in.PageArgs)
	if err != nil {
		return out, err
	}

	query := `
		SELECT notifications.*
		FROM notifications
		WHERE notifications.user_id = @user_id
	`
	args := pgx.StrictNamedArgs{
		"user_id": in.UserID(),
		"limit":   pageArgs.Size() + 1,
	}

	if pageArgs.After != nil {
		query += `
			AND (notifications.created_at, notifications.id) < (@after_value, @after_id)
		`
		args["after_value"] = pageArgs.After.Value
		args["after_id"] = pageArgs.After.ID
	}

	query += `
		ORDER BY notifications.created_at DESC, notifications.id DESC
		LIMIT @limit
	`

	rows, err := c.db.Query(ctx, query, args)
	if err != nil {
		return out, fmt.Errorf("sql select notifications: %w", err)
	}

	out.Items, err = pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.Notification])
	if err != nil {
		return out, fmt.Errorf("sql collect notifications: %w", err)
	}

	err = applyPageInfo(&out, pageArgs, func(n types.Notification) Cursor {
		return Cursor{ID: n.ID, Value: n.CreatedAt}
	})
	return out, err
}

func (c *Cockroach) ReadNotification(ctx context.Context, in types.ReadNotification) error {
	tag, err := c.db.Exec(ctx, `
		UPDATE notifications
		SET read_at = now()
		WHERE id = @notification_id
			AND user_id = @user_id
			AND read_at IS NULL
	`, pgx.StrictNamedArgs{
		"notification_id": in.NotificationID,
		"user_id":         in.UserID(),
	})
	if err != nil {
		return fmt.Errorf("sql mark notification as read: %w", err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		err := c.db.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM notifications
				WHERE id = @notification_id AND user_id = @user_id
			)
		`, pgx.StrictNamedArgs{
			"notification_id": in.NotificationID,
			"user_id":         in.UserID(),
		}).Scan(&exists)
		if err != nil {
			return fmt.Errorf("sql check notification exists: %w", err)
		}

		if !exists {
			return errs.NewNotFoundError("notification not found")
		}
	}

	return nil
}

func (c *Cockroach) ReadAllNotifications(ctx context.Context, userID string) error {
	_, err := c.db.Exec(ctx, `
		UPDATE notifications
		SET read_at = now()
		WHERE user_id = @user_id
			AND read_at IS NULL
	`, pgx.StrictNamedArgs{
		"user_id": userID,
	})
	if err != nil {
		return fmt.Errorf("sql mark all notifications as read: %w", err)
	}

	return nil
}
