package cockroach

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/neighborhq/neighbor/types"
)

func (c *Cockroach) CreateBlock(ctx context.Context, in types.BlockUser) error {
	const q = `
		INSERT INTO blocks (blocker_id, blocked_id)
		VALUES (@blocker_id, @blocked_id)
		ON CONFLICT (blocker_id, blocked_id) DO NOTHING
	`

	_, err := c.db.Exec(ctx, q, pgx.StrictNamedArgs{
		"blocker_id": in.LoggedInUserID(),
		"blocked_id": in.TargetUserID,
	})
	if err != nil {
		return fmt.Errorf("sql insert block: %w", err)
	}

	return nil
}

func (c *Cockroach) DeleteBlock(ctx context.Context, in types.UnblockUser) error {
	const q = `
		DELETE FROM blocks
		WHERE blocker_id = @blocker_id
			AND blocked_id = @blocked_id
	`

	_, err := c.db.Exec(ctx, q, pgx.StrictNamedArgs{
		"blocker_id": in.LoggedInUserID(),
		"blocked_id": in.TargetUserID,
	})
	if err != nil {
		return fmt.Errorf("sql delete block: %w", err)
	}

	return nil
}

// BlockedEither reports whether a block edge exists between the two
// users in either direction.
func (c *Cockroach) BlockedEither(ctx context.Context, userID, otherUserID string) (bool, error) {
	var blocked bool
	err := c.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM blocks
			WHERE (blocker_id = @user_id AND blocked_id = @other_user_id)
				OR (blocker_id = @other_user_id AND blocked_id = @user_id)
		)
	`, pgx.StrictNamedArgs{
		"user_id":       userID,
		"other_user_id": otherUserID,
	}).Scan(&blocked)
	if err != nil {
		return false, fmt.Errorf("sql check block exists: %w", err)
	}

	return blocked, nil
}
