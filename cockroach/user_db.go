package cockroach

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/nicolasparada/go-db"
	"github.com/neighborhq/neighbor/errs"
	"github.com/neighborhq/neighbor/types"
)

// UpsertUser keeps the local read-through mirror of the identity
// provider fresh. Called on every authenticated request.
func (c *Cockroach) UpsertUser(ctx context.Context, in types.User) error {
	const q = `
		INSERT INTO users (id, name, avatar)
		VALUES (@user_id, @name, @avatar)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, avatar = EXCLUDED.avatar, updated_at = now()
	`

	_, err := c.db.Exec(ctx, q, pgx.StrictNamedArgs{
		"user_id": in.ID,
		"name":    in.Name,
		"avatar":  in.AvatarURL,
	})
	if err != nil {
		return fmt.Errorf("sql upsert user: %w", err)
	}

	return nil
}

func (c *Cockroach) User(ctx context.Context, userID string) (types.User, error) {
	var out types.User

	const q = `
		SELECT users.id, users.name, users.avatar
		FROM users
		WHERE users.id = @user_id
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"user_id": userID,
	})
	if err != nil {
		return out, fmt.Errorf("sql select user: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.User])
	if db.IsNotFoundError(err) {
		return out, errs.NewNotFoundError("user not found")
	}

	if err != nil {
		return out, fmt.Errorf("sql collect selected user: %w", err)
	}

	return out, nil
}
