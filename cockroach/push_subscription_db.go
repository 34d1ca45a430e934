package cockroach

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/neighborhq/neighbor/types"
)

func (c *Cockroach) SavePushSubscription(ctx context.Context, in types.SavePushSubscription) error {
	const q = `
		INSERT INTO push_subscriptions (user_id, endpoint, p256dh, auth)
		VALUES (@user_id, @endpoint, @p256dh, @auth)
		ON CONFLICT (user_id, endpoint) DO UPDATE
		SET p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth
	`

	_, err := c.db.Exec(ctx, q, pgx.StrictNamedArgs{
		"user_id":  in.LoggedInUserID(),
		"endpoint": in.Endpoint,
		"p256dh":   in.P256dh,
		"auth":     in.Auth,
	})
	if err != nil {
		return fmt.Errorf("sql upsert push subscription: %w", err)
	}

	return nil
}

func (c *Cockroach) PushSubscriptions(ctx context.Context, userID string) ([]types.PushSubscription, error) {
	const q = `
		SELECT push_subscriptions.*
		FROM push_subscriptions
		WHERE push_subscriptions.user_id = @user_id
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"user_id": userID,
	})
	if err != nil {
		return nil, fmt.Errorf("sql select push subscriptions: %w", err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.PushSubscription])
	if err != nil {
		return nil, fmt.Errorf("sql collect push subscriptions: %w", err)
	}

	return out, nil
}

func (c *Cockroach) DeletePushSubscription(ctx context.Context, userID, endpoint string) error {
	_, err := c.db.Exec(ctx, `
		DELETE FROM push_subscriptions
		WHERE user_id = @user_id
			AND endpoint = @endpoint
	`, pgx.StrictNamedArgs{
		"user_id":  userID,
		"endpoint": endpoint,
	})
	if err != nil {
		return fmt.Errorf("sql delete push subscription: %w", err)
	}

	return nil
}
