package types

import (
	"time"

	"github.com/neighborhq/neighbor/validator"
)

// PushSubscription is a browser Web Push subscription. Stored per
// user+endpoint; a user may hold one per device.
type PushSubscription struct {
	UserID    string    `db:"user_id"`
	Endpoint  string    `db:"endpoint"`
	P256dh    string    `db:"p256dh"`
	Auth      string    `db:"auth"`
	CreatedAt time.Time `db:"created_at"`
}

type SavePushSubscription struct {
	Endpoint string
	P256dh   string
	Auth     string

	loggedInUserID string
}

func (in *SavePushSubscription) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in SavePushSubscription) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *SavePushSubscription) Validate() error {
	v := validator.New()

	if in.Endpoint == "" {
		v.AddError("Endpoint", "Endpoint is required")
	}
	if in.P256dh == "" {
		v.AddError("P256dh", "p256dh key is required")
	}
	if in.Auth == "" {
		v.AddError("Auth", "auth secret is required")
	}

	return v.AsError()
}
