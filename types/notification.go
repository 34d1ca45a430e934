package types

import (
	"time"

	"github.com/neighborhq/neighbor/id"
	"github.com/neighborhq/neighbor/validator"
)

type Notification struct {
	ID             string           `db:"id" json:"id"`
	UserID         string           `db:"user_id" json:"userID"`
	Kind           NotificationKind `db:"kind" json:"kind"`
	Title          string           `db:"title" json:"title"`
	Message        string           `db:"message" json:"message"`
	ConversationID *string          `db:"conversation_id" json:"conversationID,omitempty"`
	MessageID      *string          `db:"message_id" json:"messageID,omitempty"`
	ReadAt         *time.Time       `db:"read_at" json:"readAt,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"createdAt"`
}

// Read reports the notification's own read flag. It is intentionally
// independent of message read receipts: reading a conversation does
// not mark its notifications read, and vice versa.
func (n Notification) Read() bool {
	return n.ReadAt != nil
}

type NotificationKind string

const (
	NotificationKindMessage NotificationKind = "message"
	NotificationKindGroup   NotificationKind = "group"
)

func (k NotificationKind) String() string {
	return string(k)
}

type ListNotifications struct {
	PageArgs PageArgs

	userID string
}

func (in *ListNotifications) SetUserID(userID string) {
	in.userID = userID
}

func (in ListNotifications) UserID() string {
	return in.userID
}

type ReadNotification struct {
	NotificationID string

	userID string
}

func (in *ReadNotification) SetUserID(userID string) {
	in.userID = userID
}

func (in ReadNotification) UserID() string {
	return in.userID
}

func (in *ReadNotification) Validate() error {
	v := validator.New()

	if !id.Valid(in.NotificationID) {
		v.AddError("NotificationID", "Notification ID is invalid")
	}

	return v.AsError()
}

// CreateNotification is dispatcher-internal; it never comes from a
// client.
type CreateNotification struct {
	UserID         string
	Kind           NotificationKind
	Title          string
	Message        string
	ConversationID *string
	MessageID      *string
}
