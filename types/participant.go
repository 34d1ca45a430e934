package types

import (
	"time"

	"github.com/neighborhq/neighbor/id"
	"github.com/neighborhq/neighbor/validator"
)

// Participant is a user's membership record in a conversation. It
// carries the per-user conversation settings (pinned/muted/archived)
// and the cached unread counter alongside the read cursor: all of
// those are owned by the viewing user only and mutating them never
// affects other participants.
type Participant struct {
	ConversationID string     `json:"conversationID" db:"conversation_id"`
	UserID         string     `json:"userID" db:"user_id"`
	LastReadAt     *time.Time `json:"lastReadAt" db:"last_read_at"`
	Pinned         bool       `json:"pinned" db:"pinned"`
	Muted          bool       `json:"muted" db:"muted"`
	Archived       bool       `json:"archived" db:"archived"`
	UnreadCount    int32      `json:"unreadCount" db:"unread_count"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updated_at"`

	User *User `json:"user,omitempty" db:"user,omitempty"`
}

// UpdateParticipantSettings patches the caller's own settings row.
// Nil fields are left untouched.
type UpdateParticipantSettings struct {
	ConversationID string
	Pinned         *bool
	Muted          *bool
	Archived       *bool

	loggedInUserID string
}

func (in *UpdateParticipantSettings) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in UpdateParticipantSettings) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *UpdateParticipantSettings) Validate() error {
	v := validator.New()

	if !id.Valid(in.ConversationID) {
		v.AddError("ConversationID", "Conversation ID is invalid")
	}
	if in.Pinned == nil && in.Muted == nil && in.Archived == nil {
		v.AddError("Settings", "Nothing to update")
	}

	return v.AsError()
}
