package types

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/neighborhq/neighbor/id"
	"github.com/neighborhq/neighbor/validator"
)

type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeFile   MessageType = "file"
	MessageTypeSystem MessageType = "system"
)

func (t MessageType) String() string {
	return string(t)
}

func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeFile, MessageTypeSystem:
		return true
	}
	return false
}

// Message rows are append-only. There is no edit or delete; a message
// lives exactly as long as its conversation.
type Message struct {
	ID             string       `json:"id" db:"id"`
	ConversationID string       `json:"conversationID" db:"conversation_id"`
	SenderID       string       `json:"senderID" db:"sender_id"`
	Content        string       `json:"content" db:"content"`
	Type           MessageType  `json:"type" db:"type"`
	Attachments    []Attachment `json:"attachments,omitempty" db:"attachments"`
	CreatedAt      time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time    `json:"updatedAt" db:"updated_at"`

	Sender *User `json:"sender,omitempty" db:"sender,omitempty"`
}

// ReadReceipt is a per-user, per-message acknowledgment. One receipt
// per (message, user); the sender's own receipt is created with the
// message itself.
type ReadReceipt struct {
	MessageID string    `json:"messageID" db:"message_id"`
	UserID    string    `json:"userID" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type CreateMessage struct {
	ConversationID string
	Content        string
	Type           MessageType
	Attachments    []Attachment

	loggedInUserID string
}

func (in *CreateMessage) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in CreateMessage) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *CreateMessage) Validate() error {
	v := validator.New()

	in.Content = strings.TrimSpace(in.Content)
	if in.Type == "" {
		in.Type = MessageTypeText
	}

	if in.ConversationID == "" {
		v.AddError("ConversationID", "Conversation ID is required")
	} else if !id.Valid(in.ConversationID) {
		v.AddError("ConversationID", "Conversation ID is invalid")
	}

	if !in.Type.Valid() {
		v.AddError("Type", "Message type is invalid")
	}
	if in.Type == MessageTypeSystem {
		v.AddError("Type", "System messages cannot be sent directly")
	}

	if in.Content == "" && len(in.Attachments) == 0 {
		v.AddError("Content", "Content is required")
	}
	if utf8.RuneCountInString(in.Content) > 2000 {
		v.AddError("Content", "Content must be at most 2000 characters")
	}

	if len(in.Attachments) > 10 {
		v.AddError("Attachments", "At most 10 attachments per message")
	}

	return v.AsError()
}

type ListMessages struct {
	ConversationID string
	PageArgs       PageArgs

	loggedInUserID string
}

func (in *ListMessages) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in ListMessages) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *ListMessages) Validate() error {
	v := validator.New()

	if in.ConversationID == "" {
		v.AddError("ConversationID", "Conversation ID is required")
	} else if !id.Valid(in.ConversationID) {
		v.AddError("ConversationID", "Conversation ID is invalid")
	}

	return v.AsError()
}
