package types

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/neighborhq/neighbor/id"
	"github.com/neighborhq/neighbor/validator"
)

type ConversationType string

const (
	ConversationTypeDirect ConversationType = "direct"
	ConversationTypeGroup  ConversationType = "group"
)

func (t ConversationType) String() string {
	return string(t)
}

type Conversation struct {
	ID          string           `json:"id" db:"id"`
	Type        ConversationType `json:"type" db:"type"`
	Name        *string          `json:"name" db:"name"`
	Description *string          `json:"description,omitempty" db:"description"`
	CreatedBy   string           `json:"createdBy" db:"created_by"`
	CreatedAt   time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time        `json:"updatedAt" db:"updated_at"`

	Participation     *Participant    `json:"participation,omitempty" db:"participation,omitempty"`
	OtherParticipants []User          `json:"otherParticipants,omitempty" db:"other_participants,omitempty"`
	LastMessage       *MessagePreview `json:"lastMessage,omitempty" db:"last_message,omitempty"`
}

// MessagePreview is the truncated last message shown on the
// conversation list.
type MessagePreview struct {
	ID        string      `json:"id" db:"id"`
	SenderID  string      `json:"senderID" db:"sender_id"`
	Content   string      `json:"content" db:"content"`
	Type      MessageType `json:"type" db:"type"`
	CreatedAt time.Time   `json:"createdAt" db:"created_at"`
}

type ListConversations struct {
	PageArgs PageArgs

	loggedInUserID string
}

func (in *ListConversations) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in ListConversations) LoggedInUserID() string {
	return in.loggedInUserID
}

type RetrieveConversation struct {
	ConversationID string

	loggedInUserID string
}

func (in *RetrieveConversation) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in RetrieveConversation) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *RetrieveConversation) Validate() error {
	v := validator.New()

	if in.ConversationID == "" {
		v.AddError("ConversationID", "Conversation ID is required")
	} else if !id.Valid(in.ConversationID) {
		v.AddError("ConversationID", "Conversation ID is invalid")
	}

	return v.AsError()
}

// RetrieveDirectConversation looks up or creates the single direct
// conversation between the logged-in user and OtherUserID.
type RetrieveDirectConversation struct {
	OtherUserID string

	loggedInUserID string
}

func (in *RetrieveDirectConversation) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in RetrieveDirectConversation) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *RetrieveDirectConversation) Validate() error {
	v := validator.New()

	if in.OtherUserID == "" {
		v.AddError("OtherUserID", "Other user ID is required")
	} else if !id.Valid(in.OtherUserID) {
		v.AddError("OtherUserID", "Other user ID is invalid")
	}

	return v.AsError()
}

type CreateGroupConversation struct {
	Name        string
	Description *string
	MemberIDs   []string

	loggedInUserID string
}

func (in *CreateGroupConversation) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in CreateGroupConversation) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *CreateGroupConversation) Validate() error {
	v := validator.New()

	in.Name = strings.TrimSpace(in.Name)

	if in.Name == "" {
		v.AddError("Name", "Name is required")
	}
	if utf8.RuneCountInString(in.Name) > 72 {
		v.AddError("Name", "Name must be at most 72 characters")
	}

	if in.Description != nil && utf8.RuneCountInString(*in.Description) > 500 {
		v.AddError("Description", "Description must be at most 500 characters")
	}

	if len(in.MemberIDs) == 0 {
		v.AddError("MemberIDs", "At least one other member is required")
	}
	for _, memberID := range in.MemberIDs {
		if !id.Valid(memberID) {
			v.AddError("MemberIDs", "Member ID is invalid")
			break
		}
	}

	return v.AsError()
}

type AddParticipant struct {
	ConversationID string
	NewMemberID    string

	loggedInUserID string
}

func (in *AddParticipant) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in AddParticipant) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *AddParticipant) Validate() error {
	v := validator.New()

	if !id.Valid(in.ConversationID) {
		v.AddError("ConversationID", "Conversation ID is invalid")
	}
	if !id.Valid(in.NewMemberID) {
		v.AddError("NewMemberID", "Member ID is invalid")
	}

	return v.AsError()
}

type DeleteConversation struct {
	ConversationID string

	loggedInUserID string
}

func (in *DeleteConversation) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in DeleteConversation) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *DeleteConversation) Validate() error {
	v := validator.New()

	if !id.Valid(in.ConversationID) {
		v.AddError("ConversationID", "Conversation ID is invalid")
	}

	return v.AsError()
}
