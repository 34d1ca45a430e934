package types

import (
	"time"

	"github.com/neighborhq/neighbor/id"
	"github.com/neighborhq/neighbor/validator"
)

// Block is a directed edge. If A blocks B, B can no longer message A
// or open a new direct conversation with them; existing conversations
// and messages stay visible to both.
type Block struct {
	BlockerID string    `db:"blocker_id"`
	BlockedID string    `db:"blocked_id"`
	CreatedAt time.Time `db:"created_at"`
}

type BlockUser struct {
	TargetUserID string

	loggedInUserID string
}

func (in *BlockUser) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in BlockUser) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *BlockUser) Validate() error {
	v := validator.New()

	if in.TargetUserID == "" {
		v.AddError("TargetUserID", "Target user ID is required")
	} else if !id.Valid(in.TargetUserID) {
		v.AddError("TargetUserID", "Target user ID is invalid")
	}

	return v.AsError()
}

type UnblockUser struct {
	TargetUserID string

	loggedInUserID string
}

func (in *UnblockUser) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in UnblockUser) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *UnblockUser) Validate() error {
	v := validator.New()

	if in.TargetUserID == "" {
		v.AddError("TargetUserID", "Target user ID is required")
	} else if !id.Valid(in.TargetUserID) {
		v.AddError("TargetUserID", "Target user ID is invalid")
	}

	return v.AsError()
}
