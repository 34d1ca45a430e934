package types

// User is owned by the identity provider; the messaging core keeps a
// read-through mirror of it for conversation enrichment joins.
type User struct {
	ID        string  `json:"id" db:"id"`
	Name      string  `json:"name" db:"name"`
	AvatarURL *string `json:"avatarURL" db:"avatar"`
}

type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceAway    PresenceStatus = "away"
	PresenceOffline PresenceStatus = "offline"
)

func (s PresenceStatus) String() string {
	return string(s)
}

func (s PresenceStatus) Valid() bool {
	switch s {
	case PresenceOnline, PresenceAway, PresenceOffline:
		return true
	}
	return false
}

// Presence is advisory only. It never gates message delivery.
type Presence struct {
	UserID   string         `json:"userID"`
	Status   PresenceStatus `json:"status"`
	LastSeen int64          `json:"lastSeen"`
}
