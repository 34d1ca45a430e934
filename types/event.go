package types

// Change events are hints, not state: delivery is at-least-once and
// unordered, so consumers re-fetch or merge rather than trusting
// arrival order.

type ChangeEventKind string

const (
	EventInsert ChangeEventKind = "insert"
	EventUpdate ChangeEventKind = "update"
	EventDelete ChangeEventKind = "delete"
)

const (
	TableConversations = "conversations"
	TableParticipants  = "participants"
	TableMessages      = "messages"
	TableReadReceipts  = "read_receipts"
	TableNotifications = "notifications"
	TablePresence      = "presence"
)

type ChangeEvent struct {
	Event  ChangeEventKind `json:"event" msgpack:"event"`
	Table  string          `json:"table" msgpack:"table"`
	Record any             `json:"record" msgpack:"record"`
}
