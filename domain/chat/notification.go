package chat

import "time"

type NotificationID uint64

// NotificationKind is an open tag, new kinds need no schema change.
type NotificationKind string

const (
	NewMessageNotification NotificationKind = "new_message"
)

// Notification is directed at one actor. Read only goes from false to true.
type Notification struct {
	ID        NotificationID
	Target    Address
	Kind      NotificationKind
	Payload   map[string]any
	Read      bool
	CreatedAt time.Time
	ReadAt    *time.Time
}
