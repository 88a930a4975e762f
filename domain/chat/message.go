package chat

import (
	"time"

	"github.com/google/uuid"
)

// Message is an immutable entry of a conversation log.
// Seq is assigned by the store and strictly increases within a conversation;
// CreatedAt never decreases within a conversation.
type Message struct {
	ID        uuid.UUID
	Sender    Address
	Receiver  Address
	Body      string
	CreatedAt time.Time
	Seq       uint64
}

func (m Message) Key() ConversationKey {
	return KeyOf(m.Sender, m.Receiver)
}

// Before orders messages by timestamp, then sequence.
func (m Message) Before(other Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.Seq < other.Seq
}
