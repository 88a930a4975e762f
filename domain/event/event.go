// Package event holds the events pushed to live connections.
package event

import (
	"devconnect/domain/chat"
	"time"
)

type Name string

const (
	NewMessage      Name = "newMessage"
	NewNotification Name = "newNotification"
)

type DomainEvent interface {
	Name() Name
	OccurredAt() time.Time
}

// MessageSent is fanned out to the sender's and the receiver's rooms
// once the message has been persisted.
type MessageSent struct {
	Message chat.Message
}

func (m MessageSent) Name() Name { return NewMessage }

func (m MessageSent) OccurredAt() time.Time { return m.Message.CreatedAt }

// NotificationCreated is fanned out to the target's room only.
type NotificationCreated struct {
	Notification chat.Notification
}

func (n NotificationCreated) Name() Name { return NewNotification }

func (n NotificationCreated) OccurredAt() time.Time { return n.Notification.CreatedAt }
