package repositories

import (
	"devconnect/domain/chat"
)

// Key prefixes of the badger layout, exposed for offline inspection.
const (
	MessagePrefix      = "msg:"
	NotificationPrefix = "ntf:id:"
)

// DecodeMessage decodes a value stored under MessagePrefix.
func DecodeMessage(value []byte) (chat.Message, error) {
	var record diskMessage
	if err := decode(value, &record); err != nil {
		return chat.Message{}, err
	}
	return toMessage(record)
}

// DecodeNotification decodes a value stored under NotificationPrefix.
func DecodeNotification(value []byte) (chat.Notification, error) {
	var record diskNotification
	if err := decode(value, &record); err != nil {
		return chat.Notification{}, err
	}
	return toNotification(record)
}
